package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// UserProfile is the persisted profile of the signed-in user.
// UserType is the role discriminator used for page gating. Fields the client
// does not know about are kept in Extra so they survive a round trip.
type UserProfile struct {
	UserType string
	UserID   string
	Name     string
	Email    string
	Extra    map[string]json.RawMessage
}

// IsZero reports whether no profile is stored.
func (u UserProfile) IsZero() bool {
	return u.UserType == "" && u.UserID == "" && u.Name == "" && u.Email == "" && len(u.Extra) == 0
}

// MarshalJSON writes the profile as a flat object.
func (u UserProfile) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(u.Extra)+4)
	for k, v := range u.Extra {
		m[k] = v
	}
	if u.UserType != "" {
		m["userType"] = u.UserType
	}
	if u.UserID != "" {
		m["userId"] = u.UserID
	}
	if u.Name != "" {
		m["name"] = u.Name
	}
	if u.Email != "" {
		m["email"] = u.Email
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads a flat object; known keys must have the expected types.
func (u *UserProfile) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("user profile is not an object")
	}
	var out UserProfile
	var err error
	if out.UserType, err = takeString(m, "userType"); err != nil {
		return err
	}
	if raw, ok := m["userId"]; ok {
		delete(m, "userId")
		if out.UserID, err = idString(raw); err != nil {
			return fmt.Errorf("userId: %w", err)
		}
	}
	if out.Name, err = takeString(m, "name"); err != nil {
		return err
	}
	if out.Email, err = takeString(m, "email"); err != nil {
		return err
	}
	if len(m) > 0 {
		out.Extra = m
	}
	*u = out
	return nil
}

func takeString(m map[string]json.RawMessage, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", nil
	}
	delete(m, key)
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: expected string", key)
	}
	return s, nil
}

// idString accepts a JSON string or integer id and returns it as a string.
func idString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or integer id")
	}
	i, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return "", fmt.Errorf("expected integer id, got %s", n)
	}
	return strconv.FormatInt(i, 10), nil
}

// CartItem is one product line in the cart.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UnmarshalJSON accepts numeric product ids, which older pages persisted.
func (c *CartItem) UnmarshalJSON(b []byte) error {
	var raw struct {
		ProductID json.RawMessage `json:"productId"`
		Quantity  *int            `json:"quantity"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.ProductID == nil {
		return fmt.Errorf("cart item: missing productId")
	}
	id, err := idString(raw.ProductID)
	if err != nil {
		return fmt.Errorf("cart item: productId: %w", err)
	}
	if raw.Quantity == nil {
		return fmt.Errorf("cart item %q: missing quantity", id)
	}
	c.ProductID = id
	c.Quantity = *raw.Quantity
	return nil
}

// Cart is the ordered list of cart lines, at most one per product.
type Cart []CartItem

// TotalQuantity is the sum of all line quantities, shown on the badge.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, it := range c {
		total += it.Quantity
	}
	return total
}

// Find returns the index of the line for productID, or -1.
func (c Cart) Find(productID string) int {
	for i, it := range c {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Validate checks the cart invariants: non-empty ids, positive quantities,
// one line per product.
func (c Cart) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for i, it := range c {
		if it.ProductID == "" {
			return fmt.Errorf("line %d: empty productId", i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("line %d (%s): quantity %d is not positive", i, it.ProductID, it.Quantity)
		}
		if _, dup := seen[it.ProductID]; dup {
			return fmt.Errorf("line %d: duplicate productId %s", i, it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}
	return nil
}

// Clone returns a copy that can be mutated without touching c.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
