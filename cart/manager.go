// Package cart implements the shopping cart operations on top of the
// persisted client state.
package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"shopfront/state"
	"shopfront/ui"
)

// AddedMessage is the toast shown after a successful Add.
const AddedMessage = "Product added to cart!"

var (
	// ErrInvalidQuantity signals an Add with a quantity below one, or one that
	// would overflow the line.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	// ErrEmptyProductID signals a missing product id.
	ErrEmptyProductID = errors.New("cart: product id is required")
)

// Storage is the persistence the manager needs.
type Storage interface {
	Cart(ctx context.Context) (state.Cart, error)
	SaveCart(ctx context.Context, cart state.Cart) error
	ClearCart(ctx context.Context) error
}

// Notifier shows a toast.
type Notifier interface {
	Notify(message string, kind ui.Kind)
}

// Manager mutates the cart. Every mutation is persisted immediately and the
// storage notifies its observers (the badge). Mutations are serialised within
// the process.
type Manager struct {
	store    Storage
	notifier Notifier

	mu sync.Mutex
}

// NewManager returns a Manager over store. notifier may be nil.
func NewManager(store Storage, notifier Notifier) *Manager {
	return &Manager{store: store, notifier: notifier}
}

// Add increases the quantity of productID by quantity, appending a new line
// when the product is not in the cart yet.
func (m *Manager) Add(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return ErrEmptyProductID
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.store.Cart(ctx)
	if err != nil {
		return fmt.Errorf("cart: add %s: %w", productID, err)
	}
	if i := c.Find(productID); i >= 0 {
		if c[i].Quantity > math.MaxInt-quantity {
			return fmt.Errorf("cart: add %s: %w", productID, ErrInvalidQuantity)
		}
		c[i].Quantity += quantity
	} else {
		c = append(c, state.CartItem{ProductID: productID, Quantity: quantity})
	}
	if err := m.store.SaveCart(ctx, c); err != nil {
		return fmt.Errorf("cart: add %s: %w", productID, err)
	}

	if m.notifier != nil {
		m.notifier.Notify(AddedMessage, ui.KindSuccess)
	}
	return nil
}

// Remove drops the line for productID. Removing an absent product still
// rewrites the cart.
func (m *Manager) Remove(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(ctx, productID)
}

func (m *Manager) removeLocked(ctx context.Context, productID string) error {
	c, err := m.store.Cart(ctx)
	if err != nil {
		return fmt.Errorf("cart: remove %s: %w", productID, err)
	}
	kept := make(state.Cart, 0, len(c))
	for _, it := range c {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	if err := m.store.SaveCart(ctx, kept); err != nil {
		return fmt.Errorf("cart: remove %s: %w", productID, err)
	}
	return nil
}

// UpdateQuantity sets the quantity of productID. A quantity of zero or less
// removes the line. Products not in the cart are ignored.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.store.Cart(ctx)
	if err != nil {
		return fmt.Errorf("cart: update %s: %w", productID, err)
	}
	i := c.Find(productID)
	if i < 0 {
		return nil
	}
	if quantity <= 0 {
		return m.removeLocked(ctx, productID)
	}
	c[i].Quantity = quantity
	if err := m.store.SaveCart(ctx, c); err != nil {
		return fmt.Errorf("cart: update %s: %w", productID, err)
	}
	return nil
}

// Clear empties the cart.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.ClearCart(ctx); err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}
	return nil
}

// Consume removes the ordered quantities from the cart in one step, leaving
// anything added after the order was taken. Lines that drop to zero are
// removed and an emptied cart is cleared.
func (m *Manager) Consume(ctx context.Context, ordered state.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.store.Cart(ctx)
	if err != nil {
		return fmt.Errorf("cart: consume: %w", err)
	}
	taken := make(map[string]int, len(ordered))
	for _, it := range ordered {
		taken[it.ProductID] += it.Quantity
	}
	kept := make(state.Cart, 0, len(c))
	for _, it := range c {
		it.Quantity -= taken[it.ProductID]
		if it.Quantity > 0 {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		err = m.store.ClearCart(ctx)
	} else {
		err = m.store.SaveCart(ctx, kept)
	}
	if err != nil {
		return fmt.Errorf("cart: consume: %w", err)
	}
	return nil
}

// Items returns the current cart lines.
func (m *Manager) Items(ctx context.Context) (state.Cart, error) {
	return m.store.Cart(ctx)
}

// Count returns the total quantity across all lines.
func (m *Manager) Count(ctx context.Context) (int, error) {
	c, err := m.store.Cart(ctx)
	if err != nil {
		return 0, err
	}
	return c.TotalQuantity(), nil
}
