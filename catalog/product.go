package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// Product is a listing as returned by the public product endpoints.
type Product struct {
	ID          int64    `json:"id"`
	StudentID   int64    `json:"studentId,omitempty"`
	StudentName string   `json:"studentName,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Quantity    int      `json:"quantity"`
	Category    string   `json:"category"`
	Image       string   `json:"image,omitempty"`
	Active      bool     `json:"active"`
	OnSale      bool     `json:"onSale"`
	SalePrice   *float64 `json:"salePrice,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

// Key is the product id in the form the cart stores it.
func (p Product) Key() string {
	return strconv.FormatInt(p.ID, 10)
}

// EffectivePrice is the sale price while the product is on sale and has
// one, the list price otherwise.
func (p Product) EffectivePrice() float64 {
	if p.OnSale && p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// Categories splits the comma separated category field.
func (p Product) Categories() []string {
	var out []string
	for _, part := range strings.Split(p.Category, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// InCategory reports whether any of the product's categories contains
// category, ignoring case.
func (p Product) InCategory(category string) bool {
	needle := strings.ToLower(category)
	for _, c := range p.Categories() {
		if strings.Contains(strings.ToLower(c), needle) {
			return true
		}
	}
	return false
}

// Filter narrows a product listing. Zero fields do not filter.
type Filter struct {
	Category    string
	StudentID   int64
	OnSale      bool
	NewProducts bool
	BestSeller  bool
}

// Query encodes f as listing query parameters.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.StudentID != 0 {
		q.Set("studentId", strconv.FormatInt(f.StudentID, 10))
	}
	if f.OnSale {
		q.Set("onSale", "true")
	}
	if f.NewProducts {
		q.Set("newProducts", "true")
	}
	if f.BestSeller {
		q.Set("bestSeller", "true")
	}
	return q
}

// ParseFilter is the inverse of Filter.Query. Unparseable values are ignored.
func ParseFilter(q url.Values) Filter {
	f := Filter{Category: strings.TrimSpace(q.Get("category"))}
	if id, err := strconv.ParseInt(q.Get("studentId"), 10, 64); err == nil {
		f.StudentID = id
	}
	f.OnSale, _ = strconv.ParseBool(q.Get("onSale"))
	f.NewProducts, _ = strconv.ParseBool(q.Get("newProducts"))
	f.BestSeller, _ = strconv.ParseBool(q.Get("bestSeller"))
	return f
}
