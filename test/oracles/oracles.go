// Package oracles checks invariants of a storefront run.
package oracles

import (
	"context"
	"fmt"
	"math"

	"shopfront/catalog"
	"shopfront/shop"
	"shopfront/ui"
)

// Oracle is one named invariant. Check returns a description of the first
// violation, or "".
type Oracle struct {
	Name  string
	Check func(ctx context.Context) (string, error)
}

// Backend is the server-side view the oracles read.
type Backend interface {
	Products() []catalog.Product
	Orders() []catalog.Order
}

// Live returns the invariants that hold at any moment of a run.
func Live(b Backend) []Oracle {
	return []Oracle{
		{
			Name: "O1_stock_never_negative",
			Check: func(context.Context) (string, error) {
				for _, p := range b.Products() {
					if p.Quantity < 0 {
						return fmt.Sprintf("product %d stock %d", p.ID, p.Quantity), nil
					}
					if p.Quantity == 0 && p.Active {
						return fmt.Sprintf("product %d sold out but active", p.ID), nil
					}
				}
				return "", nil
			},
		},
		{
			Name: "O2_order_totals",
			Check: func(context.Context) (string, error) {
				for _, o := range b.Orders() {
					var sum float64
					for _, it := range o.Items {
						if math.Abs(it.Subtotal-it.Price*float64(it.Quantity)) > 1e-9 {
							return fmt.Sprintf("order %d line %d subtotal %v", o.ID, it.ProductID, it.Subtotal), nil
						}
						sum += it.Subtotal
					}
					if math.Abs(sum-o.TotalAmount) > 1e-6 {
						return fmt.Sprintf("order %d total %v, lines sum %v", o.ID, o.TotalAmount, sum), nil
					}
				}
				return "", nil
			},
		},
	}
}

// Final returns the invariants that hold once every actor has stopped.
func Final(b Backend, initial map[int64]int, clients []*shop.Context, roots []*ui.Document) []Oracle {
	return []Oracle{
		{
			Name: "O3_stock_conserved",
			Check: func(context.Context) (string, error) {
				sold := map[int64]int{}
				for _, o := range b.Orders() {
					for _, it := range o.Items {
						sold[it.ProductID] += it.Quantity
					}
				}
				for _, p := range b.Products() {
					if got := p.Quantity + sold[p.ID]; got != initial[p.ID] {
						return fmt.Sprintf("product %d: stock %d + sold %d != %d", p.ID, p.Quantity, sold[p.ID], initial[p.ID]), nil
					}
				}
				return "", nil
			},
		},
		{
			Name: "O4_badge_matches_cart",
			Check: func(ctx context.Context) (string, error) {
				for i, c := range clients {
					n, err := c.Cart.Count(ctx)
					if err != nil {
						return "", err
					}
					el := roots[i].ElementByID(ui.BadgeID).State()
					if el.Visible != (n > 0) || (n > 0 && el.Text != fmt.Sprint(n)) {
						return fmt.Sprintf("client %d: cart %d, badge %+v", i, n, el), nil
					}
				}
				return "", nil
			},
		},
		{
			Name: "O5_loader_released",
			Check: func(context.Context) (string, error) {
				for i, c := range clients {
					if n := c.Feedback.Loader.InFlight(); n != 0 || c.Feedback.Loader.Visible() {
						return fmt.Sprintf("client %d: %d calls still hold the overlay", i, n), nil
					}
				}
				return "", nil
			},
		},
	}
}

// Run evaluates oracles in order and reports the first violation.
func Run(ctx context.Context, oracles []Oracle) (name, detail string, err error) {
	for _, o := range oracles {
		d, cerr := o.Check(ctx)
		if cerr != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, cerr)
		}
		if d != "" {
			return o.Name, d, nil
		}
	}
	return "", "", nil
}
