// Package catalog browses products, prices the cart and places orders
// through the public storefront endpoints.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"shopfront/apiclient"
	"shopfront/obs"
	"shopfront/state"
	"shopfront/ui"
)

// OrderPlacedMessage is the toast shown after a successful checkout.
const OrderPlacedMessage = "Order placed successfully"

// viewConcurrency bounds the product lookups of View.
const viewConcurrency = 4

// ErrEmptyCart signals a checkout with nothing in the cart.
var ErrEmptyCart = errors.New("catalog: cart is empty")

// API is the backend surface the catalog uses.
type API interface {
	Call(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error)
}

// Cart is the cart a checkout consumes.
type Cart interface {
	Items(ctx context.Context) (state.Cart, error)
	// Consume removes the ordered lines, keeping later additions.
	Consume(ctx context.Context, ordered state.Cart) error
}

// Notifier shows a toast.
type Notifier interface {
	Notify(message string, kind ui.Kind)
}

// Catalog wraps the public product and order endpoints.
type Catalog struct {
	api      API
	notifier Notifier
}

// New returns a Catalog. notifier may be nil.
func New(api API, notifier Notifier) *Catalog {
	return &Catalog{api: api, notifier: notifier}
}

// List returns the active products matching f.
func (c *Catalog) List(ctx context.Context, f Filter) ([]Product, error) {
	endpoint := "/public/products"
	if q := f.Query(); len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	return call[[]Product](ctx, c.api, http.MethodGet, endpoint, nil)
}

// Get returns one product.
func (c *Catalog) Get(ctx context.Context, id string) (Product, error) {
	return call[Product](ctx, c.api, http.MethodGet, "/public/products/"+url.PathEscape(id), nil)
}

// Categories returns the distinct product categories.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, c.api, http.MethodGet, "/public/categories", nil)
}

// Line is a cart line resolved to its product.
type Line struct {
	Item     state.CartItem
	Product  Product
	Subtotal float64
}

// CartView is a priced cart.
type CartView struct {
	Lines []Line
	Count int
	Total float64
}

// View resolves every line of cart to its product and prices it at the
// effective price. Lines keep the cart order. Lookups run concurrently;
// the first failure cancels the rest and is returned.
func (c *Catalog) View(ctx context.Context, cart state.Cart) (CartView, error) {
	lines := make([]Line, len(cart))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(viewConcurrency)
	for i, it := range cart {
		g.Go(func() error {
			p, err := c.Get(gctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("catalog: view product %s: %w", it.ProductID, err)
			}
			lines[i] = Line{Item: it, Product: p, Subtotal: p.EffectivePrice() * float64(it.Quantity)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CartView{}, err
	}

	v := CartView{Lines: lines}
	for _, l := range lines {
		v.Count += l.Item.Quantity
		v.Total += l.Subtotal
	}
	return v, nil
}

// Checkout places an order for the contents of cart. On success the ordered
// lines leave the cart and a confirmation toast is shown; on failure the cart
// is kept.
func (c *Catalog) Checkout(ctx context.Context, customer Customer, cart Cart) (Order, error) {
	if err := customer.Validate(); err != nil {
		return Order{}, err
	}
	items, err := cart.Items(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("catalog: checkout: %w", err)
	}
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}

	order, err := call[Order](ctx, c.api, http.MethodPost, "/public/orders", CheckoutRequest{Customer: customer, CartItems: items})
	if err != nil {
		return Order{}, err
	}
	if err := cart.Consume(ctx, items); err != nil {
		return order, fmt.Errorf("catalog: checkout: %w", err)
	}
	obs.Logger.Info("order_placed", "order_id", order.ID, "total", order.TotalAmount, "lines", len(items))
	if c.notifier != nil {
		c.notifier.Notify(OrderPlacedMessage, ui.KindSuccess)
	}
	return order, nil
}

// TrackOrders returns the orders placed with email, newest first.
func (c *Catalog) TrackOrders(ctx context.Context, email string) ([]Order, error) {
	if email == "" {
		return nil, ErrMissingCustomer
	}
	q := url.Values{"email": {email}}
	return call[[]Order](ctx, c.api, http.MethodGet, "/public/orders/track?"+q.Encode(), nil)
}

func call[T any](ctx context.Context, api API, method, endpoint string, body any) (T, error) {
	raw, err := api.Call(ctx, method, endpoint, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return apiclient.Decode[T](raw)
}
