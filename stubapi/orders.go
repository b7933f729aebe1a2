package stubapi

import (
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopfront/catalog"
)

// OrderBook records placed orders.
type OrderBook struct {
	inv *Inventory
	now func() time.Time

	mu     sync.RWMutex
	orders []catalog.Order
	nextID int64
}

// NewOrderBook returns an empty OrderBook drawing stock from inv.
func NewOrderBook(inv *Inventory, now func() time.Time) *OrderBook {
	if now == nil {
		now = time.Now
	}
	return &OrderBook{inv: inv, now: now, nextID: 1}
}

// Place validates req, reserves its stock and records a pending order.
func (b *OrderBook) Place(req catalog.CheckoutRequest) (catalog.Order, error) {
	if err := req.Customer.Validate(); err != nil {
		return catalog.Order{}, badRequest("Customer name, email, phone and address are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return catalog.Order{}, badRequest("Invalid email format")
	}

	items, total, err := b.inv.Reserve(req.CartItems)
	if err != nil {
		return catalog.Order{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	o := catalog.Order{
		Customer:    req.Customer,
		ID:          b.nextID,
		Reference:   uuid.NewString(),
		Status:      catalog.StatusPending,
		TotalAmount: total,
		CreatedAt:   b.now().Format(timeLayout),
		Items:       items,
	}
	b.nextID++
	b.orders = append(b.orders, o)
	return o, nil
}

// Track returns the orders placed with email, newest first.
func (b *OrderBook) Track(email string) []catalog.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []catalog.Order{}
	for i := len(b.orders) - 1; i >= 0; i-- {
		if strings.EqualFold(b.orders[i].Email, email) {
			out = append(out, b.orders[i])
		}
	}
	return out
}

// All returns every order, newest first.
func (b *OrderBook) All() []catalog.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]catalog.Order, 0, len(b.orders))
	for i := len(b.orders) - 1; i >= 0; i-- {
		out = append(out, b.orders[i])
	}
	return out
}
