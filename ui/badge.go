package ui

import (
	"context"
	"strconv"

	"shopfront/state"
)

// BadgeID identifies the cart counter element. The page provides it.
const BadgeID = "cartBadge"

// CartReader is the cart source for Badge.Update.
type CartReader interface {
	Cart(ctx context.Context) (state.Cart, error)
}

// Badge shows the total cart quantity; it is hidden when the cart is empty.
type Badge struct {
	surface Surface
}

// NewBadge returns a Badge drawing on s.
func NewBadge(s Surface) *Badge {
	return &Badge{surface: s}
}

// Show renders total. Without a badge element on the surface it does nothing.
func (b *Badge) Show(total int) {
	el := b.surface.ElementByID(BadgeID)
	if el == nil {
		return
	}
	el.SetText(strconv.Itoa(total))
	el.SetVisible(total > 0)
}

// CartChanged implements state.CartObserver.
func (b *Badge) CartChanged(_ context.Context, cart state.Cart) {
	b.Show(cart.TotalQuantity())
}

// Update recomputes the badge from the stored cart.
func (b *Badge) Update(ctx context.Context, r CartReader) error {
	cart, err := r.Cart(ctx)
	if err != nil {
		return err
	}
	b.Show(cart.TotalQuantity())
	return nil
}

// MountBadge appends a hidden, empty badge element when s has none.
func MountBadge(s Surface) *Element {
	if el := s.ElementByID(BadgeID); el != nil {
		return el
	}
	el := NewElement(BadgeID, "badge")
	el.SetText("0")
	el.SetVisible(false)
	s.Append(el)
	return el
}
