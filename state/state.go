// Package state holds the client's persistent state: the session token, the
// signed-in user's profile and the shopping cart.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Keys of the persisted layout.
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyCart  = "cart"
)

// ErrMalformedState signals a persisted value that cannot be parsed back
// into its type.
var ErrMalformedState = errors.New("state: malformed persisted value")

// ErrInvalidCart signals a SaveCart with a cart that Cart would reject.
var ErrInvalidCart = errors.New("state: invalid cart")

// CartObserver is notified after the cart is saved or cleared.
type CartObserver interface {
	CartChanged(ctx context.Context, cart Cart)
}

// State exposes typed accessors over a Store.
type State struct {
	store Store

	mu        sync.RWMutex
	observers []CartObserver
}

// New wraps store.
func New(store Store, observers ...CartObserver) *State {
	return &State{store: store, observers: observers}
}

// Observe registers o for cart change notifications.
func (s *State) Observe(o CartObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Token returns the session token, or "" when signed out.
func (s *State) Token(ctx context.Context) (string, error) {
	v, _, err := s.store.Get(ctx, KeyToken)
	if err != nil {
		return "", fmt.Errorf("state: get token: %w", err)
	}
	return v, nil
}

// CurrentUser returns the stored profile, or the zero profile when none is stored.
func (s *State) CurrentUser(ctx context.Context) (UserProfile, error) {
	v, ok, err := s.store.Get(ctx, KeyUser)
	if err != nil {
		return UserProfile{}, fmt.Errorf("state: get user: %w", err)
	}
	if !ok || v == "" {
		return UserProfile{}, nil
	}
	var u UserProfile
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		return UserProfile{}, fmt.Errorf("%w: %s: %v", ErrMalformedState, KeyUser, err)
	}
	return u, nil
}

// SetSession stores the token and profile of a freshly signed-in user.
func (s *State) SetSession(ctx context.Context, token string, user UserProfile) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("state: encode user: %w", err)
	}
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("state: set token: %w", err)
	}
	if err := s.store.Set(ctx, KeyUser, string(b)); err != nil {
		return fmt.Errorf("state: set user: %w", err)
	}
	return nil
}

// ClearSession removes the token and the profile.
func (s *State) ClearSession(ctx context.Context) error {
	errTok := s.store.Delete(ctx, KeyToken)
	errUser := s.store.Delete(ctx, KeyUser)
	if err := errors.Join(errTok, errUser); err != nil {
		return fmt.Errorf("state: clear session: %w", err)
	}
	return nil
}

// Cart returns the stored cart, or an empty cart when none is stored.
func (s *State) Cart(ctx context.Context) (Cart, error) {
	v, ok, err := s.store.Get(ctx, KeyCart)
	if err != nil {
		return nil, fmt.Errorf("state: get cart: %w", err)
	}
	if !ok || v == "" {
		return Cart{}, nil
	}
	var c Cart
	if err := json.Unmarshal([]byte(v), &c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedState, KeyCart, err)
	}
	if c == nil {
		c = Cart{}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedState, KeyCart, err)
	}
	return c, nil
}

// SaveCart persists cart and notifies observers. A cart breaking the line
// invariants is refused and nothing is written.
func (s *State) SaveCart(ctx context.Context, cart Cart) error {
	if cart == nil {
		cart = Cart{}
	}
	if err := cart.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCart, err)
	}
	b, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("state: encode cart: %w", err)
	}
	if err := s.store.Set(ctx, KeyCart, string(b)); err != nil {
		return fmt.Errorf("state: set cart: %w", err)
	}
	s.notify(ctx, cart)
	return nil
}

// ClearCart removes the cart key and notifies observers.
func (s *State) ClearCart(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyCart); err != nil {
		return fmt.Errorf("state: clear cart: %w", err)
	}
	s.notify(ctx, Cart{})
	return nil
}

func (s *State) notify(ctx context.Context, cart Cart) {
	s.mu.RLock()
	obs := append([]CartObserver(nil), s.observers...)
	s.mu.RUnlock()
	for _, o := range obs {
		o.CartChanged(ctx, cart.Clone())
	}
}
