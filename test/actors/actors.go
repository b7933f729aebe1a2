// Package actors drives storefront clients with randomised workloads.
package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"shopfront/apiclient"
	"shopfront/catalog"
	"shopfront/shop"
)

// Products are the ids actors pick from.
var Products = []string{"1", "2", "3", "4"}

// tolerable reports errors that are expected under contention: stock
// rejections and sessions revoked underneath the caller.
func tolerable(err error) bool {
	if err == nil || errors.Is(err, apiclient.ErrSessionExpired) {
		return true
	}
	switch apiclient.StatusOf(err) {
	case 400, 404:
		return true
	}
	return false
}

func stopped(ctx context.Context, stop <-chan struct{}) (bool, error) {
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-stop:
		return true, nil
	default:
		return false, nil
	}
}

// Shopper mutates its cart at random and checks out from time to time.
func Shopper(ctx context.Context, c *shop.Context, seed int64, customer catalog.Customer, stop <-chan struct{}) error {
	rng := rand.New(rand.NewSource(seed))
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		id := Products[rng.Intn(len(Products))]
		var err error
		switch n := rng.Intn(10); {
		case n < 5:
			err = c.Cart.Add(ctx, id, 1+rng.Intn(3))
		case n < 7:
			err = c.Cart.UpdateQuantity(ctx, id, rng.Intn(4))
		case n < 9:
			err = c.Cart.Remove(ctx, id)
		default:
			_, err = c.Catalog.Checkout(ctx, customer, c.Cart)
			if errors.Is(err, catalog.ErrEmptyCart) {
				err = nil
			}
		}
		if !tolerable(err) {
			return fmt.Errorf("shopper: %w", err)
		}
		time.Sleep(time.Duration(1+rng.Intn(5)) * time.Millisecond)
	}
}

// Browser lists, views and prices products.
func Browser(ctx context.Context, c *shop.Context, seed int64, stop <-chan struct{}) error {
	rng := rand.New(rand.NewSource(seed))
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		var err error
		switch rng.Intn(3) {
		case 0:
			_, err = c.Catalog.List(ctx, catalog.Filter{OnSale: rng.Intn(2) == 0})
		case 1:
			_, err = c.Catalog.Get(ctx, strconv.Itoa(1+rng.Intn(5)))
		default:
			cart, cerr := c.Cart.Items(ctx)
			if cerr != nil {
				return fmt.Errorf("browser: %w", cerr)
			}
			_, err = c.Catalog.View(ctx, cart)
		}
		if !tolerable(err) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("browser: %w", err)
		}
		time.Sleep(time.Duration(1+rng.Intn(5)) * time.Millisecond)
	}
}

// SessionCycler signs in, calls an authenticated endpoint and occasionally
// signs out. A revoked session is answered by signing in again.
func SessionCycler(ctx context.Context, c *shop.Context, seed int64, email, password string, stop <-chan struct{}) error {
	rng := rand.New(rand.NewSource(seed))
	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}
		token, err := c.State.Token(ctx)
		if err != nil {
			return fmt.Errorf("session cycler: %w", err)
		}
		switch {
		case token == "":
			_, err = c.Session.Login(ctx, email, password)
		case rng.Intn(10) == 0:
			err = c.Session.Logout(ctx)
		default:
			_, err = c.API.Get(ctx, "/student/profile")
		}
		if !tolerable(err) {
			return fmt.Errorf("session cycler: %w", err)
		}
		time.Sleep(time.Duration(2+rng.Intn(8)) * time.Millisecond)
	}
}
