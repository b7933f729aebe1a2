package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"shopfront/auth"
	"shopfront/catalog"
	"shopfront/obs"
	"shopfront/shop"
	"shopfront/state"
	"shopfront/stubapi"
	"shopfront/test/actors"
	"shopfront/test/chaos"
	"shopfront/test/oracles"
	"shopfront/ui"
)

var (
	flDuration    = flag.Duration("duration", 3*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 4, "number of concurrent clients")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
)

type backendView struct {
	srv *stubapi.Server
}

func (b backendView) Products() []catalog.Product { return b.srv.Inventory().All() }
func (b backendView) Orders() []catalog.Order     { return b.srv.Orders().All() }

const (
	studentEmail    = "student@shopfront.test"
	studentPassword = "student-pass"
)

func TestStorefrontConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test skipped in -short mode")
	}
	obs.Discard()
	seed := *flSeed

	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+30*time.Second)
	defer cancel()

	svc := auth.NewService(auth.NewMemoryRepository(), "stress-secret")
	if err := svc.Seed(ctx, stubapi.SeedAccounts()...); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
	products := stubapi.SeedProducts()
	for i := range products[:4] {
		products[i].Quantity = 500
	}
	srv := stubapi.NewServer(stubapi.Options{Auth: svc, Inventory: stubapi.NewInventory(nil, products...)})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	backend := backendView{srv: srv}

	initial := map[int64]int{}
	for _, p := range backend.Products() {
		initial[p.ID] = p.Quantity
	}

	clients := make([]*shop.Context, *flConcurrency)
	roots := make([]*ui.Document, *flConcurrency)
	for i := range clients {
		roots[i] = ui.NewDocument()
		ui.MountBadge(roots[i])
		clients[i] = shop.New(shop.Options{
			BaseURL:      ts.URL + "/api",
			Store:        state.NewMemoryStore(),
			Root:         roots[i],
			ToastDisplay: time.Millisecond,
			ToastExit:    time.Millisecond,
		})
	}
	held := func(ctx context.Context) []string {
		var out []string
		for _, c := range clients {
			if tok, err := c.State.Token(ctx); err == nil && tok != "" {
				out = append(out, tok)
			}
		}
		return out
	}

	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})
	for i, c := range clients {
		customer := catalog.Customer{
			Name:    fmt.Sprintf("Shopper %d", i),
			Email:   fmt.Sprintf("shopper%d@example.com", i),
			Phone:   "555",
			Address: "1 Main St",
		}
		s := seed + int64(i)*3
		g.Go(func() error { return actors.Shopper(ctx2, c, s, customer, stop) })
		g.Go(func() error { return actors.Browser(ctx2, c, s+1, stop) })
		g.Go(func() error { return actors.SessionCycler(ctx2, c, s+2, studentEmail, studentPassword, stop) })
	}
	go chaos.RevokeRandomSession(ctx2, svc, held, seed, stop)

	live := oracles.Live(backend)
	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx2.Done():
			break loop
		case <-ticker.C:
			name, detail, err := oracles.Run(ctx2, live)
			if err != nil {
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				close(stop)
				t.Fatalf("Oracle %s failed: %s (seed=%d)", name, detail, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("actors errored: %v (seed=%d)", err, seed)
	}
	for _, c := range clients {
		c.Feedback.Notifier.Wait()
	}

	final := append(live, oracles.Final(backend, initial, clients, roots)...)
	name, detail, err := oracles.Run(ctx, final)
	if err != nil {
		t.Fatalf("oracle error: %v", err)
	}
	if name != "" {
		t.Fatalf("Oracle %s failed: %s (seed=%d)", name, detail, seed)
	}
	if len(backend.Orders()) == 0 {
		t.Logf("no orders placed in %s (seed=%d)", *flDuration, seed)
	}
}
