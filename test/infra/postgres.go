// Package infra boots throwaway PostgreSQL instances for integration tests.
package infra

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"shopfront/db"
)

// DSNEnv names a variable pointing at an existing database to reuse instead
// of starting a container.
const DSNEnv = "SHOP_TEST_PG_DSN"

// Harness owns the lifecycle of the Postgres test container and pgx pool.
type Harness struct {
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	dsn       string
}

// NewHarness returns a harness with db.Schema applied. It reuses
// SHOP_TEST_PG_DSN when set, otherwise boots a Postgres 16 container; the test
// is skipped when neither is possible.
func NewHarness(ctx context.Context, t *testing.T) *Harness {
	t.Helper()

	h := &Harness{dsn: os.Getenv(DSNEnv)}
	if h.dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)

		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("shopfront"),
			postgres.WithUsername("shopfront"),
			postgres.WithPassword("shopfront"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			t.Skipf("start postgres container: %v", err)
		}
		h.container = pgContainer

		dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			h.Close(ctx)
			t.Fatalf("resolve connection string: %v", err)
		}
		h.dsn = dsn
	}

	pool, err := db.NewPool(ctx, h.dsn)
	if err != nil {
		h.Close(ctx)
		t.Fatalf("create pool: %v", err)
	}
	h.pool = pool

	if err := db.EnsureSchema(ctx, pool); err != nil {
		h.Close(ctx)
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.Close(ctx)
	})
	return h
}

// Pool exposes the configured pgx pool.
func (h *Harness) Pool() *pgxpool.Pool {
	return h.pool
}

// DSN returns the connection string.
func (h *Harness) DSN() string {
	return h.dsn
}

// Namespace returns a namespace unique to this call, so reused databases do
// not leak rows between runs.
func (h *Harness) Namespace(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// Close tears down resources.
func (h *Harness) Close(ctx context.Context) {
	if h.pool != nil {
		h.pool.Close()
		h.pool = nil
	}
	if h.container != nil {
		_ = h.container.Terminate(ctx)
		h.container = nil
	}
}
