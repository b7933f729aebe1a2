package shop

import (
	"context"
	"fmt"

	"shopfront/config"
	"shopfront/db"
	"shopfront/state"
)

// OpenStore returns the state store selected by cfg and a func releasing it.
func OpenStore(ctx context.Context, cfg config.Config) (state.Store, func(), error) {
	switch cfg.StateBackend {
	case config.BackendMemory:
		return state.NewMemoryStore(), func() {}, nil
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("shop: open store: %w", err)
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("shop: open store: %w", err)
		}
		return state.NewPGStore(pool, cfg.StateNamespace), pool.Close, nil
	default:
		return state.NewFileStore(cfg.StatePath), func() {}, nil
	}
}
