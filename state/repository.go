package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on the client_state table. Each namespace is an
// independent key space, one per profile or device.
type PGStore struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPGStore creates a PostgreSQL-backed store scoped to namespace.
func NewPGStore(pool *pgxpool.Pool, namespace string) *PGStore {
	return &PGStore{pool: pool, namespace: namespace}
}

// Get fetches the value stored under key.
func (r *PGStore) Get(ctx context.Context, key string) (string, bool, error) {
	const selectSQL = `
		SELECT value
		FROM client_state
		WHERE namespace = $1 AND key = $2
	`

	var value string
	err := r.pool.QueryRow(ctx, selectSQL, r.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("state: pg get %s: %w", key, err)
	}

	return value, true, nil
}

// Set upserts the value under key.
func (r *PGStore) Set(ctx context.Context, key, value string) error {
	const upsertSQL = `
		INSERT INTO client_state (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, upsertSQL, r.namespace, key, value); err != nil {
		return fmt.Errorf("state: pg set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *PGStore) Delete(ctx context.Context, key string) error {
	const deleteSQL = `
		DELETE FROM client_state
		WHERE namespace = $1 AND key = $2
	`

	if _, err := r.pool.Exec(ctx, deleteSQL, r.namespace, key); err != nil {
		return fmt.Errorf("state: pg delete %s: %w", key, err)
	}
	return nil
}
