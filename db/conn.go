// Package db owns the PostgreSQL connection pool and schema.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables backing state.PGStore and auth.PGRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS client_state (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
);

CREATE TABLE IF NOT EXISTS stub_users (
	id            BIGSERIAL   PRIMARY KEY,
	email         TEXT        NOT NULL UNIQUE,
	name          TEXT        NOT NULL,
	password_hash TEXT        NOT NULL,
	role          TEXT        NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// NewPool constructs a pgx connection pool using the provided connection string.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	if connString == "" {
		return nil, fmt.Errorf("db: empty connection string")
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("db: parse config: %w", err)
	}
	// The client issues a handful of small statements per command.
	cfg.MaxConns = 4

	return pgxpool.NewWithConfig(ctx, cfg)
}

// EnsureSchema applies Schema. It is idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("db: ensure schema: %w", err)
	}
	return nil
}
