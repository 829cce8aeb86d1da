package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the initial schema migration.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id           BIGSERIAL PRIMARY KEY,
			provider_sub TEXT NOT NULL UNIQUE,
			email        TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS usage_records (
			id               BIGSERIAL PRIMARY KEY,
			user_id          BIGINT,
			guest_id         TEXT,
			plan             TEXT NOT NULL DEFAULT 'free',
			download_count   INT NOT NULL DEFAULT 0,
			extraction_count INT NOT NULL DEFAULT 0,
			summary_count    INT NOT NULL DEFAULT 0,
			last_reset_month INT NOT NULL,
			last_reset_year  INT NOT NULL,
			expire_time      TIMESTAMPTZ,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_usage_user_id
			ON usage_records(user_id) WHERE user_id IS NOT NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS idx_usage_guest_id
			ON usage_records(guest_id) WHERE guest_id IS NOT NULL;

		CREATE TABLE IF NOT EXISTS payment_orders (
			order_no      TEXT PRIMARY KEY,
			status        TEXT NOT NULL DEFAULT 'pending',
			business_type TEXT NOT NULL,
			sku           TEXT NOT NULL,
			plan          TEXT NOT NULL,
			amount_cents  BIGINT NOT NULL,
			months        INT NOT NULL DEFAULT 1,
			user_id       BIGINT,
			guest_id      TEXT,
			email         TEXT,
			checkout_url  TEXT,
			provider_ref  TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_orders_provider_ref ON payment_orders(provider_ref);
		CREATE INDEX IF NOT EXISTS idx_orders_user_id ON payment_orders(user_id);

		CREATE TABLE IF NOT EXISTS surveys (
			id         BIGSERIAL PRIMARY KEY,
			user_id    BIGINT NOT NULL UNIQUE,
			payload    TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
