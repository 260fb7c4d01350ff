package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

// Schema cria as tabelas de execuções e de produtos extraídos.
const Schema = `
CREATE TABLE IF NOT EXISTS extraction_runs (
	id           UUID PRIMARY KEY,
	filename     TEXT NOT NULL,
	model        TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	raw_response TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS extracted_products (
	id          UUID PRIMARY KEY,
	run_id      UUID NOT NULL REFERENCES extraction_runs(id) ON DELETE CASCADE,
	position    INT NOT NULL,
	brand_name  TEXT NOT NULL DEFAULT '',
	brand       TEXT,
	product     TEXT,
	price_value NUMERIC(14,2),
	price_text  TEXT,
	conditions  TEXT,
	is_valid    BOOLEAN NOT NULL,
	UNIQUE (run_id, position)
);
`

func New(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pgx pool: %w", err)
	}
	return pool, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
