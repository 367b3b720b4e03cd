package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS countries (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		capital           TEXT,
		region            TEXT,
		population        BIGINT NOT NULL DEFAULT 0 CHECK (population >= 0),
		currency_code     TEXT,
		exchange_rate     NUMERIC(24,2),
		estimated_gdp     NUMERIC(32,0) CHECK (estimated_gdp >= 0),
		flag_url          TEXT,
		last_refreshed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS countries_name_lower_uidx ON countries (lower(name))`,
	`CREATE INDEX IF NOT EXISTS countries_region_idx ON countries (region)`,
	`CREATE INDEX IF NOT EXISTS countries_currency_code_idx ON countries (currency_code)`,
	`CREATE INDEX IF NOT EXISTS countries_estimated_gdp_idx ON countries (estimated_gdp DESC NULLS LAST)`,
	`CREATE TABLE IF NOT EXISTS app_metadata (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
