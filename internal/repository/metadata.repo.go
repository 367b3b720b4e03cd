package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"country-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MetadataRepository is a small key-value table for application state.
type MetadataRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type metadataRepo struct {
	db *pgxpool.Pool
}

func NewMetadataRepo(db *pgxpool.Pool) MetadataRepository {
	return &metadataRepo{db: db}
}

func (r *metadataRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(ctx, `SELECT value FROM app_metadata WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, true, nil
}

func (r *metadataRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO app_metadata (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			value=EXCLUDED.value,
			updated_at=now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// LastRefreshedAt returns nil when no reconciliation has ever succeeded.
func LastRefreshedAt(ctx context.Context, repo MetadataRepository) (*time.Time, error) {
	v, ok, err := repo.Get(ctx, domain.MetaLastRefreshedAt)
	if err != nil || !ok {
		return nil, err
	}
	t, err := time.Parse(domain.MetaTimeLayout, v)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", domain.MetaLastRefreshedAt, err)
	}
	return &t, nil
}

func SetLastRefreshedAt(ctx context.Context, repo MetadataRepository, t time.Time) error {
	return repo.Set(ctx, domain.MetaLastRefreshedAt, t.UTC().Format(domain.MetaTimeLayout))
}
