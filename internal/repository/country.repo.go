package repository

import (
	"context"
	"errors"
	"fmt"

	"country-service/internal/domain"
	"country-service/internal/query"
	xerrors "country-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CountryRepository interface {
	FindAll(ctx context.Context) ([]*domain.Country, error)
	Find(ctx context.Context, spec query.Spec) ([]*domain.Country, error)
	FindByName(ctx context.Context, name string) (*domain.Country, error)
	UpsertAll(ctx context.Context, countries []*domain.Country) error
	DeleteByName(ctx context.Context, name string) (int64, error)
	Count(ctx context.Context) (int64, error)
	TopByEstimatedGDP(ctx context.Context, n int) ([]domain.CountryGDP, error)
}

type countryRepo struct {
	db *pgxpool.Pool
}

func NewCountryRepo(db *pgxpool.Pool) CountryRepository {
	return &countryRepo{db: db}
}

const upsertCountrySQL = `
	INSERT INTO countries (
		id, name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	ON CONFLICT (id) DO UPDATE SET
		name=EXCLUDED.name,
		capital=EXCLUDED.capital,
		region=EXCLUDED.region,
		population=EXCLUDED.population,
		currency_code=EXCLUDED.currency_code,
		exchange_rate=EXCLUDED.exchange_rate,
		estimated_gdp=EXCLUDED.estimated_gdp,
		flag_url=EXCLUDED.flag_url,
		last_refreshed_at=EXCLUDED.last_refreshed_at
`

// UpsertAll writes the whole batch in one transaction; nothing is visible unless every row succeeds.
func (r *countryRepo) UpsertAll(ctx context.Context, countries []*domain.Country) (err error) {
	if len(countries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, c := range countries {
		batch.Queue(upsertCountrySQL,
			c.ID, c.Name, c.Capital, c.Region, c.Population,
			c.CurrencyCode, c.ExchangeRate, c.EstimatedGDP, c.FlagURL, c.LastRefreshedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err = br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upsert country %q (sqlstate %s): %w",
				countries[i].Name, xerrors.ParsePGErrorCode(err), err)
		}
	}
	if err = br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *countryRepo) FindAll(ctx context.Context) ([]*domain.Country, error) {
	return r.Find(ctx, query.Spec{})
}

func (r *countryRepo) Find(ctx context.Context, spec query.Spec) ([]*domain.Country, error) {
	sql, args := buildListQuery(spec)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	countries := make([]*domain.Country, 0)
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// FindByName matches case-insensitively, mirroring the uniqueness index.
func (r *countryRepo) FindByName(ctx context.Context, name string) (*domain.Country, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+countryColumns+`
		FROM countries
		WHERE lower(name) = lower($1)
	`, name)

	c, err := scanCountry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *countryRepo) DeleteByName(ctx context.Context, name string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM countries WHERE name = $1`, name)
	if err != nil {
		return 0, fmt.Errorf("delete country %q: %w", name, err)
	}
	return tag.RowsAffected(), nil
}

func (r *countryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM countries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count countries: %w", err)
	}
	return n, nil
}

func (r *countryRepo) TopByEstimatedGDP(ctx context.Context, n int) ([]domain.CountryGDP, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, estimated_gdp
		FROM countries
		ORDER BY estimated_gdp DESC NULLS LAST, name ASC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("top countries by gdp: %w", err)
	}
	defer rows.Close()

	var out []domain.CountryGDP
	for rows.Next() {
		var g domain.CountryGDP
		if err := rows.Scan(&g.Name, &g.EstimatedGDP); err != nil {
			return nil, fmt.Errorf("scan gdp row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanCountry(row pgx.Row) (*domain.Country, error) {
	c := &domain.Country{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Capital,
		&c.Region,
		&c.Population,
		&c.CurrencyCode,
		&c.ExchangeRate,
		&c.EstimatedGDP,
		&c.FlagURL,
		&c.LastRefreshedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan country: %w", err)
	}
	return c, nil
}
