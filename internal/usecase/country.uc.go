package usecase

import (
	"context"
	"fmt"

	"country-service/internal/domain"
	"country-service/internal/query"
	"country-service/internal/repository"
	xerrors "country-service/pkg/xerrors"

	"go.uber.org/zap"
)

// Reconciler runs one reconciliation.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// ArtifactSource returns the stored summary image.
type ArtifactSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type CountryUsecase struct {
	repo       repository.CountryRepository
	meta       repository.MetadataRepository
	reconciler Reconciler
	artifacts  ArtifactSource
	logger     *zap.Logger
}

func NewCountryUsecase(
	repo repository.CountryRepository,
	meta repository.MetadataRepository,
	reconciler Reconciler,
	artifacts ArtifactSource,
	logger *zap.Logger,
) *CountryUsecase {
	return &CountryUsecase{
		repo:       repo,
		meta:       meta,
		reconciler: reconciler,
		artifacts:  artifacts,
		logger:     logger,
	}
}

// ReconcileNow refreshes the store from the providers and returns the number of records written.
func (u *CountryUsecase) ReconcileNow(ctx context.Context) (int, error) {
	return u.reconciler.Reconcile(ctx)
}

// Query lists countries matching the raw filter parameters. Bad input degrades, it never fails.
func (u *CountryUsecase) Query(ctx context.Context, filters map[string]string) ([]*domain.Country, error) {
	spec := query.Build(filters)
	countries, err := u.repo.Find(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	return countries, nil
}

// GetByName finds a country case-insensitively and rejects records with missing computed fields.
func (u *CountryUsecase) GetByName(ctx context.Context, name string) (*domain.Country, error) {
	c, err := u.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if verr := validateCountry(c); verr != nil {
		u.logger.Debug("stored country failed validation", zap.String("name", c.Name), zap.Error(verr))
		return nil, verr
	}
	return c, nil
}

func validateCountry(c *domain.Country) error {
	fields := map[string]string{}
	if c.Population < 0 {
		fields["population"] = "Field 'population' is missing"
	}
	if domain.StringValue(c.CurrencyCode) == "" {
		fields["currency_code"] = "Field 'currency_code' is missing or empty"
	}
	if !c.ExchangeRate.Valid {
		fields["exchange_rate"] = "Field 'exchange_rate' is missing"
	}
	if !c.EstimatedGDP.Valid {
		fields["estimated_gdp"] = "Field 'estimated_gdp' is missing"
	}
	if len(fields) == 0 {
		return nil
	}
	return &xerrors.ValidationError{Fields: fields}
}

// DeleteByName removes the record with exactly this name.
func (u *CountryUsecase) DeleteByName(ctx context.Context, name string) error {
	n, err := u.repo.DeleteByName(ctx, name)
	if err != nil {
		return fmt.Errorf("delete country: %w", err)
	}
	if n == 0 {
		return xerrors.ErrNotFound
	}
	u.logger.Info("country deleted", zap.String("name", name))
	return nil
}

func (u *CountryUsecase) GetSummary(ctx context.Context) (domain.Summary, error) {
	total, err := u.repo.Count(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("count countries: %w", err)
	}
	last, err := repository.LastRefreshedAt(ctx, u.meta)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summary{TotalCountries: total, LastRefreshedAt: last}, nil
}

// GetArtifact returns xerrors.ErrNotFound until a summary has been generated.
func (u *CountryUsecase) GetArtifact(ctx context.Context) ([]byte, error) {
	return u.artifacts.Fetch(ctx)
}
