package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"country-service/internal/artifact"
	"country-service/internal/domain"
	"country-service/internal/repository"
	"country-service/internal/repository/memrepo"
	"country-service/internal/summary"
	xerrors "country-service/pkg/xerrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubReconciler struct {
	n   int
	err error
}

func (s stubReconciler) Reconcile(context.Context) (int, error) { return s.n, s.err }

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func seed() *memrepo.Countries {
	return memrepo.NewCountries(
		domain.Country{ID: "cty_1", Name: "Nigeria", Region: domain.StringPtr("Africa"), Population: 206_139_589,
			CurrencyCode: domain.StringPtr("NGN"), ExchangeRate: dec("1600.46"), EstimatedGDP: dec("250000000")},
		domain.Country{ID: "cty_2", Name: "Ghana", Region: domain.StringPtr("Africa"), Population: 31_072_940,
			CurrencyCode: domain.StringPtr("GHS"), ExchangeRate: dec("15.20"), EstimatedGDP: dec("3000000000")},
		domain.Country{ID: "cty_3", Name: "France", Region: domain.StringPtr("Europe"), Population: 67_391_582,
			CurrencyCode: domain.StringPtr("EUR"), ExchangeRate: dec("0.92"), EstimatedGDP: dec("100000000000")},
		domain.Country{ID: "cty_4", Name: "Antarctica", Region: domain.StringPtr("Polar"), Population: 1000,
			EstimatedGDP: dec("0")},
	)
}

func newUsecase(t *testing.T, repo *memrepo.Countries, meta *memrepo.Metadata) *CountryUsecase {
	t.Helper()
	gen := summary.NewGenerator(artifact.NewFileSink(filepath.Join(t.TempDir(), "summary.png")), zap.NewNop())
	return NewCountryUsecase(repo, meta, stubReconciler{n: 4}, gen, zap.NewNop())
}

func names(cs []*domain.Country) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestQuery(t *testing.T) {
	uc := newUsecase(t, seed(), memrepo.NewMetadata())
	ctx := context.Background()

	tests := []struct {
		name    string
		filters map[string]string
		want    []string
	}{
		{"region and gdp desc", map[string]string{"region": "Africa", "sort": "gdp_desc"}, []string{"Ghana", "Nigeria"}},
		{"currency", map[string]string{"currency": "EUR"}, []string{"France"}},
		{"population asc", map[string]string{"sort": "population_asc"}, []string{"Antarctica", "Ghana", "France", "Nigeria"}},
		{"bogus sort keeps filters", map[string]string{"region": "Europe", "sort": "bogus"}, []string{"France"}},
		{"no match", map[string]string{"region": "Mars"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.Query(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestGetByName(t *testing.T) {
	uc := newUsecase(t, seed(), memrepo.NewMetadata())
	ctx := context.Background()

	c, err := uc.GetByName(ctx, "gHaNa")
	require.NoError(t, err)
	assert.Equal(t, "cty_2", c.ID)

	_, err = uc.GetByName(ctx, "Wakanda")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	_, err = uc.GetByName(ctx, "Antarctica")
	require.ErrorIs(t, err, xerrors.ErrValidationFailed)
	var verr *xerrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"currency_code": "Field 'currency_code' is missing or empty",
		"exchange_rate": "Field 'exchange_rate' is missing",
	}, verr.Fields)
}

func TestDeleteByName(t *testing.T) {
	repo := seed()
	uc := newUsecase(t, repo, memrepo.NewMetadata())
	ctx := context.Background()

	assert.ErrorIs(t, uc.DeleteByName(ctx, "Wakanda"), xerrors.ErrNotFound)
	assert.ErrorIs(t, uc.DeleteByName(ctx, "ghana"), xerrors.ErrNotFound, "delete matches the exact name")

	require.NoError(t, uc.DeleteByName(ctx, "Ghana"))
	n, _ := repo.Count(ctx)
	assert.Equal(t, int64(3), n)
}

func TestGetSummary(t *testing.T) {
	ctx := context.Background()
	meta := memrepo.NewMetadata()
	uc := newUsecase(t, seed(), meta)

	s, err := uc.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.TotalCountries)
	assert.Nil(t, s.LastRefreshedAt)

	at := time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repository.SetLastRefreshedAt(ctx, meta, at))
	s, err = uc.GetSummary(ctx)
	require.NoError(t, err)
	require.NotNil(t, s.LastRefreshedAt)
	assert.True(t, at.Equal(*s.LastRefreshedAt))

	meta.GetErr = errors.New("db down")
	_, err = uc.GetSummary(ctx)
	assert.Error(t, err)
}

func TestGetArtifactBeforeGeneration(t *testing.T) {
	uc := newUsecase(t, seed(), memrepo.NewMetadata())
	_, err := uc.GetArtifact(context.Background())
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestReconcileNowDelegates(t *testing.T) {
	uc := NewCountryUsecase(seed(), memrepo.NewMetadata(), stubReconciler{err: xerrors.ErrAlreadyInProgress}, nil, zap.NewNop())
	_, err := uc.ReconcileNow(context.Background())
	assert.ErrorIs(t, err, xerrors.ErrAlreadyInProgress)
}
