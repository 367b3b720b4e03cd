package query

import (
	"testing"

	"country-service/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		want   Spec
	}{
		{
			name:   "empty input",
			params: map[string]string{},
			want:   Spec{},
		},
		{
			name:   "gdp descending",
			params: map[string]string{"sort": "gdp_desc"},
			want:   Spec{Order: &Order{Field: FieldEstimatedGDP, Desc: true}},
		},
		{
			name:   "estimated_gdp alias",
			params: map[string]string{"sort": "estimated_gdp_desc"},
			want:   Spec{Order: &Order{Field: FieldEstimatedGDP, Desc: true}},
		},
		{
			name:   "currency_code alias ascending",
			params: map[string]string{"sort": "currency_code_asc"},
			want:   Spec{Order: &Order{Field: FieldCurrencyCode}},
		},
		{
			name:   "direction is case insensitive",
			params: map[string]string{"sort": "population_DESC"},
			want:   Spec{Order: &Order{Field: FieldPopulation, Desc: true}},
		},
		{
			name:   "unknown direction is ascending",
			params: map[string]string{"sort": "name_sideways"},
			want:   Spec{Order: &Order{Field: FieldName}},
		},
		{
			name:   "camel case field",
			params: map[string]string{"sort": "exchangeRate_desc"},
			want:   Spec{Order: &Order{Field: FieldExchangeRate, Desc: true}},
		},
		{
			name:   "bogus sort is unsorted",
			params: map[string]string{"sort": "bogus"},
			want:   Spec{},
		},
		{
			name:   "unknown field is unsorted",
			params: map[string]string{"sort": "capital_desc"},
			want:   Spec{},
		},
		{
			name:   "filterable but not sortable field is unsorted",
			params: map[string]string{"sort": "region_asc"},
			want:   Spec{},
		},
		{
			name:   "empty field token",
			params: map[string]string{"sort": "_desc"},
			want:   Spec{},
		},
		{
			name:   "empty direction token",
			params: map[string]string{"sort": "name_"},
			want:   Spec{},
		},
		{
			name:   "filters in fixed order, trimmed",
			params: map[string]string{"region": " Africa ", "currency": "NGN"},
			want: Spec{Filters: []Filter{
				{Field: FieldCurrencyCode, Value: "NGN"},
				{Field: FieldRegion, Value: "Africa"},
			}},
		},
		{
			name:   "blank filters are skipped",
			params: map[string]string{"region": "   ", "currency": ""},
			want:   Spec{},
		},
		{
			name:   "unrecognised keys are ignored",
			params: map[string]string{"capital": "Abuja", "sort": "name_asc"},
			want:   Spec{Order: &Order{Field: FieldName}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.params)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Build() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAndDoesNotAlias(t *testing.T) {
	base := Spec{}.And(Filter{Field: FieldRegion, Value: "Europe"})
	a := base.And(Filter{Field: FieldCurrencyCode, Value: "EUR"})
	b := base.And(Filter{Field: FieldCurrencyCode, Value: "GBP"})

	assert.Len(t, base.Filters, 1)
	assert.Equal(t, "EUR", a.Filters[1].Value)
	assert.Equal(t, "GBP", b.Filters[1].Value)
}

func country(name, region, currency string, pop int64, gdp string) *domain.Country {
	c := &domain.Country{
		Name:         name,
		Region:       domain.StringPtr(region),
		CurrencyCode: domain.StringPtr(currency),
		Population:   pop,
	}
	if gdp != "" {
		c.EstimatedGDP = decimal.NewNullDecimal(decimal.RequireFromString(gdp))
	}
	return c
}

func names(cs []*domain.Country) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestApply(t *testing.T) {
	all := []*domain.Country{
		country("Nigeria", "Africa", "NGN", 206_000_000, "250000000000"),
		country("Ghana", "Africa", "GHS", 31_000_000, ""),
		country("Togo", "Africa", "XOF", 8_000_000, "9000000000"),
		country("France", "Europe", "EUR", 67_000_000, "900000000000"),
		country("Antarctica", "Polar", "", 1000, "0"),
	}

	t.Run("filter by region", func(t *testing.T) {
		got := Build(map[string]string{"region": "Africa", "sort": "name_asc"}).Apply(all)
		assert.Equal(t, []string{"Ghana", "Nigeria", "Togo"}, names(got))
	})

	t.Run("filter by currency is exact", func(t *testing.T) {
		assert.Len(t, Build(map[string]string{"currency": "ngn"}).Apply(all), 0)
		assert.Len(t, Build(map[string]string{"currency": "NGN"}).Apply(all), 1)
	})

	t.Run("absent values sort last when descending", func(t *testing.T) {
		got := Build(map[string]string{"sort": "gdp_desc"}).Apply(all)
		assert.Equal(t, []string{"France", "Nigeria", "Togo", "Antarctica", "Ghana"}, names(got))
	})

	t.Run("absent values sort last when ascending", func(t *testing.T) {
		got := Build(map[string]string{"sort": "gdp_asc"}).Apply(all)
		assert.Equal(t, []string{"Antarctica", "Togo", "Nigeria", "France", "Ghana"}, names(got))
	})

	t.Run("unsorted keeps input order", func(t *testing.T) {
		got := Build(map[string]string{"sort": "bogus"}).Apply(all)
		assert.Equal(t, names(all), names(got))
	})
}
