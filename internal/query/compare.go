package query

import (
	"cmp"
	"slices"
	"strings"

	"country-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Apply evaluates s over an in-memory slice with the same semantics the repository
// renders to SQL: absent values sort last in both directions, ties break on name.
func (s Spec) Apply(countries []*domain.Country) []*domain.Country {
	out := make([]*domain.Country, 0, len(countries))
	for _, c := range countries {
		if s.Matches(c) {
			out = append(out, c)
		}
	}
	if s.Order == nil {
		return out
	}
	o := *s.Order
	slices.SortStableFunc(out, func(a, b *domain.Country) int {
		if n := compareField(a, b, o); n != 0 {
			return n
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func compareField(a, b *domain.Country, o Order) int {
	dir := 1
	if o.Desc {
		dir = -1
	}
	switch o.Field {
	case FieldName:
		return dir * strings.Compare(a.Name, b.Name)
	case FieldPopulation:
		return dir * cmp.Compare(a.Population, b.Population)
	case FieldCurrencyCode:
		return compareNullable(a.CurrencyCode == nil, b.CurrencyCode == nil, func() int {
			return dir * strings.Compare(*a.CurrencyCode, *b.CurrencyCode)
		})
	case FieldExchangeRate:
		return compareDecimal(a.ExchangeRate, b.ExchangeRate, dir)
	case FieldEstimatedGDP:
		return compareDecimal(a.EstimatedGDP, b.EstimatedGDP, dir)
	}
	return 0
}

func compareDecimal(a, b decimal.NullDecimal, dir int) int {
	return compareNullable(!a.Valid, !b.Valid, func() int {
		return dir * a.Decimal.Cmp(b.Decimal)
	})
}

func compareNullable(aNil, bNil bool, both func() int) int {
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return 1
	case bNil:
		return -1
	}
	return both()
}
