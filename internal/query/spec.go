// Package query turns untrusted list parameters into a validated filter/sort plan.
//
// Nothing here fails: unknown keys, blank values and unrecognised sort tokens degrade to
// "no filter" and "unsorted".
package query

import (
	"strings"

	"country-service/internal/domain"
)

// Field identifies a country attribute that may be filtered or sorted on.
type Field string

const (
	FieldName         Field = "name"
	FieldPopulation   Field = "population"
	FieldCurrencyCode Field = "currency_code"
	FieldExchangeRate Field = "exchange_rate"
	FieldEstimatedGDP Field = "estimated_gdp"
	FieldRegion       Field = "region"
)

// Request parameter names.
const (
	ParamCurrency = "currency"
	ParamRegion   = "region"
	ParamSort     = "sort"
)

var filterParams = []struct {
	param string
	field Field
}{
	{ParamCurrency, FieldCurrencyCode},
	{ParamRegion, FieldRegion},
}

var sortable = map[Field]struct{}{
	FieldName:         {},
	FieldPopulation:   {},
	FieldCurrencyCode: {},
	FieldExchangeRate: {},
	FieldEstimatedGDP: {},
}

// sortAliases maps the external sort vocabulary onto fields.
var sortAliases = map[string]Field{
	"name":          FieldName,
	"population":    FieldPopulation,
	"currency_code": FieldCurrencyCode,
	"currencycode":  FieldCurrencyCode,
	"exchange_rate": FieldExchangeRate,
	"exchangerate":  FieldExchangeRate,
	"estimated_gdp": FieldEstimatedGDP,
	"estimatedgdp":  FieldEstimatedGDP,
	"gdp":           FieldEstimatedGDP,
}

// Filter is an equality predicate.
type Filter struct {
	Field Field
	Value string
}

type Order struct {
	Field Field
	Desc  bool
}

// Spec is a conjunction of filters plus at most one ordering.
type Spec struct {
	Filters []Filter
	Order   *Order
}

// Build derives a Spec from raw request parameters.
func Build(params map[string]string) Spec {
	var spec Spec
	for _, fp := range filterParams {
		v := strings.TrimSpace(params[fp.param])
		if v == "" {
			continue
		}
		spec = spec.And(Filter{Field: fp.field, Value: v})
	}
	spec.Order = parseSort(params[ParamSort])
	return spec
}

// parseSort reads "<field>_<direction>". The direction is the token after the last
// underscore so that multi-word fields such as currency_code stay addressable.
func parseSort(raw string) *Order {
	raw = strings.TrimSpace(raw)
	i := strings.LastIndex(raw, "_")
	if i <= 0 || i == len(raw)-1 {
		return nil
	}
	fieldTok, dirTok := strings.ToLower(raw[:i]), raw[i+1:]

	field, ok := sortAliases[fieldTok]
	if !ok {
		return nil
	}
	if _, ok := sortable[field]; !ok {
		return nil
	}
	return &Order{Field: field, Desc: strings.EqualFold(dirTok, "desc")}
}

// And returns a copy of s with f appended to the conjunction.
func (s Spec) And(f Filter) Spec {
	filters := make([]Filter, 0, len(s.Filters)+1)
	filters = append(filters, s.Filters...)
	filters = append(filters, f)
	return Spec{Filters: filters, Order: s.Order}
}

func (s Spec) Sorted() bool { return s.Order != nil }

// Matches reports whether c satisfies every filter.
func (s Spec) Matches(c *domain.Country) bool {
	for _, f := range s.Filters {
		if !f.Matches(c) {
			return false
		}
	}
	return true
}

func (f Filter) Matches(c *domain.Country) bool {
	switch f.Field {
	case FieldCurrencyCode:
		return c.CurrencyCode != nil && *c.CurrencyCode == f.Value
	case FieldRegion:
		return c.Region != nil && *c.Region == f.Value
	case FieldName:
		return c.Name == f.Value
	}
	return false
}
