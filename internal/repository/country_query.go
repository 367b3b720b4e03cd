package repository

import (
	"fmt"
	"strings"

	"country-service/internal/query"
)

const countryColumns = `id, name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at`

// columnByField is the only path from a query field to SQL.
var columnByField = map[query.Field]string{
	query.FieldName:         "name",
	query.FieldPopulation:   "population",
	query.FieldCurrencyCode: "currency_code",
	query.FieldExchangeRate: "exchange_rate",
	query.FieldEstimatedGDP: "estimated_gdp",
	query.FieldRegion:       "region",
}

// buildListQuery renders spec as a parameterised SELECT.
func buildListQuery(spec query.Spec) (string, []any) {
	var (
		sb    strings.Builder
		where []string
		args  []any
	)
	sb.WriteString("SELECT " + countryColumns + " FROM countries")

	for _, f := range spec.Filters {
		col, ok := columnByField[f.Field]
		if !ok {
			continue
		}
		args = append(args, f.Value)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	if spec.Order != nil {
		if col, ok := columnByField[spec.Order.Field]; ok {
			dir := "ASC"
			if spec.Order.Desc {
				dir = "DESC"
			}
			sb.WriteString(fmt.Sprintf(" ORDER BY %s %s NULLS LAST", col, dir))
			if col != "name" {
				sb.WriteString(", name ASC")
			}
		}
	}
	return sb.String(), args
}
