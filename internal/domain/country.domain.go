package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Country is a reconciled country record.
type Country struct {
	ID              string
	Name            string
	Capital         *string
	Region          *string
	Population      int64
	CurrencyCode    *string
	ExchangeRate    decimal.NullDecimal
	EstimatedGDP    decimal.NullDecimal
	FlagURL         *string
	LastRefreshedAt time.Time
}

// CountryGDP is the projection used to rank countries by estimated GDP.
type CountryGDP struct {
	Name         string
	EstimatedGDP decimal.NullDecimal
}

// ExternalCountry is one entry of the country provider's payload.
type ExternalCountry struct {
	Name       string             `json:"name"`
	Capital    string             `json:"capital"`
	Region     string             `json:"region"`
	Population int64              `json:"population"`
	Currencies []ExternalCurrency `json:"currencies"`
	Flag       string             `json:"flag"`
}

type ExternalCurrency struct {
	Code   string `json:"code"`
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

// RateTable maps currency codes to units per one unit of Base.
type RateTable struct {
	Base  string
	Rates map[string]float64
}

// Summary is the aggregate shown by the status endpoint.
type Summary struct {
	TotalCountries  int64
	LastRefreshedAt *time.Time
}

// NameKey is the identity key used for case-insensitive name matching.
func NameKey(name string) string {
	return cases.Lower(language.Und).String(name)
}

// StringPtr returns nil for blank strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
