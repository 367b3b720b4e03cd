package provider

import (
	"context"
	"net/http"
	"strings"

	"country-service/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultCountriesBaseURL = "https://restcountries.com/v2"
	countriesPath           = "/all?fields=name,capital,region,population,flag,currencies"
)

type CountryProvider interface {
	FetchCountries(ctx context.Context) ([]domain.ExternalCountry, error)
}

// RestCountries reads the v2 restcountries API.
type RestCountries struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewRestCountries(baseURL string, client *http.Client, logger *zap.Logger) *RestCountries {
	if baseURL == "" {
		baseURL = DefaultCountriesBaseURL
	}
	return &RestCountries{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

func (p *RestCountries) FetchCountries(ctx context.Context) ([]domain.ExternalCountry, error) {
	url := p.baseURL + countriesPath

	var countries []domain.ExternalCountry
	if err := getJSON(ctx, p.client, url, &countries); err != nil {
		p.logger.Error("country provider fetch failed", zap.String("url", url), zap.Error(err))
		return nil, err
	}

	p.logger.Info("fetched countries", zap.String("url", url), zap.Int("count", len(countries)))
	return countries, nil
}
