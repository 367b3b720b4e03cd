package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"country-service/internal/domain"
	xerrors "country-service/pkg/xerrors"

	"go.uber.org/zap"
)

const (
	DefaultRatesBaseURL = "https://open.er-api.com/v6/latest"
	DefaultRatesBase    = "USD"
)

type RateProvider interface {
	FetchRates(ctx context.Context) (domain.RateTable, error)
}

type erAPIResponse struct {
	Result    string              `json:"result"`
	BaseCode  string              `json:"base_code"`
	ErrorType string              `json:"error-type"`
	Rates     map[string]*float64 `json:"rates"`
}

// ERAPI reads the open.er-api.com latest-rates endpoint for a fixed base currency.
type ERAPI struct {
	baseURL string
	base    string
	client  *http.Client
	logger  *zap.Logger
}

func NewERAPI(baseURL, base string, client *http.Client, logger *zap.Logger) *ERAPI {
	if baseURL == "" {
		baseURL = DefaultRatesBaseURL
	}
	if base == "" {
		base = DefaultRatesBase
	}
	return &ERAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    strings.ToUpper(base),
		client:  client,
		logger:  logger,
	}
}

// FetchRates drops null and non-positive rates; a code without a usable rate is simply absent.
func (p *ERAPI) FetchRates(ctx context.Context) (domain.RateTable, error) {
	url := p.baseURL + "/" + p.base

	var body erAPIResponse
	if err := getJSON(ctx, p.client, url, &body); err != nil {
		p.logger.Error("rate provider fetch failed", zap.String("url", url), zap.Error(err))
		return domain.RateTable{}, err
	}
	if body.Result != "" && body.Result != "success" {
		err := &xerrors.ProviderError{Source: url, Err: fmt.Errorf("result %q: %s", body.Result, body.ErrorType)}
		p.logger.Error("rate provider returned failure", zap.String("url", url), zap.Error(err))
		return domain.RateTable{}, err
	}

	table := domain.RateTable{
		Base:  strings.ToUpper(body.BaseCode),
		Rates: make(map[string]float64, len(body.Rates)),
	}
	if table.Base == "" {
		table.Base = p.base
	}
	for code, rate := range body.Rates {
		if rate == nil || *rate <= 0 {
			continue
		}
		table.Rates[strings.ToUpper(code)] = *rate
	}

	p.logger.Info("fetched exchange rates",
		zap.String("base", table.Base),
		zap.Int("count", len(table.Rates)),
	)
	return table, nil
}
