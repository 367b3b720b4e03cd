package hrest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"country-service/internal/domain"
	"country-service/internal/query"
	"country-service/internal/usecase"
	"country-service/pkg/response"
	xerrors "country-service/pkg/xerrors"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CountryHandler struct {
	uc     *usecase.CountryUsecase
	logger *zap.Logger
}

func NewCountryHandler(uc *usecase.CountryUsecase, logger *zap.Logger) *CountryHandler {
	return &CountryHandler{uc: uc, logger: logger}
}

type countryDTO struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Capital         *string      `json:"capital"`
	Region          *string      `json:"region"`
	Population      int64        `json:"population"`
	CurrencyCode    *string      `json:"currency_code"`
	ExchangeRate    *json.Number `json:"exchange_rate"`
	EstimatedGDP    *json.Number `json:"estimated_gdp"`
	FlagURL         *string      `json:"flag_url"`
	LastRefreshedAt time.Time    `json:"last_refreshed_at"`
}

func toDTO(c *domain.Country) countryDTO {
	return countryDTO{
		ID:              c.ID,
		Name:            c.Name,
		Capital:         c.Capital,
		Region:          c.Region,
		Population:      c.Population,
		CurrencyCode:    c.CurrencyCode,
		ExchangeRate:    number(c.ExchangeRate),
		EstimatedGDP:    number(c.EstimatedGDP),
		FlagURL:         c.FlagURL,
		LastRefreshedAt: c.LastRefreshedAt,
	}
}

// number keeps decimals exact on the wire instead of going through float64.
func number(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := json.Number(d.Decimal.String())
	return &n
}

type statusDTO struct {
	TotalCountries  int64      `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

// HandleListCountries serves GET /countries?region=&currency=&sort=
func (h *CountryHandler) HandleListCountries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := map[string]string{
		query.ParamCurrency: q.Get(query.ParamCurrency),
		query.ParamRegion:   q.Get(query.ParamRegion),
		query.ParamSort:     q.Get(query.ParamSort),
	}

	countries, err := h.uc.Query(r.Context(), filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]countryDTO, 0, len(countries))
	for _, c := range countries {
		out = append(out, toDTO(c))
	}
	response.JSON(w, r, http.StatusOK, out)
}

func (h *CountryHandler) HandleGetCountry(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}

	c, err := h.uc.GetByName(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toDTO(c))
}

func (h *CountryHandler) HandleDeleteCountry(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}

	if err := h.uc.DeleteByName(r.Context(), name); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh runs a reconciliation synchronously.
func (h *CountryHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.uc.ReconcileNow(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]int{"records_written": n})
}

func (h *CountryHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	s, err := h.uc.GetSummary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, statusDTO{
		TotalCountries:  s.TotalCountries,
		LastRefreshedAt: s.LastRefreshedAt,
	})
}

func (h *CountryHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	data, err := h.uc.GetArtifact(r.Context())
	if errors.Is(err, xerrors.ErrNotFound) {
		response.Error(w, r, http.StatusNotFound, "Summary image not found", nil)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="summary.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func nameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "name")
	name, err := url.PathUnescape(raw)
	if err != nil || name == "" {
		response.Error(w, r, http.StatusBadRequest, "Invalid country name", nil)
		return "", false
	}
	return name, true
}

func (h *CountryHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *xerrors.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(w, r, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, r, http.StatusNotFound, "Country not found", nil)
	case errors.Is(err, xerrors.ErrProviderUnavailable):
		response.Error(w, r, http.StatusServiceUnavailable, "External data source unavailable", err.Error())
	case errors.Is(err, xerrors.ErrAlreadyInProgress):
		response.Error(w, r, http.StatusConflict, "Refresh already in progress", nil)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		response.Error(w, r, http.StatusInternalServerError, "Internal server error", nil)
	}
}
