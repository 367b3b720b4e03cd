package router

import (
	"net/http"
	"time"

	hrest "country-service/internal/handler/rest"
	"country-service/internal/metrics"
	"country-service/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimit configures the per-client limiter. Limit <= 0 disables it.
type RateLimit struct {
	Limit  int
	Window time.Duration
	Block  time.Duration
}

func SetupRoutes(
	r chi.Router,
	h *hrest.CountryHandler,
	rdb *redis.Client,
	rl RateLimit,
	logger *zap.Logger,
) chi.Router {
	// ---- Global Middleware ----
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if rdb != nil && rl.Limit > 0 {
			r.Use(middleware.RateLimiter(rdb, rl.Limit, rl.Window, rl.Block, "global", logger))
		}

		r.Get("/status", h.HandleStatus)
		r.Route("/countries", func(r chi.Router) {
			r.Get("/", h.HandleListCountries)
			r.Post("/refresh", h.HandleRefresh)
			r.Get("/image", h.HandleImage)
			r.Get("/{name}", h.HandleGetCountry)
			r.Delete("/{name}", h.HandleDeleteCountry)
		})
	})

	return r
}
