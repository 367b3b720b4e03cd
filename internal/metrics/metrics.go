package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation outcomes.
const (
	StatusSuccess       = "success"
	StatusProviderError = "provider_error"
	StatusPersistError  = "persistence_error"
	StatusInProgress    = "in_progress"
	StatusError         = "error"
)

var (
	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "country_reconcile_runs_total",
			Help: "Reconciliation runs by outcome",
		},
		[]string{"status"},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "country_reconcile_duration_seconds",
			Help:    "Duration of reconciliation runs",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30},
		},
	)

	RecordsWritten = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "country_reconcile_records_written",
			Help: "Records written by the last successful reconciliation",
		},
	)

	RenderFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "country_summary_render_failures_total",
			Help: "Summary artifact generation failures",
		},
	)

	PublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "country_kafka_publish_errors_total",
			Help: "Total number of Kafka publish errors",
		},
	)

	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "country_rate_limit_exceeded_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "country_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "country_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// ObserveReconcile records one run.
func ObserveReconcile(status string, started time.Time, written int) {
	ReconcileRuns.WithLabelValues(status).Inc()
	ReconcileDuration.Observe(time.Since(started).Seconds())
	if status == StatusSuccess {
		RecordsWritten.Set(float64(written))
	}
}

// Middleware records request counts and latency labelled by the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := RoutePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RoutePattern keeps label cardinality bounded by using the matched pattern, not the raw path.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
