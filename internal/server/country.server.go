package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"country-service/internal/artifact"
	"country-service/internal/config"
	"country-service/internal/events"
	hrest "country-service/internal/handler/rest"
	"country-service/internal/lock"
	"country-service/internal/provider"
	"country-service/internal/repository"
	"country-service/internal/router"
	"country-service/internal/service"
	"country-service/internal/summary"
	"country-service/internal/usecase"
	"country-service/internal/worker"
	"country-service/pkg/id"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Server owns every long-lived resource of the service.
type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger

	db    *pgxpool.Pool
	rdb   *redis.Client
	kafka *kafka.Writer

	UC     *usecase.CountryUsecase
	http   *http.Server
	worker *worker.RefreshWorker
}

// New connects to the backing stores and wires the object graph.
func New(cfg config.AppConfig, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	// --- DB connection ---
	db, err := config.ConnectDB(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repository.EnsureSchema(ctx, db); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	// --- Redis (optional) ---
	rdb, err := config.ConnectRedis(cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.rdb = rdb

	// --- Kafka writer (optional) ---
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaEnabled() {
		s.kafka = events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = events.NewKafkaPublisher(s.kafka, logger)
		logger.Info("kafka writer initialized",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	// --- Repos, providers, engine ---
	countryRepo := repository.NewCountryRepo(db)
	metaRepo := repository.NewMetadataRepo(db)

	httpClient := provider.NewHTTPClient(cfg.ProviderTimeout)
	countries := provider.NewRestCountries(cfg.CountriesAPIURL, httpClient, logger)
	rates := provider.NewERAPI(cfg.RatesAPIURL, cfg.RatesBase, httpClient, logger)

	generator := summary.NewGenerator(s.artifactSink(), logger)

	var locker lock.Locker = lock.NewLocalLocker()
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, logger)
	}

	reconciler := service.NewReconciler(service.ReconcilerDeps{
		Countries:  countries,
		Rates:      rates,
		Repo:       countryRepo,
		Meta:       metaRepo,
		IDs:        id.NewGenerator(),
		Multiplier: service.NewRandomMultiplier(),
		Locker:     locker,
		Summary:    generator,
		Publisher:  publisher,
		Logger:     logger,
		LockTTL:    cfg.LockTTL,
		TopN:       cfg.SummaryTopN,
	})

	s.UC = usecase.NewCountryUsecase(countryRepo, metaRepo, reconciler, generator, logger)
	s.worker = worker.NewRefreshWorker(s.UC, cfg.RefreshInterval, cfg.SeedOnStartup, logger)

	// --- HTTP routes ---
	r := router.SetupRoutes(chi.NewRouter(), hrest.NewCountryHandler(s.UC, logger), rdb, router.RateLimit{
		Limit:  cfg.RateLimit,
		Window: cfg.RateLimitWindow,
		Block:  cfg.RateLimitBlock,
	}, logger)

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ProviderTimeout + time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) artifactSink() artifact.Sink {
	if s.cfg.ArtifactStore == "redis" {
		if s.rdb != nil {
			return artifact.NewRedisSink(s.rdb, "")
		}
		s.logger.Warn("ARTIFACT_STORE=redis but redis is disabled; using file store",
			zap.String("path", s.cfg.ArtifactPath))
	}
	return artifact.NewFileSink(s.cfg.ArtifactPath)
}

// Run serves HTTP and runs the refresh worker until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.worker.Start(ctx)
	defer s.worker.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("country service HTTP server starting", zap.String("addr", s.cfg.HTTPAddr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("country service shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Close releases connections. Safe to call on a partially built server.
func (s *Server) Close() {
	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			s.logger.Warn("close kafka writer", zap.Error(err))
		}
	}
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Warn("close redis", zap.Error(err))
		}
	}
	if s.db != nil {
		s.db.Close()
	}
}
