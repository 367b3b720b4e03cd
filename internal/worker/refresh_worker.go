package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"country-service/internal/domain"
	xerrors "country-service/pkg/xerrors"

	"go.uber.org/zap"
)

type RefreshUsecase interface {
	ReconcileNow(ctx context.Context) (int, error)
	GetSummary(ctx context.Context) (domain.Summary, error)
}

// RefreshWorker seeds an empty store on start and then reconciles on a fixed interval.
type RefreshWorker struct {
	uc       RefreshUsecase
	interval time.Duration
	seed     bool
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewRefreshWorker(uc RefreshUsecase, interval time.Duration, seed bool, logger *zap.Logger) *RefreshWorker {
	return &RefreshWorker{
		uc:       uc,
		interval: interval,
		seed:     seed,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start blocks until Stop is called or ctx is cancelled.
func (rw *RefreshWorker) Start(ctx context.Context) {
	rw.logger.Info("Starting refresh worker",
		zap.Duration("interval", rw.interval),
		zap.Bool("seed_on_startup", rw.seed),
	)

	if rw.seed {
		rw.seedIfEmpty(ctx)
	}

	var tick <-chan time.Time
	if rw.interval > 0 {
		ticker := time.NewTicker(rw.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			rw.refresh(ctx, "scheduled")

		case <-rw.stopChan:
			rw.logger.Info("Stopping refresh worker")
			return

		case <-ctx.Done():
			rw.logger.Info("Context cancelled, stopping refresh worker")
			return
		}
	}
}

func (rw *RefreshWorker) Stop() {
	rw.stopOnce.Do(func() { close(rw.stopChan) })
}

func (rw *RefreshWorker) seedIfEmpty(ctx context.Context) {
	s, err := rw.uc.GetSummary(ctx)
	if err != nil {
		rw.logger.Error("seed check failed", zap.Error(err))
		return
	}
	if s.TotalCountries > 0 {
		rw.logger.Info("store already populated, skipping seed", zap.Int64("total_countries", s.TotalCountries))
		return
	}
	rw.refresh(ctx, "seed")
}

func (rw *RefreshWorker) refresh(ctx context.Context, trigger string) {
	n, err := rw.uc.ReconcileNow(ctx)
	switch {
	case errors.Is(err, xerrors.ErrAlreadyInProgress):
		rw.logger.Info("refresh skipped, another run in progress", zap.String("trigger", trigger))
	case err != nil:
		rw.logger.Error("refresh failed", zap.String("trigger", trigger), zap.Error(err))
	default:
		rw.logger.Info("refresh done", zap.String("trigger", trigger), zap.Int("records_written", n))
	}
}
