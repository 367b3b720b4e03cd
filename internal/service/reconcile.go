package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"country-service/internal/domain"
	"country-service/internal/events"
	"country-service/internal/lock"
	"country-service/internal/metrics"
	"country-service/internal/provider"
	"country-service/internal/repository"
	"country-service/pkg/id"
	xerrors "country-service/pkg/xerrors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	LockResource   = "reconciliation"
	DefaultLockTTL = 2 * time.Minute
	DefaultTopN    = 5
)

// SummaryGenerator renders the ranked summary artifact.
type SummaryGenerator interface {
	Generate(ctx context.Context, total int64, top []domain.CountryGDP, lastRefreshed time.Time) (string, error)
}

type ReconcilerDeps struct {
	Countries  provider.CountryProvider
	Rates      provider.RateProvider
	Repo       repository.CountryRepository
	Meta       repository.MetadataRepository
	IDs        *id.Generator
	Multiplier MultiplierSource
	Locker     lock.Locker
	Summary    SummaryGenerator
	Publisher  events.Publisher
	Logger     *zap.Logger

	LockTTL time.Duration
	TopN    int
}

// Reconciler merges provider data into the country store.
type Reconciler struct {
	countries provider.CountryProvider
	rates     provider.RateProvider
	repo      repository.CountryRepository
	meta      repository.MetadataRepository
	ids       *id.Generator
	mult      MultiplierSource
	locker    lock.Locker
	summary   SummaryGenerator
	publisher events.Publisher
	logger    *zap.Logger
	lockTTL   time.Duration
	topN      int
	now       func() time.Time
}

func NewReconciler(d ReconcilerDeps) *Reconciler {
	r := &Reconciler{
		countries: d.Countries,
		rates:     d.Rates,
		repo:      d.Repo,
		meta:      d.Meta,
		ids:       d.IDs,
		mult:      d.Multiplier,
		locker:    d.Locker,
		summary:   d.Summary,
		publisher: d.Publisher,
		logger:    d.Logger,
		lockTTL:   d.LockTTL,
		topN:      d.TopN,
		now:       time.Now,
	}
	if r.ids == nil {
		r.ids = id.NewGenerator()
	}
	if r.mult == nil {
		r.mult = NewRandomMultiplier()
	}
	if r.locker == nil {
		r.locker = lock.NewLocalLocker()
	}
	if r.publisher == nil {
		r.publisher = events.NopPublisher{}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.lockTTL <= 0 {
		r.lockTTL = DefaultLockTTL
	}
	if r.topN <= 0 {
		r.topN = DefaultTopN
	}
	return r
}

// Reconcile fetches both providers, merges into the store and advances the refresh
// timestamp. Overlapping runs fail with xerrors.ErrAlreadyInProgress.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	start := time.Now()

	held, err := r.locker.Acquire(ctx, LockResource, r.lockTTL)
	if errors.Is(err, lock.ErrLocked) {
		r.logger.Info("reconciliation already running")
		metrics.ObserveReconcile(metrics.StatusInProgress, start, 0)
		return 0, xerrors.ErrAlreadyInProgress
	}
	if err != nil {
		r.logger.Error("reconciliation lock unavailable", zap.Error(err))
		metrics.ObserveReconcile(metrics.StatusError, start, 0)
		return 0, fmt.Errorf("acquire reconciliation lock: %w", err)
	}
	defer r.release(ctx, held)

	written, status, err := r.run(ctx)
	metrics.ObserveReconcile(status, start, written)
	if err != nil {
		return 0, err
	}

	r.logger.Info("reconciliation complete",
		zap.Int("records_written", written),
		zap.Duration("duration", time.Since(start)),
	)
	return written, nil
}

func (r *Reconciler) run(ctx context.Context) (int, string, error) {
	batchAt := r.now().UTC()

	var (
		facts []domain.ExternalCountry
		table domain.RateTable
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		facts, err = r.countries.FetchCountries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		table, err = r.rates.FetchRates(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if !errors.Is(err, xerrors.ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %w", xerrors.ErrProviderUnavailable, err)
		}
		r.logger.Error("provider fetch failed, store untouched", zap.Error(err))
		return 0, metrics.StatusProviderError, err
	}

	existing, err := r.repo.FindAll(ctx)
	if err != nil {
		r.logger.Error("load existing countries failed", zap.Error(err))
		return 0, metrics.StatusPersistError, fmt.Errorf("%w: %w", xerrors.ErrPersistence, err)
	}

	batch := r.merge(existing, facts, table, batchAt)

	if err := r.repo.UpsertAll(ctx, batch); err != nil {
		r.logger.Error("country upsert failed", zap.Int("batch", len(batch)), zap.Error(err))
		return 0, metrics.StatusPersistError, fmt.Errorf("%w: %w", xerrors.ErrPersistence, err)
	}
	if err := repository.SetLastRefreshedAt(ctx, r.meta, batchAt); err != nil {
		r.logger.Error("refresh timestamp update failed", zap.Error(err))
		return 0, metrics.StatusPersistError, fmt.Errorf("%w: %w", xerrors.ErrPersistence, err)
	}

	r.afterRefresh(ctx, len(batch), batchAt)
	return len(batch), metrics.StatusSuccess, nil
}

// merge resolves every fact to one record by case-insensitive name. Records
// created here join the index so repeated names in one payload collapse.
func (r *Reconciler) merge(existing []*domain.Country, facts []domain.ExternalCountry, table domain.RateTable, batchAt time.Time) []*domain.Country {
	index := make(map[string]*domain.Country, len(existing))
	for _, c := range existing {
		index[domain.NameKey(c.Name)] = c
	}

	batch := make([]*domain.Country, 0, len(facts))
	inBatch := make(map[string]bool, len(facts))
	skipped := 0

	for _, f := range facts {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			skipped++
			continue
		}

		key := domain.NameKey(name)
		c, ok := index[key]
		if !ok {
			c = &domain.Country{ID: r.ids.NewCountryID()}
			index[key] = c
		}

		c.Name = name
		c.Population = max(f.Population, 0)
		c.Region = domain.StringPtr(strings.TrimSpace(f.Region))
		c.Capital = domain.StringPtr(strings.TrimSpace(f.Capital))
		c.FlagURL = domain.StringPtr(strings.TrimSpace(f.Flag))
		c.LastRefreshedAt = batchAt
		applyCurrency(c, f.Currencies, table.Rates, r.mult)

		if !inBatch[key] {
			inBatch[key] = true
			batch = append(batch, c)
		}
	}

	if skipped > 0 {
		r.logger.Warn("skipped provider entries without a name", zap.Int("count", skipped))
	}
	return batch
}

// afterRefresh never fails the run.
func (r *Reconciler) afterRefresh(ctx context.Context, written int, batchAt time.Time) {
	total, err := r.repo.Count(ctx)
	if err != nil {
		r.logger.Warn("summary skipped: count failed", zap.Error(err))
		metrics.RenderFailures.Inc()
		return
	}

	ref := ""
	if r.summary != nil {
		ref = r.generateSummary(ctx, total, batchAt)
	}

	ev := events.RefreshEvent{
		RecordsWritten: written,
		TotalCountries: total,
		RefreshedAt:    batchAt,
		ArtifactRef:    ref,
	}
	if err := r.publisher.PublishRefreshed(ctx, ev); err != nil {
		r.logger.Warn("refresh event not published", zap.Error(err))
	}
}

func (r *Reconciler) generateSummary(ctx context.Context, total int64, batchAt time.Time) string {
	top, err := r.repo.TopByEstimatedGDP(ctx, r.topN)
	if err != nil {
		r.logger.Warn("summary skipped: ranking failed", zap.Error(err))
		metrics.RenderFailures.Inc()
		return ""
	}

	ref, err := r.summary.Generate(ctx, total, top, batchAt)
	if err != nil {
		r.logger.Warn("summary artifact not generated", zap.Error(err))
		metrics.RenderFailures.Inc()
		return ""
	}
	return ref
}

func (r *Reconciler) release(ctx context.Context, held lock.Lock) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := held.Release(ctx); err != nil {
		r.logger.Warn("release reconciliation lock", zap.Error(err))
	}
}
