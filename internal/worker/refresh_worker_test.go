package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"country-service/internal/domain"
	xerrors "country-service/pkg/xerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeUsecase struct {
	total int64
	err   error
	calls atomic.Int32
}

func (f *fakeUsecase) ReconcileNow(context.Context) (int, error) {
	f.calls.Add(1)
	return 3, f.err
}

func (f *fakeUsecase) GetSummary(context.Context) (domain.Summary, error) {
	return domain.Summary{TotalCountries: f.total}, nil
}

func run(w *RefreshWorker) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(context.Background())
	}()
	return wg.Wait
}

func TestSeedsEmptyStore(t *testing.T) {
	defer goleak.VerifyNone(t)

	uc := &fakeUsecase{}
	w := NewRefreshWorker(uc, 0, true, zap.NewNop())
	wait := run(w)

	require.Eventually(t, func() bool { return uc.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	w.Stop()
	w.Stop()
	wait()
}

func TestSkipsSeedWhenPopulated(t *testing.T) {
	defer goleak.VerifyNone(t)

	uc := &fakeUsecase{total: 250}
	w := NewRefreshWorker(uc, 0, true, zap.NewNop())
	wait := run(w)

	time.Sleep(20 * time.Millisecond)
	w.Stop()
	wait()
	assert.Zero(t, uc.calls.Load())
}

func TestScheduledRefresh(t *testing.T) {
	defer goleak.VerifyNone(t)

	uc := &fakeUsecase{total: 1}
	w := NewRefreshWorker(uc, 5*time.Millisecond, false, zap.NewNop())
	wait := run(w)

	require.Eventually(t, func() bool { return uc.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	w.Stop()
	wait()
}

func TestStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewRefreshWorker(&fakeUsecase{}, time.Hour, false, zap.NewNop()).Start(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestInProgressLoggedAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := NewRefreshWorker(&fakeUsecase{err: xerrors.ErrAlreadyInProgress}, 0, false, zap.New(core))

	w.refresh(context.Background(), "scheduled")

	entries := logs.FilterMessage("refresh skipped, another run in progress").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}
