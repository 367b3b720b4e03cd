package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, zap.NewNop()), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	ctx := context.Background()
	locker, mr := newRedisLocker(t)

	l, err := locker.Acquire(ctx, "reconciliation", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists(Key("reconciliation")))

	_, err = locker.Acquire(ctx, "reconciliation", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, l.Release(ctx))
	assert.False(t, mr.Exists(Key("reconciliation")))

	l2, err := locker.Acquire(ctx, "reconciliation", time.Minute)
	require.NoError(t, err)
	require.NoError(t, l2.Release(ctx))
}

func TestRedisLockerExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	ctx := context.Background()
	locker, mr := newRedisLocker(t)

	stale, err := locker.Acquire(ctx, "reconciliation", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(ctx, "reconciliation", time.Minute)
	require.NoError(t, err)

	assert.Error(t, stale.Release(ctx))
	assert.True(t, mr.Exists(Key("reconciliation")), "new holder keeps the lock")
	require.NoError(t, fresh.Release(ctx))
}

func TestRedisLockerUnavailable(t *testing.T) {
	locker, mr := newRedisLocker(t)
	mr.Close()

	_, err := locker.Acquire(context.Background(), "reconciliation", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLocked)
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC)
	locker := NewLocalLocker()
	locker.now = func() time.Time { return now }

	l, err := locker.Acquire(ctx, "reconciliation", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "reconciliation", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := locker.Acquire(ctx, "other", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, l.Release(ctx))
	assert.Error(t, l.Release(ctx), "double release")

	_, err = locker.Acquire(ctx, "reconciliation", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = locker.Acquire(ctx, "reconciliation", time.Minute)
	assert.NoError(t, err, "expired holder is replaced")
}
