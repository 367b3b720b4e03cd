package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"country-service/pkg/id"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLocked is returned when another holder owns the resource.
var ErrLocked = errors.New("lock already held by another process")

// Locker hands out exclusive, TTL-bounded locks on named resources.
type Locker interface {
	Acquire(ctx context.Context, resource string, ttl time.Duration) (Lock, error)
}

type Lock interface {
	Release(ctx context.Context) error
}

// ===============================
// Redis
// ===============================

const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

type RedisLocker struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisLocker(client *redis.Client, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

func Key(resource string) string {
	return fmt.Sprintf("lock:%s", resource)
}

func (l *RedisLocker) Acquire(ctx context.Context, resource string, ttl time.Duration) (Lock, error) {
	key := Key(resource)
	token := id.Token()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	l.logger.Debug("lock acquired",
		zap.String("resource", resource),
		zap.Duration("ttl", ttl),
	)
	return &redisLock{client: l.client, key: key, token: token}, nil
}

type redisLock struct {
	client *redis.Client
	key    string
	token  string
}

// Release deletes the key only while it still carries this lock's token.
func (l *redisLock) Release(ctx context.Context) error {
	result, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if result == 0 {
		return fmt.Errorf("lock not owned by this token (expired or stolen)")
	}
	return nil
}

// ===============================
// In-process
// ===============================

// LocalLocker guards resources within a single process. TTLs are honoured so a
// holder that never releases does not block forever.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localEntry
	now  func() time.Time
}

type localEntry struct {
	token   string
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localEntry), now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, resource string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[resource]; ok && (e.expires.IsZero() || now.Before(e.expires)) {
		return nil, ErrLocked
	}

	entry := localEntry{token: id.Token()}
	if ttl > 0 {
		entry.expires = now.Add(ttl)
	}
	l.held[resource] = entry
	return &localLock{owner: l, resource: resource, token: entry.token}, nil
}

type localLock struct {
	owner    *LocalLocker
	resource string
	token    string
}

func (l *localLock) Release(context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()

	e, ok := l.owner.held[l.resource]
	if !ok || e.token != l.token {
		return fmt.Errorf("lock not owned by this token (expired or stolen)")
	}
	delete(l.owner.held, l.resource)
	return nil
}
