package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"country-service/internal/metrics"
	"country-service/pkg/response"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type windowLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	block  time.Duration
	prefix string
}

type verdict struct {
	allowed    bool
	message    string
	retryAfter time.Duration
	remaining  int
	reset      time.Duration
}

// take counts one request for client inside the current window.
func (l *windowLimiter) take(ctx context.Context, client string) (verdict, error) {
	key := l.prefix + ":ip:" + client
	blockKey := key + ":blocked"

	var flag *redis.StringCmd
	var left *redis.DurationCmd
	_, err := l.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		flag = p.Get(ctx, blockKey)
		left = p.TTL(ctx, blockKey)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return verdict{}, err
	}
	if flag.Val() == "1" {
		return verdict{
			message:    "Too Many Requests. Try again in " + left.Val().String(),
			retryAfter: left.Val(),
		}, nil
	}

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return verdict{}, err
	}
	if count == 1 {
		l.rdb.Expire(ctx, key, l.window)
	}
	if count > int64(l.limit) {
		l.rdb.Set(ctx, blockKey, "1", l.block)
		return verdict{
			message:    "Too Many Requests. Blocked for " + l.block.String(),
			retryAfter: l.block,
		}, nil
	}

	reset, _ := l.rdb.TTL(ctx, key).Result()
	return verdict{allowed: true, remaining: l.limit - int(count), reset: reset}, nil
}

// RateLimiter is a fixed-window limiter keyed by client IP. Clients over the limit
// are blocked for blockDuration. Redis errors fail open.
func RateLimiter(rdb *redis.Client, limit int, window, blockDuration time.Duration, keyPrefix string, logger *zap.Logger) func(http.Handler) http.Handler {
	l := &windowLimiter{rdb: rdb, limit: limit, window: window, block: blockDuration, prefix: keyPrefix}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, err := l.take(r.Context(), clientIP(r))
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !v.allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(v.retryAfter.Seconds())))
				metrics.RateLimitExceeded.WithLabelValues(keyPrefix).Inc()
				response.Error(w, r, http.StatusTooManyRequests, v.message, nil)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(v.reset.Seconds())))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then the connection address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
