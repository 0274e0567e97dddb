// ratelimit.go implements per-IP fixed-window rate limiting. Counters live
// in Redis when it is configured, so every API replica shares one budget,
// and in process memory otherwise.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key within fixed windows.
type Limiter interface {
	// Allow records one request for key and reports whether it is within
	// the limit, plus how many requests remain in the current window.
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)

	// Limit returns the maximum number of requests per window.
	Limit() int
}

// RateLimit returns middleware that rejects requests beyond the limiter's
// budget with 429. Limiter failures are logged and the request is let
// through, so a Redis outage degrades to no limiting instead of an outage.
func RateLimit(l Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, remaining, err := l.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				slog.Warn("rate limiter unavailable",
					slog.Any("error", err),
					slog.String("remote_ip", c.RealIP()),
				)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.Limit()))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":   "Too Many Requests",
					"message": "Rate limit exceeded. Please try again later.",
				})
			}
			return next(c)
		}
	}
}

// --- In-memory limiter ---

// rateLimitEntry tracks request counts for a single IP within a time window.
type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter is a Limiter backed by a map. Counts are per process.
type MemoryLimiter struct {
	maxRequests int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

// NewMemoryLimiter creates a limiter allowing maxRequests per window. A
// background goroutine drops expired entries until ctx is cancelled.
func NewMemoryLimiter(ctx context.Context, maxRequests int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		entries:     make(map[string]*rateLimitEntry),
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()

	return l
}

// Limit returns the maximum number of requests per window.
func (l *MemoryLimiter) Limit() int {
	return l.maxRequests
}

// Allow counts one request for key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[key]
	if !exists || now.Sub(entry.windowStart) >= l.window {
		entry = &rateLimitEntry{windowStart: now}
		l.entries[key] = entry
	}

	entry.count++
	if entry.count > l.maxRequests {
		return false, 0, nil
	}
	return true, l.maxRequests - entry.count, nil
}

// sweep removes entries whose window ended long ago.
func (l *MemoryLimiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.entries {
		if now.Sub(entry.windowStart) > l.window*2 {
			delete(l.entries, key)
		}
	}
}

// --- Redis limiter ---

// RedisLimiter is a Limiter backed by Redis INCR/EXPIRE, shared by every
// process pointing at the same Redis.
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
	prefix      string
}

// NewRedisLimiter creates a limiter allowing maxRequests per window.
func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		prefix:      "ratelimit:",
	}
}

// Limit returns the maximum number of requests per window.
func (l *RedisLimiter) Limit() int {
	return l.maxRequests
}

// Allow increments the counter for key in the current window. Keys carry
// the window number and expire with it.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	windowID := time.Now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, windowID)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("incrementing rate limit counter: %w", err)
	}

	count := int(incr.Val())
	if count > l.maxRequests {
		return false, 0, nil
	}
	return true, l.maxRequests - count, nil
}
