package middleware

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"worksphere/utils/errors"
)

// RateLimitResult reports the outcome of one Allow call.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter gates how often an identifier (user ID or client IP) may
// hit a route. Injected rather than process-global so tests get clean
// per-test isolation.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) (RateLimitResult, error)
}

// RedisRateLimiter counts requests per identifier in a fixed window.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit, window: window}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, identifier string) (RateLimitResult, error) {
	key := "ratelimit:" + identifier
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return RateLimitResult{}, err
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.window)
	}
	if count > int64(l.limit) {
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		return RateLimitResult{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}
	return RateLimitResult{Allowed: true, Remaining: l.limit - int(count)}, nil
}

// MemoryRateLimiter is the in-process fallback used in tests and when
// Redis is unavailable.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	limit   int
	window  time.Duration
}

type memoryEntry struct {
	count     int
	resetTime time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		entries: make(map[string]*memoryEntry),
		limit:   limit,
		window:  window,
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, identifier string) (RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.entries[identifier]
	if !ok || now.After(entry.resetTime) {
		// Sweep expired entries before they pile up.
		if len(l.entries) > 10000 {
			for key, e := range l.entries {
				if now.After(e.resetTime) {
					delete(l.entries, key)
				}
			}
		}
		l.entries[identifier] = &memoryEntry{count: 1, resetTime: now.Add(l.window)}
		return RateLimitResult{Allowed: true, Remaining: l.limit - 1}, nil
	}

	if entry.count >= l.limit {
		return RateLimitResult{Allowed: false, Remaining: 0, RetryAfter: time.Until(entry.resetTime)}, nil
	}
	entry.count++
	return RateLimitResult{Allowed: true, Remaining: l.limit - entry.count}, nil
}

// RateLimitMiddleware rejects requests over the limit with a 429. On
// limiter backend errors the request is let through: degraded limiting
// beats a hard outage.
func RateLimitMiddleware(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := clientIdentifier(r)
			result, err := limiter.Allow(r.Context(), identifier)
			if err != nil {
				log.Printf("Rate limiter error for %s: %v", identifier, err)
				next.ServeHTTP(w, r)
				return
			}
			if !result.Allowed {
				retryAfter := int(result.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				WriteError(w, errors.ErrRateLimited)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIdentifier prefers the authenticated user, then proxy headers,
// then the raw remote address.
func clientIdentifier(r *http.Request) string {
	if userID, ok := r.Context().Value("userID").(string); ok && userID != "" {
		return userID
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
