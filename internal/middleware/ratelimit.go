package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimit is a fixed-window counter per client IP stored in Redis, so
// the limit holds across replicas. It fails open when Redis is unavailable
// or not configured.
type RedisRateLimit struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	ipOf   func(*http.Request) string
}

func NewRedisRateLimit(client *redis.Client, limit int, window time.Duration, prefix string, ipOf func(*http.Request) string) *RedisRateLimit {
	return &RedisRateLimit{client: client, limit: limit, window: window, prefix: prefix, ipOf: ipOf}
}

func (l *RedisRateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.client == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := "ratelimit:" + l.prefix + ":" + l.ipOf(r)

		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			// If Redis fails, allow the request (fail open)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			l.client.Expire(ctx, key, l.window)
		}
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if count > int64(l.limit) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			writeDetail(w, http.StatusTooManyRequests, "Rate limit exceeded: "+strconv.Itoa(l.limit)+" per "+l.window.String())
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.limit)-count, 10))
		next.ServeHTTP(w, r)
	})
}
