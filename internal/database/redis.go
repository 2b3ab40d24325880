package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis connects to Redis. An empty URI disables Redis and returns a
// nil client; callers treat that as a permanently empty cache.
func ConnectRedis(ctx context.Context, redisURI string) (*redis.Client, error) {
	if redisURI == "" {
		slog.Warn("REDIS_URI not set, identity cache and rate limits disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return nil, err
	}

	// Configure connection pool and timeouts for better resilience
	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	slog.Info("connected to Redis")
	return client, nil
}
