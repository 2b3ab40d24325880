package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService stores JSON values in Redis under a key prefix. A nil client
// turns every read into a miss and every write into a no-op.
type CacheService struct {
	client *redis.Client
	prefix string
}

func NewCacheService(client *redis.Client, prefix string) *CacheService {
	return &CacheService{client: client, prefix: prefix}
}

// Enabled reports whether a Redis client is configured.
func (c *CacheService) Enabled() bool {
	return c != nil && c.client != nil
}

// Get retrieves a value from cache. A missing key is (false, nil).
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetWithTTL stores a value in cache as JSON.
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, jsonData, ttl).Err()
}

// Delete removes a value from cache
func (c *CacheService) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, c.prefix+key).Err()
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s:%s", resource, identifier)
}
