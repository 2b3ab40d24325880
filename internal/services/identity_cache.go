package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/AnshRaj112/contacts-backend/internal/models"
)

// DefaultIdentityTTL bounds how stale a cached identity can get.
const DefaultIdentityTTL = 30 * time.Second

// IdentityCache keeps short-lived user snapshots keyed by username. Redis
// failures are logged and degrade to misses.
type IdentityCache struct {
	cache  *CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewIdentityCache(cache *CacheService, ttl time.Duration, logger *slog.Logger) *IdentityCache {
	if ttl <= 0 {
		ttl = DefaultIdentityTTL
	}
	return &IdentityCache{cache: cache, ttl: ttl, logger: logger}
}

func identityKey(username string) string {
	return CacheKey("username", username)
}

func (ic *IdentityCache) Get(ctx context.Context, username string) (*models.User, bool) {
	var user models.User
	found, err := ic.cache.Get(ctx, identityKey(username), &user)
	if err != nil {
		ic.logger.Warn("identity cache read failed", "username", username, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &user, true
}

// Put caches the user for the configured TTL. The password hash is never part
// of the snapshot.
func (ic *IdentityCache) Put(ctx context.Context, user *models.User) {
	ic.PutWithTTL(ctx, user, ic.ttl)
}

func (ic *IdentityCache) PutWithTTL(ctx context.Context, user *models.User, ttl time.Duration) {
	if err := ic.cache.SetWithTTL(ctx, identityKey(user.Username), user, ttl); err != nil {
		ic.logger.Warn("identity cache write failed", "username", user.Username, "error", err)
	}
}

func (ic *IdentityCache) Invalidate(ctx context.Context, username string) {
	if err := ic.cache.Delete(ctx, identityKey(username)); err != nil {
		ic.logger.Warn("identity cache invalidation failed", "username", username, "error", err)
	}
}
