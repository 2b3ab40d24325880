package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/contacts-backend/internal/models"
)

func TestIdentityCache_PutGet(t *testing.T) {
	mr, client := newRedis(t)
	ic := NewIdentityCache(NewCacheService(client, ""), 30*time.Second, discardLogger())
	ctx := context.Background()

	avatar := "https://example.com/a.png"
	ic.Put(ctx, &models.User{ID: 1, Username: "u1", Email: "u1@x.com", PasswordHash: "$2a$10$secret", Avatar: &avatar, Role: models.RoleUser, Confirmed: true})

	raw, err := mr.Get("username:u1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret")
	assert.Equal(t, 30*time.Second, mr.TTL("username:u1"))

	got, ok := ic.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, "u1@x.com", got.Email)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Empty(t, got.PasswordHash)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, avatar, *got.Avatar)
}

func TestIdentityCache_Expires(t *testing.T) {
	mr, client := newRedis(t)
	ic := NewIdentityCache(NewCacheService(client, ""), 30*time.Second, discardLogger())
	ctx := context.Background()

	ic.Put(ctx, &models.User{Username: "u1"})
	mr.FastForward(31 * time.Second)

	_, ok := ic.Get(ctx, "u1")
	assert.False(t, ok)
}

func TestIdentityCache_Invalidate(t *testing.T) {
	_, client := newRedis(t)
	ic := NewIdentityCache(NewCacheService(client, ""), 0, discardLogger())
	ctx := context.Background()

	ic.Put(ctx, &models.User{Username: "u1"})
	ic.Invalidate(ctx, "u1")

	_, ok := ic.Get(ctx, "u1")
	assert.False(t, ok)
}

func TestIdentityCache_RedisDownIsMiss(t *testing.T) {
	mr, client := newRedis(t)
	ic := NewIdentityCache(NewCacheService(client, ""), time.Minute, discardLogger())
	ctx := context.Background()

	ic.Put(ctx, &models.User{Username: "u1"})
	mr.Close()

	assert.NotPanics(t, func() {
		_, ok := ic.Get(ctx, "u1")
		assert.False(t, ok)
		ic.Put(ctx, &models.User{Username: "u2"})
		ic.Invalidate(ctx, "u1")
	})
}

func TestIdentityCache_CorruptSnapshotIsMiss(t *testing.T) {
	mr, client := newRedis(t)
	ic := NewIdentityCache(NewCacheService(client, ""), time.Minute, discardLogger())

	require.NoError(t, mr.Set("username:u1", "{not json"))
	_, ok := ic.Get(context.Background(), "u1")
	assert.False(t, ok)
}

func TestIdentityCache_DisabledAlwaysMisses(t *testing.T) {
	var client *redis.Client
	ic := NewIdentityCache(NewCacheService(client, ""), time.Minute, discardLogger())
	ctx := context.Background()

	ic.Put(ctx, &models.User{Username: "u1"})
	_, ok := ic.Get(ctx, "u1")
	assert.False(t, ok)
	ic.Invalidate(ctx, "u1")
}

func TestCacheService_Prefix(t *testing.T) {
	mr, client := newRedis(t)
	c := NewCacheService(client, "cache:")
	ctx := context.Background()

	require.NoError(t, c.SetWithTTL(ctx, CacheKey("user", "1"), map[string]int{"n": 1}, time.Minute))
	assert.True(t, mr.Exists("cache:user:1"))

	var got map[string]int
	found, err := c.Get(ctx, "user:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, got["n"])

	require.NoError(t, c.Delete(ctx, "user:1"))
	found, err = c.Get(ctx, "user:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
