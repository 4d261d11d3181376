package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestCache_SetGetExpire(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewCache(rdb, "admin:users:")
	ctx := context.Background()

	var got map[string]int
	found, err := cache.Get(ctx, "page=1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "page=1", map[string]int{"total": 3}, time.Minute))
	assert.True(t, mr.Exists("admin:users:page=1"))

	found, err = cache.Get(ctx, "page=1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got["total"])

	mr.FastForward(2 * time.Minute)
	found, err = cache.Get(ctx, "page=1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_InvalidateOnlyTouchesPrefix(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewCache(rdb, "admin:users:")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "page=1", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "page=2", 2, time.Minute))
	require.NoError(t, mr.Set("session:abc", "7"))

	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists("admin:users:page=1"))
	assert.False(t, mr.Exists("admin:users:page=2"))
	assert.True(t, mr.Exists("session:abc"))

	// Nothing left to delete is fine
	require.NoError(t, cache.Invalidate(ctx))
}
