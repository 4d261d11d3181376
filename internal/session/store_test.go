package session

import (
	"context"
	"testing"
	"time"

	"finance_tracker/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, NewRedisStore(rdb)
}

func TestRedisStore_Lifecycle(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, 7, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, time.Hour, mr.TTL("session:"+id))

	userID, err := store.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)

	require.NoError(t, store.Revoke(ctx, id))
	_, err = store.Lookup(ctx, id)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// Revoking twice is harmless
	assert.NoError(t, store.Revoke(ctx, id))
}

func TestRedisStore_Expiry(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, 1, time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = store.Lookup(ctx, id)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRedisStore_SessionsAreIndependent(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, 1, time.Hour)
	require.NoError(t, err)
	b, err := store.Create(ctx, 1, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	require.NoError(t, store.Revoke(ctx, a))
	userID, err := store.Lookup(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, uint(1), userID)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, store := newTestStore(t)
	require.NoError(t, mr.Set("session:bad", "not-a-number"))

	_, err := store.Lookup(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
}
