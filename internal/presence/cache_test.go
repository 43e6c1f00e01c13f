package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, time.Hour), mr
}

func TestCacheSetOnline(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetOnline(ctx, 1, true))
	online, err := cache.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, cache.SetOnline(ctx, 1, false))
	online, err = cache.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.False(t, online)
}

func TestCacheIsOnlineUnknownUser(t *testing.T) {
	cache, _ := newTestCache(t)

	online, err := cache.IsOnline(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, online)
}

func TestCacheEntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetOnline(ctx, 1, true))
	mr.FastForward(2 * time.Hour)

	online, err := cache.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.False(t, online, "stale entries must age out")
}

func TestCacheSnapshot(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetOnline(ctx, 1, true))
	require.NoError(t, cache.SetOnline(ctx, 3, true))

	snapshot, err := cache.Snapshot(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{1: true, 2: false, 3: true}, snapshot)
}

func TestCacheSnapshotEmpty(t *testing.T) {
	cache, _ := newTestCache(t)

	snapshot, err := cache.Snapshot(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}
