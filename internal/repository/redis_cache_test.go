package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*RedisCacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheRepository(client), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	type payload struct {
		Steps int `json:"steps"`
	}
	var got payload
	assert.ErrorIs(t, cache.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", payload{Steps: 5400}, time.Minute))
	require.NoError(t, cache.Get(ctx, "k", &got))
	assert.Equal(t, 5400, got.Steps)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, cache.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestRedisCache_UndecodablePayloadIsDropped(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("broken", "{not json"))

	var dest map[string]int
	assert.ErrorIs(t, cache.Get(ctx, "broken", &dest), ErrCacheMiss)
	assert.False(t, mr.Exists("broken"))
}

func TestRedisCache_DeleteByPatternSpansScanPages(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("daily:user:u1:%d", i), "{}"))
	}
	require.NoError(t, mr.Set("daily:user:u2:1", "{}"))

	require.NoError(t, cache.DeleteByPattern(ctx, "daily:user:u1:*"))
	assert.Equal(t, []string{"daily:user:u2:1"}, mr.Keys())

	require.NoError(t, cache.Delete(ctx))
	require.NoError(t, cache.Delete(ctx, "daily:user:u2:1"))
	assert.Empty(t, mr.Keys())
}

func TestRedisCache_SetIfVersion(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	v, err := cache.Version(ctx, "ver:u1")
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, cache.SetIfVersion(ctx, "k", "ver:u1", v, map[string]int{"steps": 1}, time.Minute))
	assert.True(t, mr.Exists("k"))

	require.NoError(t, cache.Bump(ctx, "ver:u1"))
	assert.ErrorIs(t, cache.SetIfVersion(ctx, "k2", "ver:u1", v, map[string]int{"steps": 2}, time.Minute), ErrStaleFill)
	assert.False(t, mr.Exists("k2"))

	v, err = cache.Version(ctx, "ver:u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	assert.Greater(t, mr.TTL("ver:u1"), time.Duration(0))
}
