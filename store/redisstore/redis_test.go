package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), time.Minute))
	val, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v1"), val)

	require.NoError(t, s.Set(ctx, "k", []byte("v2"), time.Minute))
	val, _, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val, "set must overwrite")
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 10*time.Second))
	ttl, ok, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10*time.Second, ttl)

	mr.FastForward(9 * time.Second)
	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	mr.FastForward(time.Second)
	_, found, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "key must expire after its ttl")

	_, ok, err = s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RejectsNonPositiveTTL(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Error(t, s.Set(context.Background(), "k", []byte("v"), 0))
}

func TestStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, s.Ping(ctx))

	mr.Close()
	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Error(t, s.Ping(ctx))
}
