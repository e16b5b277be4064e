package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s, err := New(1 << 20)
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), time.Minute))
	val, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v1"), val)

	require.NoError(t, s.Set(ctx, "k", []byte("v2"), time.Minute))
	val, _, _ = s.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), val)

	ttl, ok, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.LessOrEqual(t, ttl, time.Minute)
	assert.NoError(t, s.Ping(ctx))
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, err := New(1 << 20)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, found, _ := s.Get(ctx, "k")
		return !found
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStore_SetReportsDroppedWrite(t *testing.T) {
	ctx := context.Background()
	s, err := New(1000)
	require.NoError(t, err)
	defer s.Close()

	err = s.Set(ctx, "big", make([]byte, 4000), time.Minute)
	assert.ErrorIs(t, err, ErrRejected)
	_, found, err := s.Get(ctx, "big")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, s.Set(ctx, "small", []byte("v"), time.Minute))
}
