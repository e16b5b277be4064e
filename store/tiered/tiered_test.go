package tiered

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/orgball2608/gigcache/store/memory"
	"github.com/orgball2608/gigcache/store/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *memory.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l1, err := memory.New(1 << 20)
	require.NoError(t, err)
	l2 := redisstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	s, err := New(l1, l2, time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, l1, mr
}

func TestStore_WritesBothTiers(t *testing.T) {
	ctx := context.Background()
	s, l1, mr := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Hour))

	val, found, err := l1.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, time.Hour, mr.TTL("k"))

	l1TTL, ok, err := l1.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.LessOrEqual(t, l1TTL, time.Minute, "L1 copy must not outlive L1TTL")
}

func TestStore_BackfillsL1FromL2(t *testing.T) {
	ctx := context.Background()
	s, l1, mr := newTestStore(t)

	require.NoError(t, mr.Set("k", "from-l2"))
	mr.SetTTL("k", 20*time.Second)

	val, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("from-l2"), val)

	val, found, err = l1.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found, "L2 hit should populate L1")
	assert.Equal(t, []byte("from-l2"), val)

	ttl, ok, err := l1.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.LessOrEqual(t, ttl, 20*time.Second, "L1 copy must not outlive the L2 entry")
}

func TestStore_MissInBothTiers(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, found, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_L2FailureSurfaces(t *testing.T) {
	ctx := context.Background()
	s, _, mr := newTestStore(t)
	mr.Close()

	assert.Error(t, s.Set(ctx, "k", []byte("v"), time.Hour))
	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, s.Ping(ctx))
}

func TestStore_EntryGoneAfterL2Expiry(t *testing.T) {
	ctx := context.Background()
	s, l1, mr := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 100*time.Millisecond))
	ttl, ok, err := l1.TTL(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok, "L1 copy must carry a TTL")
	assert.LessOrEqual(t, ttl, 100*time.Millisecond)

	mr.FastForward(time.Second)
	assert.Eventually(t, func() bool {
		_, found, err := s.Get(ctx, "k")
		return err == nil && !found
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNew_Validation(t *testing.T) {
	mr := miniredis.RunT(t)
	l1, err := memory.New(1 << 20)
	require.NoError(t, err)
	defer l1.Close()
	l2 := redisstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	defer l2.Close()

	for _, ttl := range []time.Duration{0, -time.Second} {
		_, err := New(l1, l2, ttl, nil)
		assert.Error(t, err, ttl)
	}
	_, err = New(nil, l2, time.Minute, nil)
	assert.Error(t, err)
}

type fakeTier struct {
	sets []time.Duration
}

func (f *fakeTier) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (f *fakeTier) Set(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
	f.sets = append(f.sets, ttl)
	return nil
}
func (f *fakeTier) TTL(context.Context, string) (time.Duration, bool, error) { return 0, false, nil }
func (f *fakeTier) Ping(context.Context) error                               { return nil }
func (f *fakeTier) Close() error                                             { return nil }

func TestStore_SkipsL1WithoutPositiveTTL(t *testing.T) {
	l1, l2 := &fakeTier{}, &fakeTier{}
	s, err := New(l1, l2, time.Minute, nil)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), 0))
	assert.Equal(t, []time.Duration{0}, l2.sets)
	assert.Empty(t, l1.sets)

	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), time.Hour))
	assert.Equal(t, []time.Duration{time.Minute}, l1.sets)
}
