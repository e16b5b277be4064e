// Package memory implements gigcache.Store with dgraph-io/ristretto as an in-process cache.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/ristretto"
)

// ErrRejected is returned when ristretto drops a write, either because its set buffer
// is full or because the admission policy refuses the item (e.g. cost above MaxCost).
var ErrRejected = errors.New("memory store: write rejected by admission policy")

// Store wraps a ristretto cache. Values are costed by their size in bytes.
type Store struct {
	c *ristretto.Cache
}

// New creates a ristretto-backed store. maxCostBytes is the maximum total
// size of cached values in bytes.
func New(maxCostBytes int64) (*Store, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := s.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val.([]byte), true, nil
}

// Set stores val and waits until it is visible to Get. Admission happens
// asynchronously, so the write is read back to confirm it was kept.
func (s *Store) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if !s.c.SetWithTTL(key, val, int64(len(val)), ttl) {
		return ErrRejected
	}
	s.c.Wait()
	if _, found := s.c.Get(key); !found {
		return ErrRejected
	}
	return nil
}

// TTL returns the remaining lifetime of key.
func (s *Store) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	d, ok := s.c.GetTTL(key)
	if !ok || d <= 0 {
		return 0, false, nil
	}
	return d, true, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error {
	s.c.Close()
	return nil
}
