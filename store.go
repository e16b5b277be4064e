package gigcache

import (
	"context"
	"time"
)

// Store is the shared key-value store backing the cache.
// Implementations must be safe for concurrent use; Get and Set are each atomic per key,
// nothing more is assumed. Any returned error is treated as an infrastructure fault.
type Store interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set upserts val under key and schedules its removal after ttl.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}
