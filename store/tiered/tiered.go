// Package tiered layers an in-process store in front of a shared one.
//
// Reads try L1 first and back-fill it from L2 for at most L1TTL, never past the
// L2 expiry. Writes go to L2 first so a failing shared store surfaces as an error
// even if L1 would have accepted the value.
package tiered

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Tier is a store that can report the remaining lifetime of a key.
type Tier interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
	Ping(ctx context.Context) error
	Close() error
}

type Store struct {
	l1     Tier
	l2     Tier
	l1TTL  time.Duration
	logger *slog.Logger
}

// New layers l1 over l2. l1TTL must be positive: a zero TTL would make the L1 copy permanent.
func New(l1, l2 Tier, l1TTL time.Duration, logger *slog.Logger) (*Store, error) {
	if l1 == nil || l2 == nil {
		return nil, errors.New("tiered: both tiers are required")
	}
	if l1TTL <= 0 {
		return nil, errors.New("tiered: L1 TTL must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{l1: l1, l2: l2, l1TTL: l1TTL, logger: logger}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, found, err := s.l1.Get(ctx, key); err == nil && found {
		s.logger.Debug("L1 hit", "key", key)
		return val, true, nil
	}

	val, found, err := s.l2.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	s.logger.Debug("L2 hit", "key", key)

	remaining, ok, err := s.l2.TTL(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to read L2 TTL, skipping L1 back-fill", "key", key, "error", err)
		return val, true, nil
	}
	if ok {
		s.setL1(ctx, key, val, remaining)
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := s.l2.Set(ctx, key, val, ttl); err != nil {
		return err
	}
	s.setL1(ctx, key, val, ttl)
	return nil
}

// setL1 caches val in L1 for at most l1TTL and never past remaining.
func (s *Store) setL1(ctx context.Context, key string, val []byte, remaining time.Duration) {
	ttl := min(s.l1TTL, remaining)
	if ttl <= 0 {
		return
	}
	if err := s.l1.Set(ctx, key, val, ttl); err != nil {
		s.logger.Debug("L1 write skipped", "key", key, "error", err)
	}
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	return s.l2.TTL(ctx, key)
}

// Ping checks the shared tier only; L1 is always available.
func (s *Store) Ping(ctx context.Context) error {
	return s.l2.Ping(ctx)
}

func (s *Store) Close() error {
	l1Err := s.l1.Close()
	if err := s.l2.Close(); err != nil {
		return err
	}
	return l1Err
}
