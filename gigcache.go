package gigcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orgball2608/gigcache/internal/payload"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// Fetcher performs exactly one upstream call and returns the normalized value.
// It must not cache or retry on its own.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Cache is a read-through cache that serves stale entries when the upstream fails.
type Cache[T any] struct {
	opts           *Options
	store          Store
	sf             singleflight.Group
	circuitBreaker *gobreaker.CircuitBreaker
}

// fetchError marks a failure that came from the fetcher rather than the store.
type fetchError struct{ err error }

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

func New[T any](store Store, opts ...Option) (*Cache[T], error) {
	if store == nil {
		return nil, errors.New("invalid options: store must not be nil")
	}
	options := NewDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if err := options.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	var cb *gobreaker.CircuitBreaker
	if options.EnableCircuitBreaker {
		st := gobreaker.Settings{
			Name:        options.Namespace,
			MaxRequests: 1, // Allows a single request in the half-open state
			Timeout:     options.CircuitBreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= options.CircuitBreakerMaxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				options.Logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}
		cb = gobreaker.NewCircuitBreaker(st)
	}

	return &Cache[T]{
		opts:           options,
		store:          store,
		circuitBreaker: cb,
	}, nil
}

// Fetch returns the value for key, consulting the store first and the upstream through fn
// only when the stored entry is older than w.Fresh or absent.
//
// When fn fails and an entry of any age exists, that entry is returned with ModeStale and
// the failure text in Meta.Error. Without an entry the fetch error is returned unchanged.
// Store failures are returned wrapped in ErrStoreUnavailable and never fall back.
func (c *Cache[T]) Fetch(ctx context.Context, key string, w Window, fn Fetcher[T]) (Result[T], error) {
	var zero Result[T]
	if key == "" {
		return zero, fmt.Errorf("%w: empty cache key", ErrBadRequest)
	}
	if err := w.Validate(); err != nil {
		return zero, fmt.Errorf("gigcache: invalid window for key %q: %w", key, err)
	}

	prefixedKey := c.prefixedKey(key)
	entry, err := c.load(ctx, prefixedKey)
	if err != nil {
		return zero, err
	}

	now := c.opts.Clock()
	if Classify(entry, now, w.Fresh) == Fresh {
		c.opts.Metrics.IncMode(ModeFresh)
		c.opts.Logger.Debug("Cache hit (fresh)", "key", prefixedKey, "age", entry.Age(now))
		return Result[T]{Value: entry.Value, Meta: newMeta(key, ModeFresh, w, entry.Time())}, nil
	}

	refreshed, err := c.refreshOnce(ctx, prefixedKey, w, fn)
	if err != nil {
		var fe *fetchError
		if !errors.As(err, &fe) {
			return zero, err
		}
		if entry == nil {
			c.opts.Logger.Warn("Upstream fetch failed and no entry to fall back to", "key", prefixedKey, "kind", ErrorKind(fe.err), "error", fe.err)
			return zero, fe.err
		}
		c.opts.Metrics.IncMode(ModeStale)
		c.opts.Logger.Warn("Serving stale entry after upstream failure", "key", prefixedKey, "age", entry.Age(now), "kind", ErrorKind(fe.err), "error", fe.err)
		meta := newMeta(key, ModeStale, w, entry.Time())
		meta.Error = fe.err.Error()
		return Result[T]{Value: entry.Value, Meta: meta}, nil
	}

	mode := ModeMiss
	if entry != nil {
		mode = ModeRefreshed
	}
	c.opts.Metrics.IncMode(mode)
	c.opts.Logger.Info("Entry stored from upstream", "key", prefixedKey, "mode", mode, "keep", w.Keep)
	return Result[T]{Value: refreshed.Value, Meta: newMeta(key, mode, w, refreshed.Time())}, nil
}

func (c *Cache[T]) refreshOnce(ctx context.Context, prefixedKey string, w Window, fn Fetcher[T]) (payload.Entry[T], error) {
	if !c.opts.Coalesce {
		return c.refresh(ctx, prefixedKey, w, fn)
	}
	// The shared refresh outlives any single caller; each caller still stops waiting on its own ctx.
	ch := c.sf.DoChan(prefixedKey, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.CoalesceTimeout)
		defer cancel()
		return c.refresh(sctx, prefixedKey, w, fn)
	})
	select {
	case <-ctx.Done():
		return payload.Entry[T]{}, &fetchError{err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			c.opts.Logger.Debug("Joined in-flight refresh", "key", prefixedKey)
		}
		if res.Err != nil {
			return payload.Entry[T]{}, res.Err
		}
		return res.Val.(payload.Entry[T]), nil
	}
}

func (c *Cache[T]) refresh(ctx context.Context, prefixedKey string, w Window, fn Fetcher[T]) (payload.Entry[T], error) {
	value, err := c.fetchUpstream(ctx, prefixedKey, fn)
	if err != nil {
		return payload.Entry[T]{}, &fetchError{err: err}
	}
	entry := payload.New(value, c.opts.Clock())
	if err := c.save(ctx, prefixedKey, entry, w.Keep); err != nil {
		return payload.Entry[T]{}, err
	}
	return entry, nil
}

// fetchUpstream calls fn, retrying transient upstream errors up to Options.Retries times.
func (c *Cache[T]) fetchUpstream(ctx context.Context, prefixedKey string, fn Fetcher[T]) (T, error) {
	var zero T
	backoff := c.opts.RetryBackoff
	for attempt := 0; ; attempt++ {
		c.opts.Metrics.IncUpstreamFetches()
		start := time.Now()
		value, err := fn(ctx)
		c.opts.Metrics.ObserveUpstreamLatency(time.Since(start))
		if err == nil {
			return value, nil
		}
		c.opts.Metrics.IncUpstreamErrors(ErrorKind(err))
		if attempt >= c.opts.Retries || !retryable(err) {
			return zero, err
		}

		c.opts.Logger.Debug("Retrying upstream fetch", "key", prefixedKey, "attempt", attempt+1, "backoff", backoff, "error", err)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
		backoff *= 2
	}
}

func retryable(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.Transient()
}

func (c *Cache[T]) load(ctx context.Context, prefixedKey string) (*payload.Entry[T], error) {
	res, err := c.executeStore(func() (interface{}, error) {
		data, found, err := c.store.Get(ctx, prefixedKey)
		if err != nil || !found {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		c.opts.Metrics.IncStoreErrors()
		c.opts.Logger.Error("Failed to read from store", "key", prefixedKey, "error", err)
		return nil, fmt.Errorf("%w: get %q: %w", ErrStoreUnavailable, prefixedKey, err)
	}

	data, _ := res.([]byte)
	if data == nil {
		return nil, nil
	}
	var entry payload.Entry[T]
	if err := c.opts.Serializer.Unmarshal(data, &entry); err != nil {
		c.opts.Logger.Error("Failed to unmarshal stored entry, treating as absent", "key", prefixedKey, "error", err)
		return nil, nil
	}
	return &entry, nil
}

func (c *Cache[T]) save(ctx context.Context, prefixedKey string, entry payload.Entry[T], keep time.Duration) error {
	data, err := c.opts.Serializer.Marshal(entry)
	if err != nil {
		c.opts.Logger.Error("Failed to marshal entry", "key", prefixedKey, "error", err)
		return fmt.Errorf("gigcache: marshal entry %q: %w", prefixedKey, err)
	}
	_, err = c.executeStore(func() (interface{}, error) {
		return nil, c.store.Set(ctx, prefixedKey, data, keep)
	})
	if err != nil {
		c.opts.Metrics.IncStoreErrors()
		c.opts.Logger.Error("Failed to write to store", "key", prefixedKey, "error", err)
		return fmt.Errorf("%w: set %q: %w", ErrStoreUnavailable, prefixedKey, err)
	}
	return nil
}

func (c *Cache[T]) prefixedKey(key string) string {
	return fmt.Sprintf("%s:%s", c.opts.Namespace, key)
}

// executeStore wraps a store operation within the circuit breaker.
func (c *Cache[T]) executeStore(op func() (interface{}, error)) (interface{}, error) {
	if c.circuitBreaker == nil {
		return op()
	}
	return c.circuitBreaker.Execute(op)
}
