package gigcache

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

const (
	defaultNamespace = "gigcache"
)

// Options contains all configuration for the cache proxy.
type Options struct {
	Namespace  string
	Serializer Serializer
	Logger     *slog.Logger
	Metrics    Metrics
	// Clock returns the current time. Tests replace it to simulate entry ageing.
	Clock func() time.Time

	// Extra attempts for transient upstream failures (5xx, transport). Zero disables retries.
	Retries int
	// Wait time between retry attempts. Doubles after every attempt.
	RetryBackoff time.Duration
	// Collapse concurrent refreshes of the same key inside this process into one upstream call.
	Coalesce bool
	// Upper bound on a shared refresh, which is detached from the cancellation of its callers.
	CoalesceTimeout time.Duration

	// Circuit Breaker settings for store calls
	EnableCircuitBreaker bool
	// Number of consecutive failures before opening the circuit.
	CircuitBreakerMaxFailures uint32
	// Period of time to wait before transitioning from open to half-open.
	CircuitBreakerTimeout time.Duration
}

// Option is a function to configure Options.
type Option func(*Options)

// NewDefaultOptions creates a default configuration.
func NewDefaultOptions() *Options {
	return &Options{
		Namespace:    defaultNamespace,
		Serializer:   JSONSerializer{},
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      &noOpMetrics{},
		Clock:        time.Now,
		Retries:      0,
		RetryBackoff: 200 * time.Millisecond,
		Coalesce:     false,

		CoalesceTimeout: 30 * time.Second,

		EnableCircuitBreaker:      true,
		CircuitBreakerMaxFailures: 5,
		CircuitBreakerTimeout:     5 * time.Second,
	}
}

// WithNamespace sets a prefix for all keys in the store.
func WithNamespace(ns string) Option {
	return func(o *Options) { o.Namespace = ns }
}

// WithSerializer allows using a custom serializer (e.g., MsgPack).
func WithSerializer(s Serializer) Option {
	return func(o *Options) { o.Serializer = s }
}

// WithLogger allows integrating the application's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics allows integrating a metrics system.
func WithMetrics(m Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) { o.Clock = clock }
}

// WithRetries sets how many extra upstream attempts are made for transient failures
// and the initial backoff between them.
func WithRetries(retries int, backoff time.Duration) Option {
	return func(o *Options) {
		o.Retries = retries
		o.RetryBackoff = backoff
	}
}

// WithCoalescing enables or disables in-process deduplication of concurrent refreshes.
func WithCoalescing(enable bool) Option {
	return func(o *Options) { o.Coalesce = enable }
}

// WithCoalesceTimeout bounds how long a shared refresh may run.
func WithCoalesceTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.CoalesceTimeout = timeout }
}

// WithCircuitBreaker enables the circuit breaker.
func WithCircuitBreaker(enable bool) Option {
	return func(o *Options) { o.EnableCircuitBreaker = enable }
}

// WithCircuitBreakerMaxFailures sets the number of consecutive failures before opening the circuit.
func WithCircuitBreakerMaxFailures(failures uint32) Option {
	return func(o *Options) { o.CircuitBreakerMaxFailures = failures }
}

// WithCircuitBreakerTimeout sets the period of time to wait before transitioning from open to half-open.
func WithCircuitBreakerTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.CircuitBreakerTimeout = timeout }
}

func (o *Options) validate() error {
	if o.Serializer == nil {
		return errors.New("Serializer must not be nil")
	}
	if o.Logger == nil {
		return errors.New("Logger must not be nil")
	}
	if o.Metrics == nil {
		return errors.New("Metrics must not be nil")
	}
	if o.Clock == nil {
		return errors.New("Clock must not be nil")
	}
	if o.Retries < 0 {
		return errors.New("Retries must be non-negative")
	}
	if o.Retries > 0 && o.RetryBackoff < 0 {
		return errors.New("RetryBackoff must be non-negative")
	}
	if o.Coalesce && o.CoalesceTimeout <= 0 {
		return errors.New("CoalesceTimeout must be positive")
	}
	if o.EnableCircuitBreaker {
		if o.CircuitBreakerMaxFailures <= 0 {
			return errors.New("CircuitBreakerMaxFailures must be positive")
		}
		if o.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive")
		}
	}
	return nil
}
