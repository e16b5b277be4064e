package gigcache

import (
	"errors"
	"time"
)

// Metrics defines the interface for tracking proxy behavior.
type Metrics interface {
	IncMode(mode Mode)
	IncUpstreamFetches()
	IncUpstreamErrors(kind string)
	IncStoreErrors()
	ObserveUpstreamLatency(d time.Duration)
}

// noOpMetrics is a default implementation that does nothing.
type noOpMetrics struct{}

func (m *noOpMetrics) IncMode(Mode)                           {}
func (m *noOpMetrics) IncUpstreamFetches()                    {}
func (m *noOpMetrics) IncUpstreamErrors(string)               {}
func (m *noOpMetrics) IncStoreErrors()                        {}
func (m *noOpMetrics) ObserveUpstreamLatency(d time.Duration) {}

// ErrorKind labels a fetch failure for metrics and logs.
func ErrorKind(err error) string {
	var upErr *UpstreamError
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.As(err, &upErr):
		return "upstream_error"
	default:
		return "other"
	}
}
