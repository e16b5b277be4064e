package gigcache

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited is returned by fetchers when the upstream answered 429.
	ErrRateLimited = errors.New("gigcache: upstream rate limit exceeded")
	// ErrInvalidPayload is returned by fetchers when a 2xx payload cannot be normalized.
	ErrInvalidPayload = errors.New("gigcache: upstream payload not found or invalid")
	// ErrStoreUnavailable wraps every failure of the cache store itself.
	ErrStoreUnavailable = errors.New("gigcache: cache store unavailable")
	// ErrBadRequest marks requests rejected before any cache or upstream interaction.
	ErrBadRequest = errors.New("gigcache: bad request")
)

// UpstreamError is a non-2xx response or a transport failure talking to the upstream.
// Transport failures carry http.StatusBadGateway.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gigcache: upstream error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gigcache: upstream error (status %d): %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Transient reports whether retrying the same request may succeed.
func (e *UpstreamError) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == 0
}

// StatusCode maps an error returned by Fetch to the HTTP status surfaced to callers.
func StatusCode(err error) int {
	var upErr *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusInternalServerError
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidPayload):
		return http.StatusNotFound
	case errors.As(err, &upErr):
		if upErr.StatusCode == 0 {
			return http.StatusBadGateway
		}
		return upErr.StatusCode
	default:
		return http.StatusInternalServerError
	}
}
