package gigcache

import (
	"errors"
	"time"

	"github.com/orgball2608/gigcache/internal/payload"
)

// Window configures how long an entry is trusted and how long it is retained.
// Fresh bounds the age at which an entry is served without an upstream call;
// Keep bounds how long it stays in the store as a stale fallback candidate.
type Window struct {
	Fresh time.Duration
	Keep  time.Duration
}

// Validate checks that both durations are positive and Fresh <= Keep.
func (w Window) Validate() error {
	if w.Fresh <= 0 {
		return errors.New("window fresh duration must be positive")
	}
	if w.Keep <= 0 {
		return errors.New("window keep duration must be positive")
	}
	if w.Fresh > w.Keep {
		return errors.New("window fresh duration must not exceed keep duration")
	}
	return nil
}

// Freshness is the verdict of Classify.
type Freshness int

const (
	StaleOrAbsent Freshness = iota
	Fresh
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "stale_or_absent"
}

// Classify decides whether entry can be served without revalidation.
// A nil entry is always StaleOrAbsent.
func Classify[T any](entry *payload.Entry[T], now time.Time, fresh time.Duration) Freshness {
	if entry != nil && entry.IsFresh(now, fresh) {
		return Fresh
	}
	return StaleOrAbsent
}
