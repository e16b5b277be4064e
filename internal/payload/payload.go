package payload

import "time"

// Entry is the data structure stored in the cache.
// It is only ever written after a successful upstream fetch and is replaced wholesale.
type Entry[T any] struct {
	FetchedAt int64 `json:"fetchedAt" msgpack:"fetchedAt"` // ms since epoch
	Value     T     `json:"value" msgpack:"value"`
}

// New stamps value with the fetch time.
func New[T any](value T, fetchedAt time.Time) Entry[T] {
	return Entry[T]{FetchedAt: fetchedAt.UnixMilli(), Value: value}
}

// Time returns FetchedAt as a time.Time.
func (e *Entry[T]) Time() time.Time {
	return time.UnixMilli(e.FetchedAt)
}

// Age returns how long ago the entry was fetched relative to now.
func (e *Entry[T]) Age(now time.Time) time.Duration {
	return now.Sub(e.Time())
}

// IsFresh reports whether the entry may be served without asking the upstream.
// An entry aged exactly fresh is still fresh.
func (e *Entry[T]) IsFresh(now time.Time, fresh time.Duration) bool {
	if fresh <= 0 {
		return false
	}
	return float64(now.UnixMilli()-e.FetchedAt)/1000 <= fresh.Seconds()
}
