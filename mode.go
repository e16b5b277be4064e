package gigcache

import "time"

// Mode reports which path Fetch took to produce a value.
type Mode string

const (
	ModeFresh     Mode = "fresh"
	ModeRefreshed Mode = "refreshed"
	ModeMiss      Mode = "miss"
	ModeStale     Mode = "stale"
)

// Modes lists every mode, in the order the orchestrator evaluates them.
var Modes = []Mode{ModeFresh, ModeRefreshed, ModeMiss, ModeStale}

// Meta describes how a Result was produced. It is the proxy's observability signal
// and is meant to be returned to callers alongside the value.
type Meta struct {
	Key          string    `json:"key"`
	Mode         Mode      `json:"mode"`
	FreshSeconds int64     `json:"freshSeconds"`
	KeepSeconds  int64     `json:"keepSeconds"`
	FetchedAt    time.Time `json:"fetchedAt"`
	// Error carries the suppressed fetch failure when Mode is ModeStale.
	Error string `json:"error,omitempty"`
}

// Result is a value returned by Fetch together with its Meta.
type Result[T any] struct {
	Value T    `json:"value"`
	Meta  Meta `json:"meta"`
}

func newMeta(key string, mode Mode, w Window, fetchedAt time.Time) Meta {
	return Meta{
		Key:          key,
		Mode:         mode,
		FreshSeconds: int64(w.Fresh / time.Second),
		KeepSeconds:  int64(w.Keep / time.Second),
		FetchedAt:    fetchedAt.UTC(),
	}
}
