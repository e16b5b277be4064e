package setlist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/orgball2608/gigcache"
)

// Getter performs one upstream GET and returns the raw 2xx body. Path segments
// are passed unescaped.
type Getter interface {
	Get(ctx context.Context, segments []string, query url.Values) ([]byte, error)
}

// Windows holds the freshness windows per resource.
// The first tour page changes whenever a new show is announced; older pages and
// individual shows are effectively immutable.
type Windows struct {
	FirstPage gigcache.Window
	History   gigcache.Window
	Show      gigcache.Window
}

func DefaultWindows() Windows {
	return Windows{
		FirstPage: gigcache.Window{Fresh: 30 * time.Second, Keep: 7 * 24 * time.Hour},
		History:   gigcache.Window{Fresh: 24 * time.Hour, Keep: 30 * 24 * time.Hour},
		Show:      gigcache.Window{Fresh: 24 * time.Hour, Keep: 30 * 24 * time.Hour},
	}
}

func (w Windows) Validate() error {
	if err := w.FirstPage.Validate(); err != nil {
		return fmt.Errorf("first page: %w", err)
	}
	if err := w.History.Validate(); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if err := w.Show.Validate(); err != nil {
		return fmt.Errorf("show: %w", err)
	}
	return nil
}

// TourKey is the cache key of one page of an artist's shows.
func TourKey(artistMBID string, page int) string {
	return "tour:" + artistMBID + ":page:" + strconv.Itoa(page)
}

// ShowKey is the cache key of a single show.
func ShowKey(id string) string { return "show:" + id }

type Service struct {
	artistMBID string
	upstream   Getter
	windows    Windows
	tours      *gigcache.Cache[TourPage]
	shows      *gigcache.Cache[Show]
}

// NewService wires both resources to one store. opts apply to both caches.
func NewService(artistMBID string, upstream Getter, store gigcache.Store, windows Windows, opts ...gigcache.Option) (*Service, error) {
	if strings.TrimSpace(artistMBID) == "" {
		return nil, errors.New("setlist: artist MBID is required")
	}
	if err := windows.Validate(); err != nil {
		return nil, fmt.Errorf("setlist: invalid windows: %w", err)
	}
	tours, err := gigcache.New[TourPage](store, opts...)
	if err != nil {
		return nil, fmt.Errorf("setlist: tour cache: %w", err)
	}
	shows, err := gigcache.New[Show](store, opts...)
	if err != nil {
		return nil, fmt.Errorf("setlist: show cache: %w", err)
	}
	return &Service{
		artistMBID: artistMBID,
		upstream:   upstream,
		windows:    windows,
		tours:      tours,
		shows:      shows,
	}, nil
}

// TourPage returns page (1-based) of the artist's shows.
func (s *Service) TourPage(ctx context.Context, page int) (gigcache.Result[TourPage], error) {
	if page < 1 {
		return gigcache.Result[TourPage]{}, fmt.Errorf("%w: page must be >= 1, got %d", gigcache.ErrBadRequest, page)
	}
	w := s.windows.History
	if page == 1 {
		w = s.windows.FirstPage
	}
	return s.tours.Fetch(ctx, TourKey(s.artistMBID, page), w, func(ctx context.Context) (TourPage, error) {
		body, err := s.upstream.Get(ctx, []string{"artist", s.artistMBID, "setlists"}, url.Values{"p": {strconv.Itoa(page)}})
		if err != nil {
			return TourPage{}, err
		}
		return NormalizeTourPage(body)
	})
}

// Show returns a single show by its upstream id.
func (s *Service) Show(ctx context.Context, id string) (gigcache.Result[Show], error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return gigcache.Result[Show]{}, fmt.Errorf("%w: missing show id", gigcache.ErrBadRequest)
	}
	if id == "." || id == ".." {
		return gigcache.Result[Show]{}, fmt.Errorf("%w: invalid show id %q", gigcache.ErrBadRequest, id)
	}
	return s.shows.Fetch(ctx, ShowKey(id), s.windows.Show, func(ctx context.Context) (Show, error) {
		body, err := s.upstream.Get(ctx, []string{"setlist", id}, nil)
		if err != nil {
			return Show{}, err
		}
		return NormalizeShow(body)
	})
}
