package setlist

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/orgball2608/gigcache"
)

const upstreamDateLayout = "02-01-2006"

// NormalizeShow parses a single setlist payload. A payload without an id is rejected
// with gigcache.ErrInvalidPayload.
func NormalizeShow(body []byte) (Show, error) {
	var raw rawSetlist
	if err := json.Unmarshal(body, &raw); err != nil {
		return Show{}, fmt.Errorf("%w: decode setlist: %v", gigcache.ErrInvalidPayload, err)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return Show{}, fmt.Errorf("%w: setlist without id", gigcache.ErrInvalidPayload)
	}
	return normalizeSetlist(raw), nil
}

// NormalizeTourPage parses a page of setlists. Items without an id are dropped.
// A payload without a page number is rejected with gigcache.ErrInvalidPayload.
func NormalizeTourPage(body []byte) (TourPage, error) {
	var raw rawSetlistPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return TourPage{}, fmt.Errorf("%w: decode setlist page: %v", gigcache.ErrInvalidPayload, err)
	}
	if raw.Page <= 0 {
		return TourPage{}, fmt.Errorf("%w: setlist page without page number", gigcache.ErrInvalidPayload)
	}

	page := TourPage{
		Page:         raw.Page,
		ItemsPerPage: raw.ItemsPerPage,
		Total:        raw.Total,
		Shows:        make([]Show, 0, len(raw.Setlist)),
	}
	if raw.ItemsPerPage > 0 {
		page.TotalPages = (raw.Total + raw.ItemsPerPage - 1) / raw.ItemsPerPage
	}
	for _, item := range raw.Setlist {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		page.Shows = append(page.Shows, normalizeSetlist(item))
	}
	return page, nil
}

func normalizeSetlist(raw rawSetlist) Show {
	show := Show{
		ID:          raw.ID,
		EventDate:   isoDate(raw.EventDate),
		LastUpdated: raw.LastUpdated,
		Info:        raw.Info,
		URL:         raw.URL,
		Sets:        []Set{},
	}
	if raw.Artist != nil {
		show.Artist = Artist{MBID: raw.Artist.MBID, Name: raw.Artist.Name}
	}
	if raw.Tour != nil {
		show.Tour = raw.Tour.Name
	}
	if raw.Venue != nil {
		show.Venue = normalizeVenue(raw.Venue)
	}
	if raw.Sets != nil {
		for _, s := range raw.Sets.Set {
			set := Set{Name: s.Name, Encore: s.Encore, Songs: make([]Song, 0, len(s.Song))}
			for _, song := range s.Song {
				set.Songs = append(set.Songs, normalizeSong(song))
			}
			show.SongCount += len(set.Songs)
			show.Sets = append(show.Sets, set)
		}
	}
	return show
}

func normalizeVenue(raw *rawVenue) Venue {
	v := Venue{ID: raw.ID, Name: raw.Name}
	city := raw.City
	if city == nil {
		return v
	}
	v.City = city.Name
	v.State = city.State
	if city.Country != nil {
		v.CountryCode = city.Country.Code
		v.Country = city.Country.Name
	}
	if city.Coords != nil && city.Coords.Lat != nil && city.Coords.Long != nil {
		v.Coords = &Coords{Lat: *city.Coords.Lat, Long: *city.Coords.Long}
	}
	return v
}

func normalizeSong(raw rawSong) Song {
	s := Song{Name: raw.Name, Info: raw.Info, Tape: raw.Tape}
	if raw.Cover != nil {
		s.CoverOf = raw.Cover.Name
	}
	if raw.With != nil {
		s.With = raw.With.Name
	}
	return s
}

// isoDate converts dd-MM-yyyy to yyyy-MM-dd; anything unparseable becomes "".
func isoDate(s string) string {
	t, err := time.Parse(upstreamDateLayout, s)
	if err != nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
