// Package setlist binds the concert-data upstream to the cache proxy: it builds
// cache keys, normalizes upstream payloads and picks a freshness window per resource.
package setlist

// Show is a normalized concert with its setlist. Every field is always populated:
// missing strings are "", missing lists are empty and Coords is null when unknown.
type Show struct {
	ID          string `json:"id"`
	EventDate   string `json:"eventDate"` // yyyy-mm-dd
	LastUpdated string `json:"lastUpdated"`
	Artist      Artist `json:"artist"`
	Venue       Venue  `json:"venue"`
	Tour        string `json:"tour"`
	Info        string `json:"info"`
	URL         string `json:"url"`
	Sets        []Set  `json:"sets"`
	SongCount   int    `json:"songCount"`
}

type Artist struct {
	MBID string `json:"mbid"`
	Name string `json:"name"`
}

type Venue struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	CountryCode string  `json:"countryCode"`
	Country     string  `json:"country"`
	Coords      *Coords `json:"coords"`
}

type Coords struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

type Set struct {
	Name   string `json:"name"`
	Encore int    `json:"encore"`
	Songs  []Song `json:"songs"`
}

type Song struct {
	Name    string `json:"name"`
	Info    string `json:"info"`
	Tape    bool   `json:"tape"`
	CoverOf string `json:"coverOf"`
	With    string `json:"with"`
}

// TourPage is one page of an artist's show listing.
type TourPage struct {
	Page         int    `json:"page"`
	ItemsPerPage int    `json:"itemsPerPage"`
	Total        int    `json:"total"`
	TotalPages   int    `json:"totalPages"`
	Shows        []Show `json:"shows"`
}

// Raw upstream shapes. Every field is optional upstream.

type rawSetlistPage struct {
	Type         string       `json:"type"`
	ItemsPerPage int          `json:"itemsPerPage"`
	Page         int          `json:"page"`
	Total        int          `json:"total"`
	Setlist      []rawSetlist `json:"setlist"`
}

type rawSetlist struct {
	ID          string     `json:"id"`
	EventDate   string     `json:"eventDate"`
	LastUpdated string     `json:"lastUpdated"`
	Artist      *rawArtist `json:"artist"`
	Venue       *rawVenue  `json:"venue"`
	Tour        *struct {
		Name string `json:"name"`
	} `json:"tour"`
	Sets *struct {
		Set []rawSet `json:"set"`
	} `json:"sets"`
	Info string `json:"info"`
	URL  string `json:"url"`
}

type rawArtist struct {
	MBID string `json:"mbid"`
	Name string `json:"name"`
}

type rawVenue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City *struct {
		Name      string `json:"name"`
		State     string `json:"state"`
		StateCode string `json:"stateCode"`
		Coords    *struct {
			Lat  *float64 `json:"lat"`
			Long *float64 `json:"long"`
		} `json:"coords"`
		Country *struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"country"`
	} `json:"city"`
}

type rawSet struct {
	Name   string    `json:"name"`
	Encore int       `json:"encore"`
	Song   []rawSong `json:"song"`
}

type rawSong struct {
	Name  string     `json:"name"`
	Info  string     `json:"info"`
	Tape  bool       `json:"tape"`
	Cover *rawArtist `json:"cover"`
	With  *rawArtist `json:"with"`
}
