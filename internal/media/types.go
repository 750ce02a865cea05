// Package media holds the domain model shared by the dedupe, request and
// details services, independent of the downstream API's wire format.
package media

import (
	"sort"
	"strconv"
)

// MediaType identifies the kind of title.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"

	// MediaTypeAny is only meaningful as an expected type: no constraint.
	MediaTypeAny MediaType = "any"
)

// Valid reports whether t names a concrete, requestable media type.
func (t MediaType) Valid() bool {
	return t == MediaTypeMovie || t == MediaTypeTV
}

// ParseMediaType converts a wire value into a MediaType.
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(s) {
	case MediaTypeMovie:
		return MediaTypeMovie, true
	case MediaTypeTV:
		return MediaTypeTV, true
	default:
		return "", false
	}
}

// SearchCandidate is one row of a downstream search response.
type SearchCandidate struct {
	ID          int       `json:"id"`
	MediaType   MediaType `json:"mediaType"`
	Title       string    `json:"title"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
	Year        int       `json:"year,omitempty"`
	Rating      float64   `json:"rating,omitempty"`
	Overview    string    `json:"overview,omitempty"`
	PosterPath  string    `json:"posterPath,omitempty"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Page         int               `json:"page"`
	TotalPages   int               `json:"totalPages"`
	TotalResults int               `json:"totalResults"`
	Results      []SearchCandidate `json:"results"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Season is a season declared by the series metadata.
type Season struct {
	SeasonNumber int    `json:"seasonNumber"`
	EpisodeCount int    `json:"episodeCount"`
	AirDate      string `json:"airDate,omitempty"`
	Name         string `json:"name,omitempty"`
}

// SeasonStatus is the downstream service's library status for one season.
type SeasonStatus struct {
	SeasonNumber int         `json:"seasonNumber"`
	Status       MediaStatus `json:"status"`
}

// RequestRef is an existing request as seen by the downstream service.
type RequestRef struct {
	ID               int           `json:"id"`
	Status           RequestStatus `json:"status"`
	Is4K             bool          `json:"is4k,omitempty"`
	MediaType        MediaType     `json:"mediaType,omitempty"`
	MediaID          int           `json:"mediaId,omitempty"`
	TmdbID           int           `json:"tmdbId,omitempty"`
	MediaStatus      MediaStatus   `json:"mediaStatus,omitempty"`
	RequestedSeasons []int         `json:"requestedSeasons,omitempty"`
	Requester        string        `json:"requester,omitempty"`
	CreatedAt        string        `json:"createdAt,omitempty"`
	UpdatedAt        string        `json:"updatedAt,omitempty"`
}

// IsShowLevel reports whether the request names no specific seasons.
func (r RequestRef) IsShowLevel() bool {
	return len(r.RequestedSeasons) == 0
}

// Covers reports whether the request includes the given season.
// A show-level request covers every season.
func (r RequestRef) Covers(season int) bool {
	if r.IsShowLevel() {
		return true
	}
	for _, s := range r.RequestedSeasons {
		if s == season {
			return true
		}
	}
	return false
}

// MediaInfo is what the downstream service already tracks for a title.
type MediaInfo struct {
	ID       int            `json:"id"`
	TmdbID   int            `json:"tmdbId"`
	Status   MediaStatus    `json:"status"`
	Requests []RequestRef   `json:"requests,omitempty"`
	Seasons  []SeasonStatus `json:"seasons,omitempty"`
}

// MediaDetails is the full metadata record for a movie or series.
type MediaDetails struct {
	ID               int        `json:"id"`
	MediaType        MediaType  `json:"mediaType"`
	Title            string     `json:"title"`
	OriginalTitle    string     `json:"originalTitle,omitempty"`
	Overview         string     `json:"overview,omitempty"`
	ReleaseDate      string     `json:"releaseDate,omitempty"`
	PosterPath       string     `json:"posterPath,omitempty"`
	BackdropPath     string     `json:"backdropPath,omitempty"`
	Homepage         string     `json:"homepage,omitempty"`
	ProductionStatus string     `json:"status,omitempty"`
	Tagline          string     `json:"tagline,omitempty"`
	Genres           []Genre    `json:"genres,omitempty"`
	Rating           float64    `json:"rating,omitempty"`
	Popularity       float64    `json:"popularity,omitempty"`
	Runtime          int        `json:"runtime,omitempty"`
	NumberOfSeasons  int        `json:"numberOfSeasons,omitempty"`
	NumberOfEpisodes int        `json:"numberOfEpisodes,omitempty"`
	Seasons          []Season   `json:"seasons,omitempty"`
	Info             *MediaInfo `json:"mediaInfo,omitempty"`
}

// Year returns the release year, or 0 when the date is missing.
func (d *MediaDetails) Year() int {
	return YearOf(d.ReleaseDate)
}

// RegularSeasons returns declared seasons with a number above zero, sorted.
// Season 0 holds specials and is never part of a regular request.
func (d *MediaDetails) RegularSeasons() []Season {
	out := make([]Season, 0, len(d.Seasons))
	for _, s := range d.Seasons {
		if s.SeasonNumber > 0 {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeasonNumber < out[j].SeasonNumber })
	return out
}

// RegularSeasonNumbers returns the numbers of RegularSeasons.
func (d *MediaDetails) RegularSeasonNumbers() []int {
	seasons := d.RegularSeasons()
	nums := make([]int, len(seasons))
	for i, s := range seasons {
		nums[i] = s.SeasonNumber
	}
	return nums
}

// SeasonCount is the number of regular seasons the series declares.
func (d *MediaDetails) SeasonCount() int {
	count := d.NumberOfSeasons
	for _, s := range d.Seasons {
		if s.SeasonNumber > count {
			count = s.SeasonNumber
		}
	}
	return count
}

// Season looks up a declared season by number.
func (d *MediaDetails) Season(number int) (Season, bool) {
	for _, s := range d.Seasons {
		if s.SeasonNumber == number {
			return s, true
		}
	}
	return Season{}, false
}

// SeasonStatus returns the tracked status of a season, or StatusUnknown.
func (d *MediaDetails) SeasonStatus(number int) MediaStatus {
	if d.Info == nil {
		return StatusUnknown
	}
	for _, s := range d.Info.Seasons {
		if s.SeasonNumber == number {
			return s.Status
		}
	}
	return StatusUnknown
}

// Requests returns the existing requests, never nil-dereferencing Info.
func (d *MediaDetails) Requests() []RequestRef {
	if d.Info == nil {
		return nil
	}
	return d.Info.Requests
}

// LibraryStatus returns the show- or movie-level status, or StatusUnknown.
func (d *MediaDetails) LibraryStatus() MediaStatus {
	if d.Info == nil || d.Info.Status == 0 {
		return StatusUnknown
	}
	return d.Info.Status
}

// EpisodeCount sums the episode counts of the given seasons.
func (d *MediaDetails) EpisodeCount(seasons []int) int {
	total := 0
	for _, n := range seasons {
		if s, ok := d.Season(n); ok {
			total += s.EpisodeCount
		}
	}
	return total
}

// YearOf extracts the leading four-digit year from a YYYY-MM-DD date.
func YearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// RequestBody is the payload for creating a request.
type RequestBody struct {
	MediaType  MediaType `json:"mediaType"`
	MediaID    int       `json:"mediaId"`
	Seasons    []int     `json:"seasons,omitempty"`
	Is4K       bool      `json:"is4k,omitempty"`
	ServerID   *int      `json:"serverId,omitempty"`
	ProfileID  *int      `json:"profileId,omitempty"`
	RootFolder string    `json:"rootFolder,omitempty"`
}

// ListParams filters a request listing.
type ListParams struct {
	Take   int    `json:"take"`
	Skip   int    `json:"skip"`
	Filter string `json:"filter"`
	Sort   string `json:"sort"`
}

// PageInfo describes a paginated listing.
type PageInfo struct {
	Page     int `json:"page"`
	Pages    int `json:"pages"`
	PageSize int `json:"pageSize"`
	Results  int `json:"results"`
}

// RequestPage is one page of requests.
type RequestPage struct {
	PageInfo PageInfo     `json:"pageInfo"`
	Results  []RequestRef `json:"results"`
}
