package overseerr

import (
	"github.com/jhomen368/overseerr-mcp/internal/media"
)

// SearchResponse is the response from /search.
type SearchResponse struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"totalPages"`
	TotalResults int            `json:"totalResults"`
	Results      []SearchResult `json:"results"`
}

// SearchResult is a single search row. Movies carry Title/ReleaseDate,
// series carry Name/FirstAirDate, people carry neither.
type SearchResult struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"mediaType"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	ReleaseDate  string  `json:"releaseDate,omitempty"`
	FirstAirDate string  `json:"firstAirDate,omitempty"`
	VoteAverage  float64 `json:"voteAverage,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"posterPath,omitempty"`
}

// Genre is a TMDB genre as returned by Overseerr.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the response from /movie/{id}.
type MovieDetails struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	OriginalTitle string     `json:"originalTitle,omitempty"`
	Overview      string     `json:"overview,omitempty"`
	ReleaseDate   string     `json:"releaseDate,omitempty"`
	PosterPath    string     `json:"posterPath,omitempty"`
	BackdropPath  string     `json:"backdropPath,omitempty"`
	Homepage      string     `json:"homepage,omitempty"`
	Status        string     `json:"status,omitempty"`
	Tagline       string     `json:"tagline,omitempty"`
	Genres        []Genre    `json:"genres,omitempty"`
	VoteAverage   float64    `json:"voteAverage,omitempty"`
	Popularity    float64    `json:"popularity,omitempty"`
	Runtime       int        `json:"runtime,omitempty"`
	MediaInfo     *MediaInfo `json:"mediaInfo,omitempty"`
}

// TVDetails is the response from /tv/{id}.
type TVDetails struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	OriginalName     string     `json:"originalName,omitempty"`
	Overview         string     `json:"overview,omitempty"`
	FirstAirDate     string     `json:"firstAirDate,omitempty"`
	PosterPath       string     `json:"posterPath,omitempty"`
	BackdropPath     string     `json:"backdropPath,omitempty"`
	Homepage         string     `json:"homepage,omitempty"`
	Status           string     `json:"status,omitempty"`
	Tagline          string     `json:"tagline,omitempty"`
	Genres           []Genre    `json:"genres,omitempty"`
	VoteAverage      float64    `json:"voteAverage,omitempty"`
	Popularity       float64    `json:"popularity,omitempty"`
	EpisodeRunTime   []int      `json:"episodeRunTime,omitempty"`
	NumberOfSeasons  int        `json:"numberOfSeasons"`
	NumberOfEpisodes int        `json:"numberOfEpisodes"`
	Seasons          []TVSeason `json:"seasons"`
	MediaInfo        *MediaInfo `json:"mediaInfo,omitempty"`
}

// TVSeason is a season declared by the series metadata.
type TVSeason struct {
	ID           int    `json:"id"`
	SeasonNumber int    `json:"seasonNumber"`
	EpisodeCount int    `json:"episodeCount"`
	AirDate      string `json:"airDate,omitempty"`
	Name         string `json:"name,omitempty"`
}

// MediaInfo is Overseerr's own record of a title.
type MediaInfo struct {
	ID        int          `json:"id"`
	TmdbID    int          `json:"tmdbId"`
	MediaType string       `json:"mediaType,omitempty"`
	Status    int          `json:"status"`
	Requests  []Request    `json:"requests,omitempty"`
	Seasons   []SeasonInfo `json:"seasons,omitempty"`
}

// SeasonInfo is the library status of one season.
type SeasonInfo struct {
	ID           int `json:"id"`
	SeasonNumber int `json:"seasonNumber"`
	Status       int `json:"status"`
}

// Request is a media request.
type Request struct {
	ID          int         `json:"id"`
	Status      int         `json:"status"`
	Is4K        bool        `json:"is4k"`
	Type        string      `json:"type,omitempty"`
	Media       *MediaInfo  `json:"media,omitempty"`
	Seasons     []SeasonReq `json:"seasons,omitempty"`
	RequestedBy *User       `json:"requestedBy,omitempty"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	UpdatedAt   string      `json:"updatedAt,omitempty"`
}

// SeasonReq is one season of a request.
type SeasonReq struct {
	ID           int `json:"id"`
	SeasonNumber int `json:"seasonNumber"`
}

// User is the requester.
type User struct {
	ID          int    `json:"id"`
	Email       string `json:"email,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// RequestsResponse is the response from GET /request.
type RequestsResponse struct {
	PageInfo struct {
		Page     int `json:"page"`
		Pages    int `json:"pages"`
		PageSize int `json:"pageSize"`
		Results  int `json:"results"`
	} `json:"pageInfo"`
	Results []Request `json:"results"`
}

// StatusResponse is the response from /status.
type StatusResponse struct {
	Version         string `json:"version"`
	CommitTag       string `json:"commitTag,omitempty"`
	UpdateAvailable bool   `json:"updateAvailable"`
	RestartRequired bool   `json:"restartRequired"`
}

// ErrorResponse is the error body Overseerr returns.
type ErrorResponse struct {
	Message string `json:"message"`
}

func (r SearchResult) toCandidate() media.SearchCandidate {
	c := media.SearchCandidate{
		ID:          r.ID,
		MediaType:   media.MediaType(r.MediaType),
		Title:       r.Title,
		ReleaseDate: r.ReleaseDate,
		Rating:      r.VoteAverage,
		Overview:    r.Overview,
		PosterPath:  r.PosterPath,
	}
	if c.Title == "" {
		c.Title = r.Name
	}
	if c.ReleaseDate == "" {
		c.ReleaseDate = r.FirstAirDate
	}
	c.Year = media.YearOf(c.ReleaseDate)
	return c
}

func genres(in []Genre) []media.Genre {
	if len(in) == 0 {
		return nil
	}
	out := make([]media.Genre, len(in))
	for i, g := range in {
		out[i] = media.Genre{ID: g.ID, Name: g.Name}
	}
	return out
}

func (m MovieDetails) toDetails() *media.MediaDetails {
	return &media.MediaDetails{
		ID:               m.ID,
		MediaType:        media.MediaTypeMovie,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		Overview:         m.Overview,
		ReleaseDate:      m.ReleaseDate,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		Homepage:         m.Homepage,
		ProductionStatus: m.Status,
		Tagline:          m.Tagline,
		Genres:           genres(m.Genres),
		Rating:           m.VoteAverage,
		Popularity:       m.Popularity,
		Runtime:          m.Runtime,
		Info:             m.MediaInfo.toInfo(media.MediaTypeMovie),
	}
}

func (t TVDetails) toDetails() *media.MediaDetails {
	d := &media.MediaDetails{
		ID:               t.ID,
		MediaType:        media.MediaTypeTV,
		Title:            t.Name,
		OriginalTitle:    t.OriginalName,
		Overview:         t.Overview,
		ReleaseDate:      t.FirstAirDate,
		PosterPath:       t.PosterPath,
		BackdropPath:     t.BackdropPath,
		Homepage:         t.Homepage,
		ProductionStatus: t.Status,
		Tagline:          t.Tagline,
		Genres:           genres(t.Genres),
		Rating:           t.VoteAverage,
		Popularity:       t.Popularity,
		NumberOfSeasons:  t.NumberOfSeasons,
		NumberOfEpisodes: t.NumberOfEpisodes,
		Info:             t.MediaInfo.toInfo(media.MediaTypeTV),
	}
	if len(t.EpisodeRunTime) > 0 {
		d.Runtime = t.EpisodeRunTime[0]
	}
	for _, s := range t.Seasons {
		d.Seasons = append(d.Seasons, media.Season{
			SeasonNumber: s.SeasonNumber,
			EpisodeCount: s.EpisodeCount,
			AirDate:      s.AirDate,
			Name:         s.Name,
		})
	}
	return d
}

func (m *MediaInfo) toInfo(mediaType media.MediaType) *media.MediaInfo {
	if m == nil {
		return nil
	}
	info := &media.MediaInfo{
		ID:     m.ID,
		TmdbID: m.TmdbID,
		Status: media.MediaStatus(m.Status),
	}
	for _, s := range m.Seasons {
		info.Seasons = append(info.Seasons, media.SeasonStatus{
			SeasonNumber: s.SeasonNumber,
			Status:       media.MediaStatus(s.Status),
		})
	}
	for _, r := range m.Requests {
		ref := r.toRef()
		if ref.MediaType == "" {
			ref.MediaType = mediaType
		}
		if ref.TmdbID == 0 {
			ref.TmdbID = m.TmdbID
		}
		if ref.MediaStatus == 0 {
			ref.MediaStatus = media.MediaStatus(m.Status)
		}
		info.Requests = append(info.Requests, ref)
	}
	return info
}

func (r Request) toRef() media.RequestRef {
	ref := media.RequestRef{
		ID:        r.ID,
		Status:    media.RequestStatus(r.Status),
		Is4K:      r.Is4K,
		MediaType: media.MediaType(r.Type),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Media != nil {
		ref.MediaID = r.Media.ID
		ref.TmdbID = r.Media.TmdbID
		ref.MediaStatus = media.MediaStatus(r.Media.Status)
		if ref.MediaType == "" {
			ref.MediaType = media.MediaType(r.Media.MediaType)
		}
	}
	for _, s := range r.Seasons {
		ref.RequestedSeasons = append(ref.RequestedSeasons, s.SeasonNumber)
	}
	if r.RequestedBy != nil {
		ref.Requester = r.RequestedBy.DisplayName
		if ref.Requester == "" {
			ref.Requester = r.RequestedBy.Username
		}
		if ref.Requester == "" {
			ref.Requester = r.RequestedBy.Email
		}
	}
	return ref
}
