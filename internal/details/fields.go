// Package details extracts selectable metadata fields for titles.
package details

import (
	"strings"

	"github.com/jhomen368/overseerr-mcp/internal/batch"
	"github.com/jhomen368/overseerr-mcp/internal/media"
)

// Field names a selectable piece of title metadata.
type Field string

const (
	FieldMediaType        Field = "mediaType"
	FieldYear             Field = "year"
	FieldPosterPath       Field = "posterPath"
	FieldRating           Field = "rating"
	FieldOverview         Field = "overview"
	FieldGenres           Field = "genres"
	FieldRuntime          Field = "runtime"
	FieldNumberOfSeasons  Field = "numberOfSeasons"
	FieldNumberOfEpisodes Field = "numberOfEpisodes"
	FieldSeasons          Field = "seasons"
	FieldReleaseDate      Field = "releaseDate"
	FieldFirstAirDate     Field = "firstAirDate"
	FieldOriginalTitle    Field = "originalTitle"
	FieldPopularity       Field = "popularity"
	FieldBackdropPath     Field = "backdropPath"
	FieldHomepage         Field = "homepage"
	FieldStatus           Field = "status"
	FieldTagline          Field = "tagline"
	FieldMediaStatus      Field = "mediaStatus"
	FieldHasRequests      Field = "hasRequests"
	FieldRequestCount     Field = "requestCount"
)

// AllFields lists every field in display order.
var AllFields = []Field{
	FieldMediaType, FieldYear, FieldPosterPath,
	FieldRating, FieldOverview, FieldGenres, FieldRuntime,
	FieldNumberOfSeasons, FieldNumberOfEpisodes, FieldSeasons,
	FieldReleaseDate, FieldFirstAirDate, FieldOriginalTitle, FieldPopularity,
	FieldBackdropPath, FieldHomepage, FieldStatus, FieldTagline,
	FieldMediaStatus, FieldHasRequests, FieldRequestCount,
}

// Level is a preset field selection.
type Level string

const (
	LevelBasic    Level = "basic"
	LevelStandard Level = "standard"
	LevelFull     Level = "full"
)

var basicFields = []Field{FieldMediaType, FieldYear, FieldPosterPath, FieldMediaStatus}

var standardFields = append(append([]Field{}, basicFields...),
	FieldRating, FieldOverview, FieldGenres, FieldRuntime,
	FieldNumberOfSeasons, FieldNumberOfEpisodes, FieldHasRequests, FieldRequestCount,
)

// Fields returns the field set of a level.
func (l Level) Fields() ([]Field, error) {
	switch l {
	case LevelBasic:
		return basicFields, nil
	case LevelStandard, "":
		return standardFields, nil
	case LevelFull:
		return AllFields, nil
	default:
		return nil, batch.Invalid("level", "unknown level %q (want basic, standard or full)", l)
	}
}

// ParseFields converts names into fields, rejecting unknown ones. Duplicates
// are dropped and order is kept.
func ParseFields(names []string) ([]Field, error) {
	known := make(map[Field]struct{}, len(AllFields))
	for _, f := range AllFields {
		known[f] = struct{}{}
	}

	seen := make(map[Field]struct{}, len(names))
	out := make([]Field, 0, len(names))
	var unknown []string
	for _, n := range names {
		f := Field(strings.TrimSpace(n))
		if _, ok := known[f]; !ok {
			unknown = append(unknown, n)
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if len(unknown) > 0 {
		return nil, batch.Invalid("fields", "unknown fields: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// SeasonInfo is a season with its library status.
type SeasonInfo struct {
	SeasonNumber int    `json:"seasonNumber"`
	EpisodeCount int    `json:"episodeCount"`
	AirDate      string `json:"airDate,omitempty"`
	Status       string `json:"status"`
}

// Extract returns the value of one field. ok is false when the title has no
// value for it, such as season counts on a movie.
func Extract(field Field, d *media.MediaDetails) (value any, ok bool) {
	isTV := d.MediaType == media.MediaTypeTV

	switch field {
	case FieldMediaType:
		return d.MediaType, d.MediaType != ""
	case FieldYear:
		y := d.Year()
		return y, y > 0
	case FieldPosterPath:
		return d.PosterPath, d.PosterPath != ""
	case FieldRating:
		return d.Rating, d.Rating > 0
	case FieldOverview:
		return d.Overview, d.Overview != ""
	case FieldGenres:
		names := make([]string, len(d.Genres))
		for i, g := range d.Genres {
			names[i] = g.Name
		}
		return names, len(names) > 0
	case FieldRuntime:
		return d.Runtime, d.Runtime > 0
	case FieldNumberOfSeasons:
		return d.SeasonCount(), isTV
	case FieldNumberOfEpisodes:
		return d.NumberOfEpisodes, isTV
	case FieldSeasons:
		if !isTV {
			return nil, false
		}
		seasons := d.RegularSeasons()
		out := make([]SeasonInfo, len(seasons))
		for i, s := range seasons {
			out[i] = seasonInfo(d, s)
		}
		return out, true
	case FieldReleaseDate:
		return d.ReleaseDate, !isTV && d.ReleaseDate != ""
	case FieldFirstAirDate:
		return d.ReleaseDate, isTV && d.ReleaseDate != ""
	case FieldOriginalTitle:
		return d.OriginalTitle, d.OriginalTitle != ""
	case FieldPopularity:
		return d.Popularity, d.Popularity > 0
	case FieldBackdropPath:
		return d.BackdropPath, d.BackdropPath != ""
	case FieldHomepage:
		return d.Homepage, d.Homepage != ""
	case FieldStatus:
		return d.ProductionStatus, d.ProductionStatus != ""
	case FieldTagline:
		return d.Tagline, d.Tagline != ""
	case FieldMediaStatus:
		return d.LibraryStatus().String(), true
	case FieldHasRequests:
		return len(d.Requests()) > 0, true
	case FieldRequestCount:
		return len(d.Requests()), true
	}
	return nil, false
}

func seasonInfo(d *media.MediaDetails, s media.Season) SeasonInfo {
	return SeasonInfo{
		SeasonNumber: s.SeasonNumber,
		EpisodeCount: s.EpisodeCount,
		AirDate:      s.AirDate,
		Status:       d.SeasonStatus(s.SeasonNumber).String(),
	}
}

// TargetSeason describes one season of a series, or nil when the series
// does not declare it.
func TargetSeason(d *media.MediaDetails, number int) *SeasonInfo {
	s, ok := d.Season(number)
	if !ok {
		return nil
	}
	info := seasonInfo(d, s)
	return &info
}

// Record is an extracted field set keyed by field name.
type Record map[string]any

// Build extracts the given fields into a Record, skipping absent values.
func Build(d *media.MediaDetails, fields []Field) Record {
	rec := make(Record, len(fields))
	for _, f := range fields {
		if v, ok := Extract(f, d); ok {
			rec[string(f)] = v
		}
	}
	return rec
}
