package details

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhomen368/overseerr-mcp/internal/batch"
	"github.com/jhomen368/overseerr-mcp/internal/cache"
	"github.com/jhomen368/overseerr-mcp/internal/catalog"
	"github.com/jhomen368/overseerr-mcp/internal/media"
	"github.com/jhomen368/overseerr-mcp/internal/testutil"
)

func aot() *media.MediaDetails {
	return &media.MediaDetails{
		ID:               1429,
		MediaType:        media.MediaTypeTV,
		Title:            "Attack on Titan",
		ReleaseDate:      "2013-04-07",
		Rating:           8.7,
		Genres:           []media.Genre{{ID: 16, Name: "Animation"}},
		NumberOfSeasons:  4,
		NumberOfEpisodes: 87,
		Seasons: []media.Season{
			{SeasonNumber: 0, EpisodeCount: 30},
			{SeasonNumber: 1, EpisodeCount: 25, AirDate: "2013-04-07"},
			{SeasonNumber: 2, EpisodeCount: 12},
		},
		Info: &media.MediaInfo{
			Status:   media.StatusPartiallyAvailable,
			Seasons:  []media.SeasonStatus{{SeasonNumber: 1, Status: media.StatusAvailable}},
			Requests: []media.RequestRef{{ID: 1, RequestedSeasons: []int{2}}},
		},
	}
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"year", "rating", "year", " genres "})
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldYear, FieldRating, FieldGenres}, fields)

	_, err = ParseFields([]string{"year", "director", "cast"})
	require.Error(t, err)
	assert.True(t, batch.IsValidation(err))
	assert.Contains(t, err.Error(), "director, cast")
}

func TestLevelFields(t *testing.T) {
	basic, err := LevelBasic.Fields()
	require.NoError(t, err)
	standard, err := Level("").Fields()
	require.NoError(t, err)
	full, err := LevelFull.Fields()
	require.NoError(t, err)

	assert.Less(t, len(basic), len(standard))
	assert.Equal(t, AllFields, full)

	_, err = Level("everything").Fields()
	assert.True(t, batch.IsValidation(err))
}

func TestExtract_EveryFieldHandled(t *testing.T) {
	d := aot()
	d.OriginalTitle = "Shingeki no Kyojin"
	d.Overview = "Humanity fights titans."
	d.PosterPath = "/p.jpg"
	d.BackdropPath = "/b.jpg"
	d.Homepage = "https://example.org"
	d.ProductionStatus = "Ended"
	d.Tagline = "On that day"
	d.Popularity = 120.5
	d.Runtime = 24

	rec := Build(d, AllFields)
	for _, f := range AllFields {
		if f == FieldReleaseDate {
			continue
		}
		assert.Contains(t, rec, string(f))
	}
	assert.NotContains(t, rec, string(FieldReleaseDate), "series expose firstAirDate")
	assert.Equal(t, 2013, rec["year"])
	assert.Equal(t, "PARTIALLY_AVAILABLE", rec["mediaStatus"])
	assert.Equal(t, 1, rec["requestCount"])
	assert.Equal(t, []string{"Animation"}, rec["genres"])

	seasons, ok := rec["seasons"].([]SeasonInfo)
	require.True(t, ok)
	require.Len(t, seasons, 2, "specials are excluded")
	assert.Equal(t, "AVAILABLE", seasons[0].Status)
}

func TestExtract_MovieSkipsSeriesFields(t *testing.T) {
	d := &media.MediaDetails{ID: 603, MediaType: media.MediaTypeMovie, Title: "The Matrix", ReleaseDate: "1999-03-30"}
	rec := Build(d, AllFields)

	assert.NotContains(t, rec, "numberOfSeasons")
	assert.NotContains(t, rec, "seasons")
	assert.NotContains(t, rec, "firstAirDate")
	assert.Equal(t, "1999-03-30", rec["releaseDate"])
	assert.Equal(t, false, rec["hasRequests"])
	assert.Equal(t, "UNKNOWN", rec["mediaStatus"])
}

func TestTargetSeason(t *testing.T) {
	d := aot()
	ts := TargetSeason(d, 1)
	require.NotNil(t, ts)
	assert.Equal(t, 25, ts.EpisodeCount)
	assert.Equal(t, "AVAILABLE", ts.Status)

	assert.Nil(t, TargetSeason(d, 9))
}

func newService(t *testing.T, fake *testutil.FakeSeerr) *Service {
	t.Helper()
	cat := catalog.New(fake, cache.New(cache.DefaultConfig()), testutil.NopLogger())
	policy := batch.DefaultPolicy()
	policy.Backoff = []time.Duration{time.Millisecond}
	return NewService(cat, policy, "en", testutil.NewTestLogger(t))
}

func TestService_GetMediaDetails(t *testing.T) {
	fake := testutil.NewFakeSeerr().AddDetails(aot())
	svc := newService(t, fake)

	res, err := svc.GetMediaDetails(context.Background(), Args{
		MediaType: media.MediaTypeTV,
		MediaID:   1429,
		Fields:    []string{"numberOfSeasons", "hasRequests"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Attack on Titan", res.Title)
	assert.Equal(t, Record{"numberOfSeasons": 4, "hasRequests": true}, res.Fields)
}

func TestService_GetMediaDetailsValidation(t *testing.T) {
	svc := newService(t, testutil.NewFakeSeerr())

	tests := []struct {
		name string
		args Args
	}{
		{"bad type", Args{MediaType: "book", MediaID: 1}},
		{"bad id", Args{MediaType: media.MediaTypeMovie}},
		{"bad level", Args{MediaType: media.MediaTypeMovie, MediaID: 1, Level: "huge"}},
		{"bad field", Args{MediaType: media.MediaTypeMovie, MediaID: 1, Fields: []string{"cast"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetMediaDetails(context.Background(), tt.args)
			assert.True(t, batch.IsValidation(err), "got %v", err)
		})
	}
}

func TestService_GetMediaDetailsRetriesServerErrors(t *testing.T) {
	fake := testutil.NewFakeSeerr().AddDetails(aot())
	fake.FailNext("details:tv:1429", &testutil.StatusError{Code: 502, Message: "bad gateway"})
	svc := newService(t, fake)

	_, err := svc.GetMediaDetails(context.Background(), Args{MediaType: media.MediaTypeTV, MediaID: 1429})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls("details:tv:1429"))
}

func TestService_GetMany(t *testing.T) {
	fake := testutil.NewFakeSeerr().
		AddDetails(aot()).
		AddDetails(&media.MediaDetails{ID: 603, MediaType: media.MediaTypeMovie, Title: "The Matrix"})
	svc := newService(t, fake)

	out, err := svc.GetMany(context.Background(), Args{
		Items: []Item{
			{MediaType: media.MediaTypeMovie, MediaID: 603},
			{MediaType: media.MediaTypeMovie, MediaID: 404},
			{MediaType: media.MediaTypeTV, MediaID: 1429},
		},
		Level: LevelBasic,
	})
	require.NoError(t, err)

	assert.Equal(t, batch.Summary{Total: 3, Succeeded: 2, Failed: 1}, out.Summary)
	require.Len(t, out.Results, 3)
	assert.Equal(t, "The Matrix", out.Results[0].Result.Title)
	assert.False(t, out.Results[1].Success)
	assert.NotEmpty(t, out.Results[1].Error)
	assert.Equal(t, "Attack on Titan", out.Results[2].Result.Title)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "movie:404", out.Errors[0].Item)
}
