package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apimw "github.com/jhomen368/overseerr-mcp/internal/api/middleware"
	"github.com/jhomen368/overseerr-mcp/internal/batch"
	"github.com/jhomen368/overseerr-mcp/internal/cache"
	"github.com/jhomen368/overseerr-mcp/internal/catalog"
	"github.com/jhomen368/overseerr-mcp/internal/config"
	"github.com/jhomen368/overseerr-mcp/internal/dedupe"
	"github.com/jhomen368/overseerr-mcp/internal/details"
	"github.com/jhomen368/overseerr-mcp/internal/health"
	"github.com/jhomen368/overseerr-mcp/internal/logger"
	"github.com/jhomen368/overseerr-mcp/internal/media"
	"github.com/jhomen368/overseerr-mcp/internal/requests"
	"github.com/jhomen368/overseerr-mcp/internal/testutil"
)

type fakeLogs struct {
	limit int
	level string
}

func (f *fakeLogs) Recent(limit int, minLevel string) []logger.LogEntry {
	f.limit, f.level = limit, minLevel
	return []logger.LogEntry{{Level: "info", Message: "hello"}}
}

func library() *testutil.FakeSeerr {
	return testutil.NewFakeSeerr().
		AddSearch("the matrix",
			media.SearchCandidate{ID: 603, MediaType: media.MediaTypeMovie, Title: "The Matrix", ReleaseDate: "1999-03-30"},
		).
		AddDetails(&media.MediaDetails{
			ID:          603,
			MediaType:   media.MediaTypeMovie,
			Title:       "The Matrix",
			ReleaseDate: "1999-03-30",
			Info:        &media.MediaInfo{Status: media.StatusAvailable},
		}).
		AddSearch("inception",
			media.SearchCandidate{ID: 27205, MediaType: media.MediaTypeMovie, Title: "Inception"},
		).
		AddDetails(&media.MediaDetails{ID: 27205, MediaType: media.MediaTypeMovie, Title: "Inception", ReleaseDate: "2010-07-15"})
}

func setupTestServer(t *testing.T, fake *testutil.FakeSeerr, mutate func(*config.Config)) (*Server, *fakeLogs) {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	log := testutil.NewTestLogger(t)

	c := cache.New(cache.DefaultConfig())
	cat := catalog.New(fake, c, log)
	policy := batch.DefaultPolicy()
	policy.Backoff = []time.Duration{time.Millisecond}

	reqs := requests.NewService(cat, policy, requests.Config{}, log)
	logs := &fakeLogs{}

	srv := NewServer(Deps{
		Config:   cfg,
		Dedupe:   dedupe.NewService(cat, reqs, policy, "en", log),
		Requests: reqs,
		Details:  details.NewService(cat, policy, "en", log),
		Cache:    c,
		Health:   health.NewService(log),
		Logs:     logs,
		Logger:   log,
	})
	return srv, logs
}

func do(t *testing.T, srv *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestDedupe(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/dedupe",
		`{"titles":["The Matrix","Inception","Totally Fake Show XYZ123"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decode[dedupe.Report](t, rec)
	require.Len(t, report.Results, 3)
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, "The Matrix", report.Results[0].Title)
	assert.Equal(t, "blocked", string(report.Results[0].Status))
	assert.Equal(t, "pass", string(report.Results[1].Status))
	assert.Equal(t, "NOT_FOUND", string(report.Results[2].ReasonCode))
	assert.Equal(t, 3, report.Summary.Total)
}

func TestDedupe_ValidationErrors(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing titles", body: `{}`, field: "titles"},
		{name: "empty title", body: `{"titles":["Inception",""]}`, field: "titles[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/v1/dedupe", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.Contains(t, resp.Fields, tt.field)
		})
	}
}

func TestDedupe_MalformedJSON(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/dedupe", `{"titles":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestMedia(t *testing.T) {
	fake := library()
	srv, _ := setupTestServer(t, fake, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/requests/media", `{"mediaType":"movie","mediaId":27205}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode[requests.Outcome](t, rec)
	assert.Equal(t, requests.OutcomeCreated, out.Status)
	require.NotNil(t, out.Request)
	assert.Len(t, fake.Requests(), 1)
}

func TestRequestMedia_ServiceValidation(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/requests/media", `{"mediaType":"book","mediaId":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "mediaType", decode[ErrorResponse](t, rec).Field)
}

func TestRequestMedia_Items(t *testing.T) {
	fake := library()
	srv, _ := setupTestServer(t, fake, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/requests/media",
		`{"dryRun":true,"items":[{"mediaType":"movie","mediaId":27205},{"mediaType":"movie","mediaId":999}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[requests.ManyOutcome](t, rec)
	require.Len(t, out.Results, 2)
	assert.True(t, out.Results[0].Success)
	assert.Equal(t, requests.OutcomeDryRun, out.Results[0].Outcome.Status)
	assert.False(t, out.Results[1].Success)
	assert.Empty(t, fake.Requests())
}

func TestRequestMedia_ItemValidation(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/requests/media",
		`{"items":[{"mediaType":"movie","mediaId":0}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "items[0].mediaId")
}

func TestManageRequests(t *testing.T) {
	fake := library().AddRequest(media.RequestRef{
		ID: 7, Status: media.RequestPendingApproval, MediaType: media.MediaTypeMovie, TmdbID: 27205,
	})
	srv, _ := setupTestServer(t, fake, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/requests/manage", `{"action":"list"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[requests.ManageResult](t, rec).Requests, 1)

	rec = do(t, srv, http.MethodPost, "/api/v1/requests/manage", `{"action":"approve","requestId":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[requests.ManageResult](t, rec)
	require.NotNil(t, out.Request)
	assert.Equal(t, media.RequestApproved, out.Request.Status)

	rec = do(t, srv, http.MethodPost, "/api/v1/requests/manage", `{"action":"archive"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "action")
}

func TestManageRequests_UnknownRequestIsNotFound(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/requests/manage", `{"action":"get","requestId":42}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decode[ErrorResponse](t, rec).UpstreamStatus)
}

func TestMediaDetails(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/media/details", `{"mediaType":"movie","mediaId":603}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "The Matrix", decode[details.Result](t, rec).Title)

	rec = do(t, srv, http.MethodPost, "/api/v1/media/details",
		`{"items":[{"mediaType":"movie","mediaId":603},{"mediaType":"movie","mediaId":27205}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[details.ManyResult](t, rec).Summary.Succeeded)
}

func TestSearchMedia(t *testing.T) {
	fake := library().AddSearch("matrix",
		media.SearchCandidate{ID: 603, MediaType: media.MediaTypeMovie, Title: "The Matrix"},
		media.SearchCandidate{ID: 6384, MediaType: "person", Title: "Keanu Reeves"},
	)
	srv, _ := setupTestServer(t, fake, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/media/search", `{"query":"matrix","page":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[details.SearchResult](t, rec)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 603, out.Results[0].ID)
	assert.Equal(t, 1, out.Skipped)
}

func TestSearchMedia_Validation(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/media/search", `{"page":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "query")

	rec = do(t, srv, http.MethodPost, "/api/v1/media/search", `{"query":"matrix","page":900}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "page")
}

func TestMediaDetails_UpstreamFailureIsBadGateway(t *testing.T) {
	fake := library()
	boom := &testutil.StatusError{Code: http.StatusInternalServerError, Message: "boom"}
	fake.FailNext("details:movie:603", boom, boom, boom)
	srv, _ := setupTestServer(t, fake, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/media/details", `{"mediaType":"movie","mediaId":603}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, http.StatusInternalServerError, decode[ErrorResponse](t, rec).UpstreamStatus)
}

func TestCacheEndpoints(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	do(t, srv, http.MethodPost, "/api/v1/media/details", `{"mediaType":"movie","mediaId":603}`)

	rec := do(t, srv, http.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[cache.Stats](t, rec).Size)

	rec = do(t, srv, http.MethodDelete, "/api/v1/cache?category=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/v1/cache?category=mediaDetails", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["removed"])
}

func TestLogs(t *testing.T) {
	srv, logs := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/logs?limit=5&level=warn", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]logger.LogEntry](t, rec), 1)
	assert.Equal(t, 5, logs.limit)
	assert.Equal(t, "warn", logs.level)

	rec = do(t, srv, http.MethodGet, "/api/v1/logs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyGuard(t *testing.T) {
	srv, _ := setupTestServer(t, library(), func(cfg *config.Config) {
		cfg.API.Key = "secret"
	})

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/v1/status", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/v1/status", "", apimw.HeaderAPIKey, "secret").Code)
}

func TestSchedulerRoutesAbsentWithoutScheduler(t *testing.T) {
	srv, _ := setupTestServer(t, library(), nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/tasks", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
