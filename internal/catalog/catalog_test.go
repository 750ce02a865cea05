package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhomen368/overseerr-mcp/internal/cache"
	"github.com/jhomen368/overseerr-mcp/internal/media"
	"github.com/jhomen368/overseerr-mcp/internal/testutil"
)

func newCatalog(t *testing.T) (*Catalog, *testutil.FakeSeerr) {
	t.Helper()
	fake := testutil.NewFakeSeerr()
	fake.AddSearch("the matrix", media.SearchCandidate{ID: 603, MediaType: media.MediaTypeMovie, Title: "The Matrix"})
	fake.AddDetails(&media.MediaDetails{ID: 603, MediaType: media.MediaTypeMovie, Title: "The Matrix"})
	return New(fake, cache.New(cache.DefaultConfig()), testutil.NewTestLogger(t)), fake
}

func TestCatalog_SearchIsCached(t *testing.T) {
	c, fake := newCatalog(t)
	ctx := context.Background()

	first, err := c.Search(ctx, "the matrix", 1, "en")
	require.NoError(t, err)
	second, err := c.Search(ctx, "the matrix", 1, "en")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fake.Calls("search:the matrix"))

	_, err = c.Search(ctx, "the matrix", 1, "fr")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls("search:the matrix"), "language is part of the key")
}

func TestCatalog_AfterMutationRefreshesDetails(t *testing.T) {
	c, fake := newCatalog(t)
	ctx := context.Background()

	d, err := c.Details(ctx, media.MediaTypeMovie, 603, "en")
	require.NoError(t, err)
	assert.Empty(t, d.Requests())

	_, err = fake.CreateRequest(ctx, media.RequestBody{MediaType: media.MediaTypeMovie, MediaID: 603})
	require.NoError(t, err)

	cached, err := c.Details(ctx, media.MediaTypeMovie, 603, "en")
	require.NoError(t, err)
	assert.Empty(t, cached.Requests(), "stale until invalidated")

	c.AfterMutation()

	fresh, err := c.Details(ctx, media.MediaTypeMovie, 603, "en")
	require.NoError(t, err)
	assert.Len(t, fresh.Requests(), 1)
	assert.Equal(t, 2, fake.Calls("details:movie:603"))

	_, err = c.Search(ctx, "the matrix", 1, "en")
	require.NoError(t, err)
	_, err = c.Search(ctx, "the matrix", 1, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls("search:the matrix"))
}

func TestCatalog_ErrorsAreNotCached(t *testing.T) {
	c, fake := newCatalog(t)
	ctx := context.Background()
	fake.FailNext("details:movie:603", &testutil.StatusError{Code: 503, Message: "busy"})

	_, err := c.Details(ctx, media.MediaTypeMovie, 603, "en")
	require.Error(t, err)

	_, err = c.Details(ctx, media.MediaTypeMovie, 603, "en")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls("details:movie:603"))
}

func TestCatalog_NilCacheDisablesCaching(t *testing.T) {
	fake := testutil.NewFakeSeerr()
	c := New(fake, nil, testutil.NopLogger())

	for range 3 {
		_, err := c.ListRequests(context.Background(), media.ListParams{Take: 10})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, fake.Calls("list"))
}
