// Package catalog wraps a media.Client with the lookup cache. Reads go
// through the cache; mutations must call AfterMutation before returning so
// later reads see fresh library and request state.
package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhomen368/overseerr-mcp/internal/cache"
	"github.com/jhomen368/overseerr-mcp/internal/media"
)

// Catalog is a cached read view over the downstream service.
type Catalog struct {
	client media.Client
	cache  *cache.Cache
	logger zerolog.Logger
}

// New creates a Catalog. A nil cache disables caching.
func New(client media.Client, c *cache.Cache, logger zerolog.Logger) *Catalog {
	if c == nil {
		cfg := cache.DefaultConfig()
		cfg.Enabled = false
		c = cache.New(cfg)
	}
	return &Catalog{
		client: client,
		cache:  c,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Client returns the underlying, uncached client for mutations.
func (c *Catalog) Client() media.Client {
	return c.client
}

// Cache returns the backing cache.
func (c *Catalog) Cache() *cache.Cache {
	return c.cache
}

type searchKey struct {
	Query    string `json:"query"`
	Page     int    `json:"page"`
	Language string `json:"language"`
}

type detailsKey struct {
	MediaType media.MediaType `json:"mediaType"`
	ID        int             `json:"id"`
	Language  string          `json:"language"`
}

// Search returns a cached or fresh search page.
func (c *Catalog) Search(ctx context.Context, query string, page int, language string) (*media.SearchPage, error) {
	key := searchKey{Query: query, Page: page, Language: language}
	if hit, ok := cache.GetAs[*media.SearchPage](c.cache, cache.CategorySearch, key); ok {
		c.logger.Debug().Str("query", query).Msg("Search cache hit")
		return hit, nil
	}

	res, err := c.client.Search(ctx, query, page, language)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cache.CategorySearch, key, res)
	return res, nil
}

// Details returns cached or fresh metadata for a title.
func (c *Catalog) Details(ctx context.Context, mediaType media.MediaType, id int, language string) (*media.MediaDetails, error) {
	key := detailsKey{MediaType: mediaType, ID: id, Language: language}
	if hit, ok := cache.GetAs[*media.MediaDetails](c.cache, cache.CategoryMediaDetails, key); ok {
		c.logger.Debug().Str("mediaType", string(mediaType)).Int("id", id).Msg("Details cache hit")
		return hit, nil
	}

	res, err := c.client.FetchDetails(ctx, mediaType, id, language)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cache.CategoryMediaDetails, key, res)
	return res, nil
}

// ListRequests returns a cached or fresh page of requests.
func (c *Catalog) ListRequests(ctx context.Context, params media.ListParams) (*media.RequestPage, error) {
	if hit, ok := cache.GetAs[*media.RequestPage](c.cache, cache.CategoryRequests, params); ok {
		return hit, nil
	}

	res, err := c.client.ListRequests(ctx, params)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cache.CategoryRequests, params, res)
	return res, nil
}

// AfterMutation drops cached request listings and title details. Search
// results stay: they do not carry library state the classifier relies on.
func (c *Catalog) AfterMutation() {
	removed := c.cache.Invalidate(cache.CategoryRequests, cache.CategoryMediaDetails)
	c.logger.Debug().Int("removed", removed).Msg("Invalidated request and details cache")
}
