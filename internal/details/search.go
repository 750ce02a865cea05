package details

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhomen368/overseerr-mcp/internal/batch"
	"github.com/jhomen368/overseerr-mcp/internal/matching"
	"github.com/jhomen368/overseerr-mcp/internal/media"
)

const maxSearchPage = 500

// SearchArgs is a free-text title search.
type SearchArgs struct {
	Query    string `json:"query" validate:"required,max=200"`
	Page     int    `json:"page,omitempty" validate:"omitempty,min=1,max=500"`
	Language string `json:"language,omitempty"`
}

// SearchResult is one page of requestable candidates. People rows are
// dropped and counted in Skipped.
type SearchResult struct {
	Query        string                  `json:"query"`
	Page         int                     `json:"page"`
	TotalPages   int                     `json:"totalPages"`
	TotalResults int                     `json:"totalResults"`
	Results      []media.SearchCandidate `json:"results"`
	Skipped      int                     `json:"skipped,omitempty"`
}

// Search looks up movies and series by name through the cached catalog.
func (s *Service) Search(ctx context.Context, args SearchArgs) (*SearchResult, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return nil, batch.Invalid("query", "must not be empty")
	}
	page := args.Page
	if page == 0 {
		page = 1
	}
	if page < 0 || page > maxSearchPage {
		return nil, batch.Invalid("page", "must be between 1 and %d", maxSearchPage)
	}
	lang := s.language(args.Language)

	res, err := batch.Retry(ctx, func(ctx context.Context) (*media.SearchPage, error) {
		return s.catalog.Search(ctx, query, page, lang)
	}, s.policy)
	if err != nil {
		return nil, fmt.Errorf("failed to search for %q: %w", query, err)
	}

	candidates := matching.Requestable(res.Results)
	s.logger.Debug().Str("query", query).Int("page", page).Int("results", len(candidates)).Msg("Searched titles")

	return &SearchResult{
		Query:        query,
		Page:         res.Page,
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
		Results:      candidates,
		Skipped:      len(res.Results) - len(candidates),
	}, nil
}
