package details

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhomen368/overseerr-mcp/internal/batch"
	"github.com/jhomen368/overseerr-mcp/internal/catalog"
	"github.com/jhomen368/overseerr-mcp/internal/media"
)

// Item identifies one title.
type Item struct {
	MediaType media.MediaType `json:"mediaType" validate:"required,oneof=movie tv"`
	MediaID   int             `json:"mediaId" validate:"required,gt=0"`
}

// Args selects titles and the metadata to return for them. Fields, when
// given, replace the level preset.
type Args struct {
	MediaType media.MediaType `json:"mediaType,omitempty"`
	MediaID   int             `json:"mediaId,omitempty"`
	Items     []Item          `json:"items,omitempty" validate:"omitempty,max=50,dive"`
	Level     Level           `json:"level,omitempty" validate:"omitempty,oneof=basic standard full"`
	Fields    []string        `json:"fields,omitempty"`
	Language  string          `json:"language,omitempty"`
}

// Result is the metadata of one title.
type Result struct {
	ID        int             `json:"id"`
	MediaType media.MediaType `json:"mediaType"`
	Title     string          `json:"title"`
	Fields    Record          `json:"fields"`
}

// ManyResult is the outcome of a multi-item lookup.
type ManyResult struct {
	Summary batch.Summary     `json:"summary"`
	Results []ItemResult      `json:"results"`
	Errors  []batch.ItemError `json:"errors,omitempty"`
}

// ItemResult is one entry of ManyResult. Result is nil on failure.
type ItemResult struct {
	Item    Item    `json:"item"`
	Success bool    `json:"success"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Service looks up title metadata through the catalog.
type Service struct {
	catalog         *catalog.Catalog
	policy          batch.Policy
	defaultLanguage string
	logger          zerolog.Logger
}

// NewService creates a details service.
func NewService(cat *catalog.Catalog, policy batch.Policy, defaultLanguage string, logger zerolog.Logger) *Service {
	return &Service{
		catalog:         cat,
		policy:          policy,
		defaultLanguage: defaultLanguage,
		logger:          logger.With().Str("component", "details").Logger(),
	}
}

// ResolveFields turns a level and explicit field names into a field list.
func ResolveFields(level Level, names []string) ([]Field, error) {
	if len(names) > 0 {
		return ParseFields(names)
	}
	return level.Fields()
}

func validateItem(it Item) error {
	if !it.MediaType.Valid() {
		return batch.Invalid("mediaType", "must be movie or tv, got %q", it.MediaType)
	}
	if it.MediaID <= 0 {
		return batch.Invalid("mediaId", "must be a positive id")
	}
	return nil
}

func (s *Service) language(lang string) string {
	if lang != "" {
		return lang
	}
	return s.defaultLanguage
}

// GetMediaDetails returns metadata for the single title named in args.
func (s *Service) GetMediaDetails(ctx context.Context, args Args) (*Result, error) {
	item := Item{MediaType: args.MediaType, MediaID: args.MediaID}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	fields, err := ResolveFields(args.Level, args.Fields)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, item, fields, s.language(args.Language))
}

// GetMany looks up every item concurrently. Failed items are reported in
// place, never aborting the others.
func (s *Service) GetMany(ctx context.Context, args Args) (*ManyResult, error) {
	if len(args.Items) == 0 {
		return nil, batch.Invalid("items", "at least one item is required")
	}
	fields, err := ResolveFields(args.Level, args.Fields)
	if err != nil {
		return nil, err
	}
	lang := s.language(args.Language)

	results := batch.Run(ctx, args.Items, func(ctx context.Context, it Item) (*Result, error) {
		if err := validateItem(it); err != nil {
			return nil, err
		}
		return s.fetch(ctx, it, fields, lang)
	}, batch.NoRetry())

	out := &ManyResult{
		Summary: batch.Summarize(results),
		Results: make([]ItemResult, len(results)),
		Errors:  batch.Errors(results, itemLabel),
	}
	for i, r := range results {
		out.Results[i] = ItemResult{Item: r.Item, Success: r.Success, Result: r.Result}
		if r.Err != nil {
			out.Results[i].Error = r.Err.Error()
		}
	}
	return out, nil
}

func itemLabel(it Item) string {
	return fmt.Sprintf("%s:%d", it.MediaType, it.MediaID)
}

// fetch retries read failures under the service policy.
func (s *Service) fetch(ctx context.Context, it Item, fields []Field, lang string) (*Result, error) {
	d, err := batch.Retry(ctx, func(ctx context.Context) (*media.MediaDetails, error) {
		return s.catalog.Details(ctx, it.MediaType, it.MediaID, lang)
	}, s.policy)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", itemLabel(it), err)
	}

	s.logger.Debug().
		Str("mediaType", string(it.MediaType)).
		Int("mediaId", it.MediaID).
		Int("fields", len(fields)).
		Msg("Extracted media details")

	return &Result{
		ID:        d.ID,
		MediaType: it.MediaType,
		Title:     d.Title,
		Fields:    Build(d, fields),
	}, nil
}
