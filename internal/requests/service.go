// Package requests creates and manages media requests against the
// downstream service.
package requests

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhomen368/overseerr-mcp/internal/availability"
	"github.com/jhomen368/overseerr-mcp/internal/batch"
	"github.com/jhomen368/overseerr-mcp/internal/catalog"
	"github.com/jhomen368/overseerr-mcp/internal/media"
)

// DefaultConfirmEpisodeThreshold is the episode count above which a series
// request needs explicit confirmation.
const DefaultConfirmEpisodeThreshold = 24

// Args describes one request.
type Args struct {
	MediaType     media.MediaType  `json:"mediaType"`
	MediaID       int              `json:"mediaId"`
	Seasons       *SeasonSelection `json:"seasons,omitempty"`
	Is4K          bool             `json:"is4k,omitempty"`
	ServerID      *int             `json:"serverId,omitempty"`
	ProfileID     *int             `json:"profileId,omitempty"`
	RootFolder    string           `json:"rootFolder,omitempty"`
	ValidateFirst bool             `json:"validateFirst,omitempty"`
	DryRun        bool             `json:"dryRun,omitempty"`
	Confirmed     bool             `json:"confirmed,omitempty"`
}

// OutcomeStatus is the kind of result a request produced.
type OutcomeStatus string

const (
	OutcomeCreated              OutcomeStatus = "created"
	OutcomeDryRun               OutcomeStatus = "dry_run"
	OutcomeAlreadyAvailable     OutcomeStatus = "already_available"
	OutcomeAlreadyRequested     OutcomeStatus = "already_requested"
	OutcomeRequiresConfirmation OutcomeStatus = "requires_confirmation"
)

// Confirmation describes a large request awaiting confirmation.
type Confirmation struct {
	Title             string `json:"title"`
	TotalSeasons      int    `json:"totalSeasons"`
	TotalEpisodes     int    `json:"totalEpisodes"`
	RequestingSeasons []int  `json:"requestingSeasons"`
}

// Outcome is the result of RequestMedia. Only OutcomeCreated means a
// request was submitted.
type Outcome struct {
	Status           OutcomeStatus           `json:"status"`
	ReasonCode       availability.ReasonCode `json:"reasonCode,omitempty"`
	Message          string                  `json:"message"`
	Title            string                  `json:"title,omitempty"`
	MediaType        media.MediaType         `json:"mediaType"`
	MediaID          int                     `json:"mediaId"`
	SeasonsRequested []int                   `json:"seasonsRequested,omitempty"`
	SkippedSeasons   []int                   `json:"skippedSeasons,omitempty"`
	TotalEpisodes    int                     `json:"totalEpisodes,omitempty"`
	Request          *media.RequestRef       `json:"request,omitempty"`
	// RequiresConfirmation is set with ConfirmWith, the exact arguments to
	// resubmit once the caller agrees.
	RequiresConfirmation bool          `json:"requiresConfirmation,omitempty"`
	Confirmation         *Confirmation `json:"confirmation,omitempty"`
	ConfirmWith          *Args         `json:"confirmWith,omitempty"`
}

// Config tunes request creation.
type Config struct {
	ConfirmEpisodeThreshold int
	DefaultLanguage         string
}

// Service creates and manages requests.
type Service struct {
	catalog *catalog.Catalog
	policy  batch.Policy
	cfg     Config
	logger  zerolog.Logger
}

// NewService creates a request service. Reads retry under policy;
// mutations are never retried.
func NewService(cat *catalog.Catalog, policy batch.Policy, cfg Config, logger zerolog.Logger) *Service {
	if cfg.ConfirmEpisodeThreshold <= 0 {
		cfg.ConfirmEpisodeThreshold = DefaultConfirmEpisodeThreshold
	}
	return &Service{
		catalog: cat,
		policy:  policy,
		cfg:     cfg,
		logger:  logger.With().Str("component", "requests").Logger(),
	}
}

func validate(args Args) error {
	if !args.MediaType.Valid() {
		return batch.Invalid("mediaType", "must be movie or tv, got %q", args.MediaType)
	}
	if args.MediaID <= 0 {
		return batch.Invalid("mediaId", "must be a positive id")
	}
	if args.MediaType == media.MediaTypeTV && args.Seasons.IsEmpty() {
		return batch.Invalid("seasons", `required for tv requests ("all" or a list of season numbers)`)
	}
	return nil
}

// expandSeasons resolves the selection against the declared seasons.
// "all" never includes season 0.
func expandSeasons(sel *SeasonSelection, d *media.MediaDetails) ([]int, error) {
	if sel.All {
		seasons := d.RegularSeasonNumbers()
		if len(seasons) == 0 {
			return nil, batch.Invalid("seasons", "%s declares no regular seasons", d.Title)
		}
		return seasons, nil
	}

	count := d.SeasonCount()
	seasons := uniqueSorted(sel.Numbers)
	for _, n := range seasons {
		if n < 1 {
			return nil, batch.Invalid("seasons", "season numbers start at 1, got %d", n)
		}
		if count > 0 && n > count {
			return nil, batch.Invalid("seasons", "%s has %d seasons, season %d does not exist", d.Title, count, n)
		}
	}
	return seasons, nil
}

func (s *Service) details(ctx context.Context, t media.MediaType, id int) (*media.MediaDetails, error) {
	d, err := batch.Retry(ctx, func(ctx context.Context) (*media.MediaDetails, error) {
		return s.catalog.Details(ctx, t, id, s.cfg.DefaultLanguage)
	}, s.policy)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s %d: %w", t, id, err)
	}
	return d, nil
}

// RequestMedia validates, optionally pre-checks and then submits a request.
// Large series requests return OutcomeRequiresConfirmation until resubmitted
// with Confirmed set.
func (s *Service) RequestMedia(ctx context.Context, args Args) (*Outcome, error) {
	if err := validate(args); err != nil {
		return nil, err
	}

	d, err := s.details(ctx, args.MediaType, args.MediaID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Title:     d.Title,
		MediaType: args.MediaType,
		MediaID:   args.MediaID,
	}

	var seasons []int
	if args.MediaType == media.MediaTypeTV {
		seasons, err = expandSeasons(args.Seasons, d)
		if err != nil {
			return nil, err
		}
	}

	if args.ValidateFirst {
		var done bool
		seasons, done = s.precheck(out, d, seasons)
		if done {
			return out, nil
		}
	}

	if args.MediaType == media.MediaTypeTV {
		out.TotalEpisodes = d.EpisodeCount(seasons)
		if out.TotalEpisodes > s.cfg.ConfirmEpisodeThreshold && !args.Confirmed {
			confirm := args
			confirm.Confirmed = true
			out.Status = OutcomeRequiresConfirmation
			out.RequiresConfirmation = true
			out.SeasonsRequested = seasons
			out.Confirmation = &Confirmation{
				Title:             d.Title,
				TotalSeasons:      d.SeasonCount(),
				TotalEpisodes:     out.TotalEpisodes,
				RequestingSeasons: seasons,
			}
			out.ConfirmWith = &confirm
			out.Message = fmt.Sprintf("Requesting %d seasons (%d episodes) of %s needs confirmation; resubmit with confirmed=true",
				len(seasons), out.TotalEpisodes, d.Title)
			return out, nil
		}
	}

	body := media.RequestBody{
		MediaType:  args.MediaType,
		MediaID:    args.MediaID,
		Seasons:    seasons,
		Is4K:       args.Is4K,
		ServerID:   args.ServerID,
		ProfileID:  args.ProfileID,
		RootFolder: args.RootFolder,
	}
	out.SeasonsRequested = seasons

	if args.DryRun {
		out.Status = OutcomeDryRun
		out.Message = "Dry run: would request " + describe(d.Title, seasons)
		return out, nil
	}

	ref, err := s.catalog.Client().CreateRequest(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", d.Title, err)
	}
	s.catalog.AfterMutation()

	s.logger.Info().
		Int("requestId", ref.ID).
		Str("title", d.Title).
		Ints("seasons", seasons).
		Msg("Media requested")

	out.Status = OutcomeCreated
	out.Request = ref
	out.Message = "Requested " + describe(d.Title, seasons)
	return out, nil
}

// precheck fills out and returns done when nothing is left to request. For
// series only the still-open seasons are kept.
func (s *Service) precheck(out *Outcome, d *media.MediaDetails, seasons []int) ([]int, bool) {
	if out.MediaType == media.MediaTypeMovie {
		if status := d.LibraryStatus(); status.InLibrary() {
			out.Status = OutcomeAlreadyAvailable
			out.ReasonCode = availability.ReasonAlreadyAvailable
			out.Message = fmt.Sprintf("%s is already in library (%s)", d.Title, status.Humanize())
			return nil, true
		}
		if len(d.Requests()) > 0 {
			out.Status = OutcomeAlreadyRequested
			out.ReasonCode = availability.ReasonAlreadyRequested
			out.Message = fmt.Sprintf("%s is already requested", d.Title)
			return nil, true
		}
		return nil, false
	}

	if d.LibraryStatus() == media.StatusAvailable {
		out.Status = OutcomeAlreadyAvailable
		out.ReasonCode = availability.ReasonAlreadyAvailable
		out.Message = fmt.Sprintf("%s is already available", d.Title)
		return nil, true
	}

	split := availability.ClassifySeasons(d, seasons)
	if len(split.Open) == 0 {
		if len(split.Requested) == 0 {
			out.Status = OutcomeAlreadyAvailable
			out.ReasonCode = availability.ReasonAlreadyAvailable
			out.Message = fmt.Sprintf("%s: every requested season is already in library", d.Title)
		} else {
			out.Status = OutcomeAlreadyRequested
			out.ReasonCode = availability.ReasonAlreadyRequested
			out.Message = fmt.Sprintf("%s: every requested season is already in library or requested", d.Title)
		}
		out.SkippedSeasons = seasons
		return nil, true
	}

	out.SkippedSeasons = append(append([]int{}, split.Available...), split.Requested...)
	out.SkippedSeasons = uniqueSorted(out.SkippedSeasons)
	if len(out.SkippedSeasons) > 0 {
		s.logger.Debug().
			Str("title", d.Title).
			Ints("skipped", out.SkippedSeasons).
			Ints("open", split.Open).
			Msg("Skipping seasons already in library or requested")
	}
	return split.Open, false
}

func describe(title string, seasons []int) string {
	if len(seasons) == 0 {
		return title
	}
	return fmt.Sprintf("%s (seasons %s)", title, (&SeasonSelection{Numbers: seasons}).String())
}

// Item is one entry of a multi-item request. Zero fields inherit from the
// shared arguments.
type Item struct {
	MediaType media.MediaType  `json:"mediaType" validate:"required,oneof=movie tv"`
	MediaID   int              `json:"mediaId" validate:"required,gt=0"`
	Seasons   *SeasonSelection `json:"seasons,omitempty"`
	Is4K      *bool            `json:"is4k,omitempty"`
}

// ExpandItems merges per-item fields over the shared arguments.
func ExpandItems(shared Args, items []Item) []Args {
	out := make([]Args, len(items))
	for i, it := range items {
		a := shared
		a.MediaType = it.MediaType
		a.MediaID = it.MediaID
		if it.Seasons != nil {
			a.Seasons = it.Seasons
		}
		if it.Is4K != nil {
			a.Is4K = *it.Is4K
		}
		out[i] = a
	}
	return out
}

// ManyOutcome is the result of RequestMany.
type ManyOutcome struct {
	Summary ManySummary       `json:"summary"`
	Results []ItemOutcome     `json:"results"`
	Errors  []batch.ItemError `json:"errors,omitempty"`
}

// ManySummary counts RequestMany outcomes.
type ManySummary struct {
	batch.Summary
	Created           int `json:"created"`
	NeedsConfirmation int `json:"needsConfirmation"`
	Skipped           int `json:"skipped"`
}

// ItemOutcome is one entry of ManyOutcome.
type ItemOutcome struct {
	MediaType media.MediaType `json:"mediaType"`
	MediaID   int             `json:"mediaId"`
	Success   bool            `json:"success"`
	Outcome   *Outcome        `json:"outcome,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// RequestMany submits every request concurrently. Each item fails on its
// own; the rest proceed.
func (s *Service) RequestMany(ctx context.Context, items []Args) (*ManyOutcome, error) {
	if len(items) == 0 {
		return nil, batch.Invalid("items", "at least one item is required")
	}

	results := batch.Run(ctx, items, s.RequestMedia, batch.NoRetry())

	out := &ManyOutcome{
		Summary: ManySummary{Summary: batch.Summarize(results)},
		Results: make([]ItemOutcome, len(results)),
		Errors: batch.Errors(results, func(a Args) string {
			return fmt.Sprintf("%s:%d", a.MediaType, a.MediaID)
		}),
	}
	for i, r := range results {
		item := ItemOutcome{MediaType: r.Item.MediaType, MediaID: r.Item.MediaID, Success: r.Success, Outcome: r.Result}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		if r.Success {
			switch r.Result.Status {
			case OutcomeCreated:
				out.Summary.Created++
			case OutcomeRequiresConfirmation:
				out.Summary.NeedsConfirmation++
			case OutcomeAlreadyAvailable, OutcomeAlreadyRequested:
				out.Summary.Skipped++
			}
		}
		out.Results[i] = item
	}
	return out, nil
}
