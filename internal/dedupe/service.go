// Package dedupe classifies bulk title lists against the library and
// request state of the downstream service.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhomen368/overseerr-mcp/internal/availability"
	"github.com/jhomen368/overseerr-mcp/internal/batch"
	"github.com/jhomen368/overseerr-mcp/internal/catalog"
	"github.com/jhomen368/overseerr-mcp/internal/details"
	"github.com/jhomen368/overseerr-mcp/internal/matching"
	"github.com/jhomen368/overseerr-mcp/internal/media"
	"github.com/jhomen368/overseerr-mcp/internal/requests"
	"github.com/jhomen368/overseerr-mcp/internal/titles"
)

// Event types sent to the Broadcaster.
const (
	EventItem      = "dedupe:item"
	EventCompleted = "dedupe:completed"
)

// MaxTitles bounds one classification call.
const MaxTitles = 500

// Broadcaster receives progress events. The websocket hub implements it.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// DetailsOptions asks for metadata on every resolved result.
type DetailsOptions struct {
	Fields []string `json:"fields,omitempty"`
	// IncludeSeason adds the hinted season's episode count and status.
	IncludeSeason bool `json:"includeSeason,omitempty"`
}

// RequestDefaults are applied to every auto-request.
type RequestDefaults struct {
	Seasons    *requests.SeasonSelection `json:"seasons,omitempty"`
	Is4K       bool                      `json:"is4k,omitempty"`
	ServerID   *int                      `json:"serverId,omitempty"`
	ProfileID  *int                      `json:"profileId,omitempty"`
	RootFolder string                    `json:"rootFolder,omitempty"`
	DryRun     bool                      `json:"dryRun,omitempty"`
}

// Options tunes ClassifyTitles. AutoNormalize defaults to true when nil.
type Options struct {
	AutoNormalize   *bool           `json:"autoNormalize,omitempty"`
	AutoRequest     bool            `json:"autoRequest,omitempty"`
	Language        string          `json:"language,omitempty"`
	IncludeDetails  *DetailsOptions `json:"includeDetails,omitempty"`
	RequestDefaults RequestDefaults `json:"requestDefaults,omitempty"`
}

func (o Options) normalize() bool {
	return o.AutoNormalize == nil || *o.AutoNormalize
}

// Result is the verdict for one input title.
type Result struct {
	Title            string                  `json:"title"`
	ID               int                     `json:"id,omitempty"`
	MatchedTitle     string                  `json:"matchedTitle,omitempty"`
	MediaType        media.MediaType         `json:"mediaType,omitempty"`
	Status           availability.Status     `json:"status"`
	ReasonCode       availability.ReasonCode `json:"reasonCode"`
	IsActionable     bool                    `json:"isActionable"`
	Reason           string                  `json:"reason,omitempty"`
	FranchiseSummary string                  `json:"franchiseSummary,omitempty"`
	Confidence       matching.Confidence     `json:"confidence,omitempty"`
	Note             string                  `json:"note,omitempty"`
	RequestedSeason  int                     `json:"requestedSeason,omitempty"`
	Details          details.Record          `json:"details,omitempty"`
	TargetSeason     *details.SeasonInfo     `json:"targetSeason,omitempty"`
}

// Summary counts verdicts. PassRate is a percentage string such as "40.0%".
type Summary struct {
	Total      int    `json:"total"`
	Pass       int    `json:"pass"`
	Blocked    int    `json:"blocked"`
	Actionable int    `json:"actionable"`
	Failed     int    `json:"failed"`
	PassRate   string `json:"passRate"`
}

// AutoRequestReport describes the requests issued for actionable results.
type AutoRequestReport struct {
	Attempted         int                    `json:"attempted"`
	Succeeded         int                    `json:"succeeded"`
	Failed            int                    `json:"failed"`
	NeedsConfirmation int                    `json:"needsConfirmation"`
	DryRun            bool                   `json:"dryRun,omitempty"`
	Items             []requests.ItemOutcome `json:"items"`
	Errors            []batch.ItemError      `json:"errors,omitempty"`
}

// Report is the outcome of ClassifyTitles.
type Report struct {
	BatchID     string             `json:"batchId"`
	Summary     Summary            `json:"summary"`
	Results     []Result           `json:"results"`
	Errors      []batch.ItemError  `json:"errors,omitempty"`
	AutoRequest *AutoRequestReport `json:"autoRequest,omitempty"`
}

// Service runs the dedupe pipeline.
type Service struct {
	catalog     *catalog.Catalog
	requests    *requests.Service
	policy      batch.Policy
	language    string
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a dedupe service. requestSvc may be nil when
// auto-requests are not offered.
func NewService(cat *catalog.Catalog, requestSvc *requests.Service, policy batch.Policy, defaultLanguage string, logger zerolog.Logger) *Service {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &Service{
		catalog:  cat,
		requests: requestSvc,
		policy:   policy,
		language: defaultLanguage,
		logger:   logger.With().Str("component", "dedupe").Logger(),
	}
}

// SetBroadcaster sets the progress event sink.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *Service) broadcast(msgType string, payload any) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(msgType, payload)
	}
}

type itemEvent struct {
	BatchID string `json:"batchId"`
	Index   int    `json:"index"`
	Result  Result `json:"result"`
}

type completedEvent struct {
	BatchID string  `json:"batchId"`
	Summary Summary `json:"summary"`
}

// ClassifyTitles resolves every title concurrently and returns exactly one
// result per title in input order. Lookup failures become LOOKUP_FAILED
// results and are also listed in Errors.
func (s *Service) ClassifyTitles(ctx context.Context, input []string, opts Options) (*Report, error) {
	if len(input) == 0 {
		return nil, batch.Invalid("titles", "at least one title is required")
	}
	if len(input) > MaxTitles {
		return nil, batch.Invalid("titles", "at most %d titles per call, got %d", MaxTitles, len(input))
	}

	var fields []details.Field
	if opts.IncludeDetails != nil && len(opts.IncludeDetails.Fields) > 0 {
		var err error
		fields, err = details.ParseFields(opts.IncludeDetails.Fields)
		if err != nil {
			return nil, err
		}
	}
	if opts.AutoRequest && s.requests == nil {
		return nil, errors.New("auto-request is not available")
	}

	lang := opts.Language
	if lang == "" {
		lang = s.language
	}

	batchID := uuid.New().String()
	log := s.logger.With().Str("batchId", batchID).Logger()
	log.Info().Int("titles", len(input)).Bool("autoRequest", opts.AutoRequest).Msg("Classifying titles")

	type item struct {
		index int
		title string
	}
	items := make([]item, len(input))
	for i, t := range input {
		items[i] = item{index: i, title: t}
	}

	runs := batch.Run(ctx, items, func(ctx context.Context, it item) (Result, error) {
		res, err := s.classify(ctx, log, it.title, opts, fields, lang)
		if err == nil {
			s.broadcast(EventItem, itemEvent{BatchID: batchID, Index: it.index, Result: res})
		}
		return res, err
	}, batch.NoRetry())

	report := &Report{
		BatchID: batchID,
		Results: make([]Result, len(runs)),
		Errors:  batch.Errors(runs, func(it item) string { return it.title }),
	}
	for i, r := range runs {
		if r.Success {
			report.Results[i] = r.Result
			continue
		}
		v := availability.LookupFailed(r.Err.Error())
		res := Result{Title: r.Item.title}
		res.apply(v)
		report.Results[i] = res
		s.broadcast(EventItem, itemEvent{BatchID: batchID, Index: i, Result: res})
		log.Warn().Err(r.Err).Str("title", r.Item.title).Msg("Title lookup failed")
	}
	report.Summary = summarize(report.Results)

	if opts.AutoRequest {
		report.AutoRequest = s.autoRequest(ctx, log, report.Results, opts.RequestDefaults)
	}

	log.Info().
		Int("pass", report.Summary.Pass).
		Int("blocked", report.Summary.Blocked).
		Int("actionable", report.Summary.Actionable).
		Int("failed", report.Summary.Failed).
		Msg("Classification complete")
	s.broadcast(EventCompleted, completedEvent{BatchID: batchID, Summary: report.Summary})

	return report, nil
}

func (r *Result) apply(v availability.Verdict) {
	r.Status = v.Status
	r.ReasonCode = v.ReasonCode
	r.IsActionable = v.IsActionable
	r.Reason = v.Reason
	r.FranchiseSummary = v.FranchiseSummary
}

// classify runs the pipeline for one title. Errors are lookup failures;
// every other outcome is a result.
func (s *Service) classify(ctx context.Context, log zerolog.Logger, title string, opts Options, fields []details.Field, lang string) (Result, error) {
	res := Result{Title: title}

	query := strings.TrimSpace(title)
	season, hasSeason := titles.ExtractSeasonNumber(query)
	if opts.normalize() {
		query = titles.Normalize(query)
	}
	if query == "" {
		res.apply(availability.NotFound("Empty title"))
		return res, nil
	}
	page, err := batch.Retry(ctx, func(ctx context.Context) (*media.SearchPage, error) {
		return s.catalog.Search(ctx, query, 1, lang)
	}, s.policy)
	if err != nil {
		return res, fmt.Errorf("search %q: %w", query, err)
	}

	candidates := matching.Requestable(page.Results)
	if len(candidates) == 0 {
		res.apply(availability.NotFound(fmt.Sprintf("No movie or series matches %q", query)))
		return res, nil
	}

	expected := titles.InferExpectedMediaType(title)
	sel, err := matching.Select(candidates, expected, query)
	if err != nil {
		res.apply(availability.NotFound(err.Error()))
		return res, nil
	}
	if sel.IsLowConfidence() {
		res.Note = fmt.Sprintf("Low confidence match: %q for %q", sel.Match.Title, query)
		log.Warn().
			Str("title", title).
			Str("match", sel.Match.Title).
			Float64("score", sel.Score).
			Msg("Low confidence match")
	}

	fetch := func(ctx context.Context, t media.MediaType, id int) (*media.MediaDetails, error) {
		return batch.Retry(ctx, func(ctx context.Context) (*media.MediaDetails, error) {
			return s.catalog.Details(ctx, t, id, lang)
		}, s.policy)
	}

	var d *media.MediaDetails
	if hasSeason && sel.Match.MediaType == media.MediaTypeTV {
		res.RequestedSeason = season
		resolved, err := matching.ResolveSeason(ctx, sel, season, fetch)
		if errors.Is(err, matching.ErrNoSeasonMatch) {
			res.ID = sel.Match.ID
			res.MatchedTitle = sel.Match.Title
			res.MediaType = sel.Match.MediaType
			res.apply(availability.NotFound(fmt.Sprintf("No series matching %q declares season %d", query, season)))
			return res, nil
		}
		if err != nil {
			return res, err
		}
		if resolved.Replaced {
			log.Debug().
				Str("title", title).
				Str("from", sel.Match.Title).
				Str("to", resolved.Selection.Match.Title).
				Msg("Replaced match with alternate declaring the season")
		}
		sel, d = resolved.Selection, resolved.Details
	} else {
		d, err = fetch(ctx, sel.Match.MediaType, sel.Match.ID)
		if err != nil {
			return res, fmt.Errorf("details %s %d: %w", sel.Match.MediaType, sel.Match.ID, err)
		}
	}

	res.ID = sel.Match.ID
	res.MatchedTitle = d.Title
	res.MediaType = sel.Match.MediaType
	res.Confidence = sel.Confidence

	classifySeason := 0
	if sel.Match.MediaType == media.MediaTypeTV && hasSeason {
		classifySeason = season
	}
	res.apply(availability.Classify(availability.Input{
		MediaType: sel.Match.MediaType,
		Season:    classifySeason,
		Details:   d,
	}))

	if len(fields) > 0 {
		res.Details = details.Build(d, fields)
	}
	if opts.IncludeDetails != nil && opts.IncludeDetails.IncludeSeason && classifySeason > 0 {
		res.TargetSeason = details.TargetSeason(d, classifySeason)
	}

	return res, nil
}

func summarize(results []Result) Summary {
	sum := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case availability.StatusPass:
			sum.Pass++
		case availability.StatusBlocked:
			sum.Blocked++
		}
		if r.IsActionable {
			sum.Actionable++
		}
		if r.ReasonCode == availability.ReasonLookupFailed {
			sum.Failed++
		}
	}
	rate := 0.0
	if sum.Total > 0 {
		rate = math.Round(float64(sum.Pass)/float64(sum.Total)*1000) / 10
	}
	sum.PassRate = fmt.Sprintf("%.1f%%", rate)
	return sum
}

// autoRequest submits every actionable result. Series use the hinted season
// when there is one, otherwise the default selection ("all" when unset).
func (s *Service) autoRequest(ctx context.Context, log zerolog.Logger, results []Result, defaults RequestDefaults) *AutoRequestReport {
	var args []requests.Args
	for _, r := range results {
		if !r.IsActionable {
			continue
		}
		a := requests.Args{
			MediaType:  r.MediaType,
			MediaID:    r.ID,
			Is4K:       defaults.Is4K,
			ServerID:   defaults.ServerID,
			ProfileID:  defaults.ProfileID,
			RootFolder: defaults.RootFolder,
			DryRun:     defaults.DryRun,
		}
		if r.MediaType == media.MediaTypeTV {
			switch {
			case r.RequestedSeason > 0:
				a.Seasons = requests.Seasons(r.RequestedSeason)
			case defaults.Seasons != nil && !defaults.Seasons.IsEmpty():
				a.Seasons = defaults.Seasons
			default:
				a.Seasons = requests.AllSeasons()
			}
			// Whole-series requests only ask for the seasons still open.
			a.ValidateFirst = r.RequestedSeason == 0
		}
		args = append(args, a)
	}

	report := &AutoRequestReport{DryRun: defaults.DryRun, Items: []requests.ItemOutcome{}}
	if len(args) == 0 {
		return report
	}

	out, err := s.requests.RequestMany(ctx, args)
	if err != nil {
		log.Error().Err(err).Msg("Auto-request failed")
		report.Errors = []batch.ItemError{{Error: err.Error()}}
		return report
	}

	report.Attempted = out.Summary.Total
	report.Failed = out.Summary.Failed
	report.NeedsConfirmation = out.Summary.NeedsConfirmation
	report.Succeeded = out.Summary.Succeeded - out.Summary.NeedsConfirmation
	report.Items = out.Results
	report.Errors = out.Errors
	return report
}
