// Package matching picks the search candidate a free-text title most likely
// refers to and checks that a hinted season exists on it.
package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhomen368/overseerr-mcp/internal/media"
)

var (
	ErrEmptyCandidateSet = errors.New("no search candidates to select from")
	ErrNoSeasonMatch     = errors.New("no candidate has the requested season")
)

// Confidence is how sure the selector is about a match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// mediumThreshold is the similarity above which an untyped match is medium.
const mediumThreshold = 0.8

// Selection is the chosen candidate plus the rest, in search order.
type Selection struct {
	Match      media.SearchCandidate
	Confidence Confidence
	Score      float64
	Alternates []media.SearchCandidate

	// candidates is the full search order Match and Alternates came from.
	candidates []media.SearchCandidate
}

// ordered returns every candidate in search order. Selections built by
// hand have no recorded order and are taken as match first.
func (s Selection) ordered() []media.SearchCandidate {
	if s.candidates != nil {
		return s.candidates
	}
	out := make([]media.SearchCandidate, 0, len(s.Alternates)+1)
	out = append(out, s.Match)
	return append(out, s.Alternates...)
}

// IsLowConfidence reports whether callers should flag the match for review.
func (s Selection) IsLowConfidence() bool {
	return s.Confidence == ConfidenceLow
}

// Requestable drops rows that are neither movies nor series (people).
func Requestable(candidates []media.SearchCandidate) []media.SearchCandidate {
	out := make([]media.SearchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.MediaType.Valid() {
			out = append(out, c)
		}
	}
	return out
}

// Select chooses the best candidate. Search order is trusted as relevance
// order: with a concrete expected type the first candidate of that type wins
// with high confidence; otherwise the first candidate overall wins and its
// title similarity decides between medium and low.
func Select(candidates []media.SearchCandidate, expected media.MediaType, normalizedTitle string) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, ErrEmptyCandidateSet
	}

	chosen := -1
	var sel Selection

	if expected.Valid() {
		for i, c := range candidates {
			if c.MediaType == expected {
				chosen = i
				break
			}
		}
		if chosen >= 0 {
			sel.Confidence = ConfidenceHigh
			sel.Score = Similarity(candidates[chosen].Title, normalizedTitle)
		}
	}

	if chosen < 0 {
		chosen = 0
		sel.Score = Similarity(candidates[0].Title, normalizedTitle)
		if sel.Score > mediumThreshold {
			sel.Confidence = ConfidenceMedium
		} else {
			sel.Confidence = ConfidenceLow
		}
	}

	sel.Match = candidates[chosen]
	sel.candidates = candidates
	sel.Alternates = make([]media.SearchCandidate, 0, len(candidates)-1)
	for i, c := range candidates {
		if i != chosen {
			sel.Alternates = append(sel.Alternates, c)
		}
	}

	return sel, nil
}

// DetailsFetcher loads full metadata for a candidate.
type DetailsFetcher func(ctx context.Context, mediaType media.MediaType, id int) (*media.MediaDetails, error)

// SeasonResolution is the outcome of season validation.
type SeasonResolution struct {
	Selection Selection
	Details   *media.MediaDetails
	// Replaced is true when an alternate took the original match's place.
	Replaced bool
}

// ResolveSeason makes sure the selected series declares the hinted season.
// When it does not, alternates are tried in order, skipping non-series,
// and the first one with enough seasons becomes the match. The loop is
// bounded by the alternates; exhausting them returns ErrNoSeasonMatch.
// Fetch errors on the original match are returned, fetch errors on an
// alternate skip that alternate.
func ResolveSeason(ctx context.Context, sel Selection, season int, fetch DetailsFetcher) (SeasonResolution, error) {
	details, err := fetch(ctx, sel.Match.MediaType, sel.Match.ID)
	if err != nil {
		return SeasonResolution{}, fmt.Errorf("failed to fetch details for %s %d: %w", sel.Match.MediaType, sel.Match.ID, err)
	}

	if sel.Match.MediaType != media.MediaTypeTV || season <= details.SeasonCount() {
		return SeasonResolution{Selection: sel, Details: details}, nil
	}

	for _, alt := range sel.Alternates {
		if err := ctx.Err(); err != nil {
			return SeasonResolution{}, err
		}
		if alt.MediaType != media.MediaTypeTV {
			continue
		}

		altDetails, err := fetch(ctx, alt.MediaType, alt.ID)
		if err != nil {
			continue
		}
		if season > altDetails.SeasonCount() {
			continue
		}

		all := sel.ordered()
		replaced := Selection{
			Match:      alt,
			Confidence: sel.Confidence,
			Score:      sel.Score,
			Alternates: make([]media.SearchCandidate, 0, len(all)-1),
			candidates: all,
		}
		for _, c := range all {
			if c.ID != alt.ID || c.MediaType != alt.MediaType {
				replaced.Alternates = append(replaced.Alternates, c)
			}
		}
		return SeasonResolution{Selection: replaced, Details: altDetails, Replaced: true}, nil
	}

	return SeasonResolution{}, ErrNoSeasonMatch
}
