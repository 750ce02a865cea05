// Package availability decides whether a title can be requested given what
// the downstream service already holds and what has already been requested.
package availability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jhomen368/overseerr-mcp/internal/media"
)

// Status is the verdict of a classification.
type Status string

const (
	StatusPass    Status = "pass"
	StatusBlocked Status = "blocked"
)

// ReasonCode explains a verdict.
type ReasonCode string

const (
	ReasonNotFound            ReasonCode = "NOT_FOUND"
	ReasonAlreadyAvailable    ReasonCode = "ALREADY_AVAILABLE"
	ReasonAlreadyRequested    ReasonCode = "ALREADY_REQUESTED"
	ReasonSeasonAvailable     ReasonCode = "SEASON_AVAILABLE"
	ReasonSeasonRequested     ReasonCode = "SEASON_REQUESTED"
	ReasonAvailableForRequest ReasonCode = "AVAILABLE_FOR_REQUEST"
	ReasonLookupFailed        ReasonCode = "LOOKUP_FAILED"
)

// Verdict is the classifier output. IsActionable implies StatusPass.
type Verdict struct {
	Status           Status     `json:"status"`
	ReasonCode       ReasonCode `json:"reasonCode"`
	IsActionable     bool       `json:"isActionable"`
	Reason           string     `json:"reason,omitempty"`
	FranchiseSummary string     `json:"franchiseSummary,omitempty"`
}

// Input is what the classifier needs about one resolved title.
type Input struct {
	MediaType media.MediaType
	// Season is the hinted season; zero means the whole title.
	Season  int
	Details *media.MediaDetails
}

func blocked(code ReasonCode, reason string) Verdict {
	return Verdict{Status: StatusBlocked, ReasonCode: code, Reason: reason}
}

func actionable(reason string) Verdict {
	return Verdict{Status: StatusPass, ReasonCode: ReasonAvailableForRequest, IsActionable: true, Reason: reason}
}

// NotFound is the verdict for a title that could not be located.
func NotFound(reason string) Verdict {
	return blocked(ReasonNotFound, reason)
}

// LookupFailed is the verdict for a title whose lookups kept failing.
func LookupFailed(reason string) Verdict {
	return blocked(ReasonLookupFailed, reason)
}

// Classify applies the availability rules; the first matching rule wins.
func Classify(in Input) Verdict {
	d := in.Details
	if d == nil {
		return NotFound("No metadata available")
	}

	switch {
	case in.MediaType == media.MediaTypeMovie:
		return classifyMovie(d)
	case in.Season > 0:
		return classifySeason(d, in.Season)
	default:
		return classifySeries(d)
	}
}

func classifyMovie(d *media.MediaDetails) Verdict {
	status := d.LibraryStatus()
	if status.InLibrary() {
		return blocked(ReasonAlreadyAvailable, fmt.Sprintf("Already in library (%s)", status.Humanize()))
	}
	if reqs := d.Requests(); len(reqs) > 0 {
		return blocked(ReasonAlreadyRequested, requestedReason(reqs))
	}
	return actionable("Not in library and not requested")
}

func classifySeason(d *media.MediaDetails, season int) Verdict {
	split := ClassifySeasons(d, d.RegularSeasonNumbers())
	summary := split.Summary()

	if status := d.SeasonStatus(season); status.InLibrary() {
		v := blocked(ReasonSeasonAvailable, fmt.Sprintf("Season %d is already in library (%s)", season, status.Humanize()))
		v.FranchiseSummary = summary
		return v
	}

	for _, r := range d.Requests() {
		if r.Covers(season) {
			v := blocked(ReasonSeasonRequested, fmt.Sprintf("Season %d is already requested (%s)", season, r.Status))
			v.FranchiseSummary = summary
			return v
		}
	}

	v := actionable(fmt.Sprintf("Season %d is not in library and not requested", season))
	v.FranchiseSummary = fmt.Sprintf("Season %d open for request. %s", season, summary)
	return v
}

func classifySeries(d *media.MediaDetails) Verdict {
	// The show-level flag can be AVAILABLE without any per-season rows.
	if d.LibraryStatus() == media.StatusAvailable {
		return blocked(ReasonAlreadyAvailable, "Series is already available")
	}

	reqs := d.Requests()
	for _, r := range reqs {
		if r.IsShowLevel() {
			return blocked(ReasonAlreadyRequested, "Series already has a full-series request")
		}
	}

	var summary string
	seasons := d.RegularSeasonNumbers()
	if len(seasons) > 0 {
		split := ClassifySeasons(d, seasons)
		summary = split.Summary()

		switch {
		case len(split.Available) == len(seasons):
			v := blocked(ReasonAlreadyAvailable, "All seasons are already in library")
			v.FranchiseSummary = summary
			return v
		case len(split.Open) == 0 && len(split.Requested) > 0:
			v := blocked(ReasonAlreadyRequested, "All remaining seasons are already requested")
			v.FranchiseSummary = summary
			return v
		case len(split.Open) < len(seasons):
			v := actionable(fmt.Sprintf("%d of %d seasons open for request", len(split.Open), len(seasons)))
			v.FranchiseSummary = summary
			return v
		}
	}

	// No season is tracked individually; fall back to the show-level state.
	if status := d.LibraryStatus(); status.InLibrary() {
		v := blocked(ReasonAlreadyAvailable, fmt.Sprintf("Series is already in library (%s)", status.Humanize()))
		v.FranchiseSummary = summary
		return v
	}
	if len(reqs) > 0 {
		v := blocked(ReasonAlreadyRequested, requestedReason(reqs))
		v.FranchiseSummary = summary
		return v
	}
	v := actionable("Series is not in library and not requested")
	v.FranchiseSummary = summary
	return v
}

// SeasonSplit partitions seasons by library and request state. A season in
// the library is never also listed as requested.
type SeasonSplit struct {
	Available []int `json:"available"`
	Requested []int `json:"requested"`
	Open      []int `json:"open"`
}

// ClassifySeasons sorts the given seasons into available, requested and
// open buckets.
func ClassifySeasons(d *media.MediaDetails, seasons []int) SeasonSplit {
	split := SeasonSplit{}
	reqs := d.Requests()
	for _, n := range seasons {
		if d.SeasonStatus(n).InLibrary() {
			split.Available = append(split.Available, n)
			continue
		}
		if anyCovers(reqs, n) {
			split.Requested = append(split.Requested, n)
			continue
		}
		split.Open = append(split.Open, n)
	}
	return split
}

// Summary renders the split as a franchise summary.
func (s SeasonSplit) Summary() string {
	var parts []string
	if len(s.Available) > 0 {
		parts = append(parts, "In library: "+seasonList(s.Available))
	}
	if len(s.Requested) > 0 {
		parts = append(parts, "Requested: "+seasonList(s.Requested))
	}
	if len(s.Open) > 0 {
		parts = append(parts, "Open: "+seasonList(s.Open))
	}
	return strings.Join(parts, "; ")
}

func anyCovers(reqs []media.RequestRef, season int) bool {
	for _, r := range reqs {
		if r.Covers(season) {
			return true
		}
	}
	return false
}

// seasonList renders sorted season numbers, collapsing runs into ranges:
// "Season 3", "Seasons 1-3, 5".
func seasonList(nums []int) string {
	if len(nums) == 1 {
		return "Season " + strconv.Itoa(nums[0])
	}

	var parts []string
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		if j > i {
			parts = append(parts, fmt.Sprintf("%d-%d", nums[i], nums[j]))
		} else {
			parts = append(parts, strconv.Itoa(nums[i]))
		}
		i = j + 1
	}
	return "Seasons " + strings.Join(parts, ", ")
}

func requestedReason(reqs []media.RequestRef) string {
	if len(reqs) == 1 {
		return fmt.Sprintf("Already requested (%s)", reqs[0].Status)
	}
	return fmt.Sprintf("Already requested (%d requests)", len(reqs))
}
