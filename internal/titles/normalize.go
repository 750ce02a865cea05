// Package titles cleans free-text media titles before they are searched and
// extracts season hints from them.
package titles

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jhomen368/overseerr-mcp/internal/media"
)

var romanNumerals = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5,
	"VI": 6, "VII": 7, "VIII": 8, "IX": 9, "X": 10,
	"XI": 11, "XII": 12, "XIII": 13, "XIV": 14, "XV": 15,
}

// A trailing numeral only counts when it ends the title or precedes "(".
var romanSuffix = regexp.MustCompile(`(?i)\s+(I|II|III|IV|V|VI|VII|VIII|IX|X|XI|XII|XIII|XIV|XV)(\s*\(|$)`)

// Order matters: the longer "The Final Season" must go before "Final Season".
var seasonMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[-:]\s*Season\s+\d+\b`),
	regexp.MustCompile(`(?i)\s*\(Season\s+\d+\)`),
	regexp.MustCompile(`(?i)\s*\(\d+(?:st|nd|rd|th)\s+Season\)`),
	regexp.MustCompile(`(?i)\s*\bSeason\s+\d+\b`),
	regexp.MustCompile(`(?i)\s+S\s*\d+\b`),
	regexp.MustCompile(`(?i)\s*\bPart\s+\d+\b`),
	regexp.MustCompile(`(?i)\s*\bCour\s+\d+\b`),
	regexp.MustCompile(`(?i)\s*\b\d+(?:st|nd|rd|th)\s+Season\b`),
	regexp.MustCompile(`(?i)\s*\bThe\s+Final\s+Season\b`),
	regexp.MustCompile(`(?i)\s*\bFinal\s+Season\b`),
}

var (
	trailingYear = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)
	whitespace   = regexp.MustCompile(`\s+`)
	emptyParens  = regexp.MustCompile(`\(\s*\)`)
)

var seasonNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bSeason\s+(\d+)`),
	regexp.MustCompile(`(?i)(?:^|\s)S\s*(\d+)\b`),
	regexp.MustCompile(`(?i)\bPart\s+(\d+)`),
	regexp.MustCompile(`(?i)\bCour\s+(\d+)`),
	regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)\s+Season`),
}

var sequelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bSeason\s+[2-9]`),
	regexp.MustCompile(`(?i)(?:^|\s)S\s*[2-9]\b`),
	regexp.MustCompile(`(?i)\bPart\s+[2-9]`),
	regexp.MustCompile(`(?i)\b(?:2nd|3rd|4th|5th|6th|7th|8th|9th)\s+Season`),
	regexp.MustCompile(`(?i)\bFinal\s+Season`),
	regexp.MustCompile(`(?i)\s+(?:II|III|IV|V|VI|VII|VIII|IX|X|XI|XII|XIII|XIV|XV)(?:\s*\(|$)`),
}

// maxPasses bounds the fixpoint loop in Normalize. Each pass strips at
// least one marker or stops, so a handful is plenty for real titles.
const maxPasses = 8

// Normalize strips season markers and a trailing year so the remaining text
// can be searched as the franchise name. Bare numbers that are part of a
// name ("Mob Psycho 100") are kept. Normalize(Normalize(t)) == Normalize(t).
func Normalize(title string) string {
	current := strings.TrimSpace(title)
	for range maxPasses {
		next := normalizeOnce(current)
		if next == current {
			break
		}
		current = next
	}
	return current
}

func normalizeOnce(title string) string {
	out := romanSuffix.ReplaceAllString(title, "$2")
	for _, re := range seasonMarkers {
		out = re.ReplaceAllString(out, "")
	}
	out = emptyParens.ReplaceAllString(out, "")
	out = trailingYear.ReplaceAllString(out, "")
	out = whitespace.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	// A title made only of markers keeps its original text.
	if out == "" {
		return strings.TrimSpace(title)
	}
	return strings.TrimRight(out, " -:")
}

// ExtractSeasonNumber returns the season a title refers to, if any.
// A trailing Roman numeral wins over textual markers.
func ExtractSeasonNumber(title string) (int, bool) {
	if m := romanSuffix.FindStringSubmatch(title); m != nil {
		if n, ok := romanNumerals[strings.ToUpper(m[1])]; ok {
			return n, true
		}
	}

	for _, re := range seasonNumberPatterns {
		m := re.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, true
	}

	return 0, false
}

// IsSequelTitle reports whether the title looks like a continuation of an
// earlier season or part.
func IsSequelTitle(title string) bool {
	for _, re := range sequelPatterns {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// InferExpectedMediaType returns MediaTypeTV when the title carries a season
// marker or a sequel pattern, otherwise MediaTypeAny.
func InferExpectedMediaType(title string) media.MediaType {
	if _, ok := ExtractSeasonNumber(title); ok {
		return media.MediaTypeTV
	}
	if IsSequelTitle(title) {
		return media.MediaTypeTV
	}
	return media.MediaTypeAny
}
