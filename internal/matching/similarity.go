package matching

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
			cases.Fold(),
		)
	},
}

// fold lowercases s and strips diacritics so "Pokémon" compares equal to
// "pokemon".
func fold(s string) string {
	if s == "" {
		return ""
	}
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, strings.ToValidUTF8(s, ""))
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.TrimSpace(out)
}

// Similarity scores two titles in [0, 1]: 1.0 for an exact match, 0.9 when
// one contains the other, otherwise the Dice coefficient over words longer
// than two characters.
func Similarity(a, b string) float64 {
	fa, fb := fold(a), fold(b)
	if fa == fb {
		return 1.0
	}
	if fa == "" || fb == "" {
		return 0
	}
	if strings.Contains(fa, fb) || strings.Contains(fb, fa) {
		return 0.9
	}

	wa, wb := significantWords(fa), significantWords(fb)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		inB[w] = struct{}{}
	}
	common := 0
	for _, w := range wa {
		if _, ok := inB[w]; ok {
			common++
		}
	}

	return float64(2*common) / float64(len(wa)+len(wb))
}

func significantWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			out = append(out, f)
		}
	}
	return out
}
