package source

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// YearTolerance is the largest release year difference still considered a match.
// Regional release dates routinely straddle a new year.
const YearTolerance = 1

var titleSuffixes = []string{"the movie", "the series"}

// NormalizeTitle folds a title into the form used for comparisons:
// lower case, quotes and colons dropped, a trailing "the movie" or "the series"
// removed, and every run of other non-alphanumeric runes collapsed into "_".
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))

	for _, suffix := range titleSuffixes {
		head, ok := strings.CutSuffix(t, suffix)
		if !ok || head == "" {
			continue
		}
		if last := []rune(head); !isAlnum(last[len(last)-1]) {
			t = strings.TrimSpace(head)
		}
	}

	var b strings.Builder
	gap := false
	for _, r := range t {
		switch {
		case r == '\'' || r == '"' || r == ':' || r == '’':
			continue
		case isAlnum(r):
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			gap = false
			b.WriteRune(r)
		default:
			gap = true
		}
	}

	return b.String()
}

// CompareTitle reports whether two titles are equal after normalization.
func CompareTitle(a, b string) bool {
	return NormalizeTitle(a) == NormalizeTitle(b)
}

// Compare reports whether a scraped candidate matches the query.
// A missing year on either side never disqualifies a title match.
func Compare(media Media, title string, year mo.Option[int]) bool {
	if !CompareTitle(media.Title, title) {
		return false
	}

	want, ok := media.Year.Get()
	if !ok {
		return true
	}
	got, ok := year.Get()
	if !ok {
		return true
	}

	diff := want - got
	if diff < 0 {
		diff = -diff
	}
	return diff <= YearTolerance
}

// Match returns the first result matching media. Results declaring a
// different kind are skipped.
func Match(media Media, results []SearchResult) (SearchResult, bool) {
	return lo.Find(results, func(r SearchResult) bool {
		if kind, ok := r.Kind.Get(); ok && kind != media.Kind {
			return false
		}
		return Compare(media, r.Title, r.Year)
	})
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
