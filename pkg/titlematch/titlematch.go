// Package titlematch scores how plausibly a release name refers to a
// requested title, with guards against movie/series mix-ups.
package titlematch

import (
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/moistari/rls"
	"github.com/mozillazg/go-unidecode"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	seriesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:^|[^a-z0-9])s\d{1,2}[ .]?e\d{1,2}`),
		regexp.MustCompile(`(?i)(?:^|[^0-9])\d{1,2}x\d{1,2}(?:[^0-9]|$)`),
		regexp.MustCompile(`(?i)(?:^|[^a-z])(?:stagione|season)[ .]*\d+`),
	}

	levenshtein = metrics.NewLevenshtein()
)

// Match is one candidate that cleared the threshold.
type Match struct {
	Candidate string
	Index     int
	Score     int
}

// Normalize folds accents, lowercases and collapses punctuation to single
// spaces: "Amélie (2001)" becomes "amelie 2001".
func Normalize(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens returns the distinct normalized words of s, sorted.
func Tokens(s string) []string {
	fields := strings.Fields(Normalize(s))
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// TokenSetRatio returns a 0-100 similarity that ignores word order and
// duplicated words. A query whose words all appear in the candidate scores 100.
func TokenSetRatio(a, b string) int {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inB := make(map[string]bool, len(tb))
	for _, t := range tb {
		inB[t] = true
	}
	inA := make(map[string]bool, len(ta))
	for _, t := range ta {
		inA[t] = true
	}

	var inter, onlyA, onlyB []string
	for _, t := range ta {
		if inB[t] {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range tb {
		if !inA[t] {
			onlyB = append(onlyB, t)
		}
	}

	sect := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := ratio(combinedA, combinedB)
	if sect != "" {
		best = max(best, ratio(sect, combinedA), ratio(sect, combinedB))
	}
	return best
}

func ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	return int(strutil.Similarity(a, b, levenshtein)*100 + 0.5)
}

// HasSeriesPattern reports SxxExx, NxNN or "Season/Stagione N" markers.
func HasSeriesPattern(title string) bool {
	for _, p := range seriesPatterns {
		if p.MatchString(title) {
			return true
		}
	}
	return false
}

// TypeConsistent rejects series-looking titles for movies and titles without
// a series marker for series.
func TypeConsistent(title, mediaType string) bool {
	series := HasSeriesPattern(title)
	switch mediaType {
	case "movie":
		return !series
	case "series":
		return series
	default:
		return true
	}
}

// CleanTitle strips release tags, keeping only the title part of a release
// name. It falls back to the input when nothing is recognised.
func CleanTitle(name string) string {
	r := rls.ParseString(name)
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	return strings.TrimSpace(name)
}

// MatchAll keeps the candidates scoring at least threshold against query whose
// type markers agree with mediaType. Input order is preserved.
func MatchAll(query string, candidates []string, mediaType string, threshold int) []Match {
	var out []Match
	for i, c := range candidates {
		if !TypeConsistent(c, mediaType) {
			continue
		}
		score := TokenSetRatio(query, c)
		if score >= threshold {
			out = append(out, Match{Candidate: c, Index: i, Score: score})
		}
	}
	return out
}

// BestMatch returns the highest scoring type-consistent candidate. Ties keep
// the earliest candidate.
func BestMatch(query string, candidates []string, mediaType string, threshold int) (Match, bool) {
	var best Match
	found := false
	for _, m := range MatchAll(query, candidates, mediaType, threshold) {
		if !found || m.Score > best.Score {
			best = m
			found = true
		}
	}
	return best, found
}
