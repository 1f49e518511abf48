package sources

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/releaseinfo"
	"github.com/amaumene/streamhub/pkg/titlematch"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9 ]+`)

// SearchText builds the free-text query sent to indexers:
// "title year" for movies, "title sXXeYY" for an episode, "title sXX" for a
// season.
func SearchText(q Query) string {
	title := strings.Join(strings.Fields(nonAlphanumeric.ReplaceAllString(q.Title, " ")), " ")
	switch {
	case q.Type == "movie" && q.Year > 0:
		return fmt.Sprintf("%s %d", title, q.Year)
	case q.IsEpisode():
		return fmt.Sprintf("%s s%02de%02d", title, q.Season, q.Episode)
	case q.Type == "series" && q.Season > 0:
		return fmt.Sprintf("%s s%02d", title, q.Season)
	default:
		return title
	}
}

// MatchesEpisode keeps series releases for the requested episode or packs of
// the requested season. Non-episode queries match everything.
func MatchesEpisode(title string, q Query) bool {
	if !q.IsEpisode() {
		return true
	}
	ep, ok := releaseinfo.ParseEpisode(title)
	if !ok || ep.Season == 0 {
		// torrentname could not tell; leave it to the filter
		return true
	}
	if ep.Season != q.Season {
		return false
	}
	return ep.Episode == 0 || ep.Episode == q.Episode
}

// relevant drops candidates whose titles are clearly about something else.
// It is much more lenient than the final filter.
func relevant(q Query, results []models.RawResult) []models.RawResult {
	if q.Title == "" || len(results) == 0 {
		return results
	}
	labels := make([]string, len(results))
	for i, r := range results {
		labels[i] = r.Label()
	}
	matches := titlematch.MatchAll(q.Title, labels, "", constants.SourceMatchThreshold)
	out := make([]models.RawResult, 0, len(matches))
	for _, m := range matches {
		if MatchesEpisode(m.Candidate, q) {
			out = append(out, results[m.Index])
		}
	}
	return out
}
