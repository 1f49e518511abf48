// Package filter turns the noisy candidate pool returned by sources into a
// precision-oriented one. Every check is conservative: when in doubt, reject.
package filter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/amaumene/streamhub/internal/config"
	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/metrics"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/logger"
	"github.com/amaumene/streamhub/pkg/releaseinfo"
	"github.com/amaumene/streamhub/pkg/titlematch"
)

// Reason names the check that rejected a result.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonUnusable   Reason = "unusable"
	ReasonNoTitle    Reason = "no_title"
	ReasonExcluded   Reason = "excluded"
	ReasonTooLarge   Reason = "too_large"
	ReasonTooSmall   Reason = "too_small"
	ReasonResolution Reason = "resolution"
	ReasonTitle      Reason = "title_mismatch"
	ReasonYear       Reason = "year_mismatch"
	ReasonLanguage   Reason = "language"
	ReasonType       Reason = "type_mismatch"
)

// Years are whole digit runs, so separators like "_" or "." never hide one.
var digitRun = regexp.MustCompile(`[0-9]+`)

// Context is the request-scoped target results are validated against.
type Context struct {
	Title string
	Year  int
	Type  string
}

// NewContext builds a Context from resolved metadata.
func NewContext(meta models.MediaMeta, mediaType string) Context {
	return Context{Title: meta.Name, Year: meta.Year, Type: mediaType}
}

// Filterer applies the ordered checks. It is safe for concurrent use.
type Filterer struct {
	exclude        []*regexp.Regexp
	maxSize        int64
	minMovieSize   int64
	minEpisodeSize int64
	threshold      int
	mixedLanguage  map[string]bool
	logger         logger.Logger
	metrics        *metrics.Metrics
}

// New creates a Filterer from cfg. mixedLanguageSources names the sources
// whose results must carry an Italian, multi or subtitle tag.
func New(cfg *config.Config, mixedLanguageSources []string, log logger.Logger, m *metrics.Metrics) *Filterer {
	mixed := make(map[string]bool, len(mixedLanguageSources))
	for _, s := range mixedLanguageSources {
		mixed[strings.ToLower(s)] = true
	}
	return &Filterer{
		exclude:        cfg.ExcludeRegexps(),
		maxSize:        cfg.MaxSizeBytes(),
		minMovieSize:   cfg.MinSizeBytes("movie"),
		minEpisodeSize: cfg.MinSizeBytes("series"),
		threshold:      cfg.FuzzyThreshold,
		mixedLanguage:  mixed,
		logger:         log,
		metrics:        m,
	}
}

// Filter returns the results that pass every check, preserving input order.
func (f *Filterer) Filter(results []models.RawResult, fc Context) []models.RawResult {
	kept := make([]models.RawResult, 0, len(results))
	for _, r := range results {
		reason := f.Check(r, fc)
		if reason == ReasonNone {
			kept = append(kept, r)
			continue
		}
		f.logger.Debugf("[Filter] rejected %q from %s: %s", r.Label(), r.SourceName, reason)
		if f.metrics != nil {
			f.metrics.FilterRejections.WithLabelValues(string(reason)).Inc()
		}
	}
	f.logger.Infof("[Filter] %d/%d results kept for %q", len(kept), len(results), fc.Title)
	return kept
}

// Check runs the checks in order and returns the first failing reason, or
// ReasonNone when r is acceptable.
func (f *Filterer) Check(r models.RawResult, fc Context) Reason {
	if !r.Usable() {
		return ReasonUnusable
	}

	label := strings.TrimSpace(r.Label())
	if label == "" {
		return ReasonNoTitle
	}

	for _, re := range f.exclude {
		if re.MatchString(label) {
			return ReasonExcluded
		}
	}

	if f.maxSize > 0 && r.SizeBytes > 0 && r.SizeBytes > f.maxSize {
		return ReasonTooLarge
	}

	if r.SizeBytes > 0 && r.SizeBytes < f.minSize(fc.Type) {
		return ReasonTooSmall
	}

	if !resolutionAcceptable(label) {
		return ReasonResolution
	}

	if fc.Title != "" && titlematch.TokenSetRatio(fc.Title, titlematch.CleanTitle(label)) < f.threshold {
		return ReasonTitle
	}

	if !yearAcceptable(label, fc) {
		return ReasonYear
	}

	if f.mixedLanguage[strings.ToLower(r.SourceName)] && !languageSafe(label) {
		return ReasonLanguage
	}

	if !titlematch.TypeConsistent(label, fc.Type) {
		return ReasonType
	}

	return ReasonNone
}

func (f *Filterer) minSize(mediaType string) int64 {
	if mediaType == "series" {
		return f.minEpisodeSize
	}
	return f.minMovieSize
}

// resolutionAcceptable rejects SD sources and codecs outright, and 720p/HD
// releases unless they also advertise 1080p or 2160p.
func resolutionAcceptable(title string) bool {
	if releaseinfo.IsLowResolution(title) {
		return false
	}
	if releaseinfo.Is720(title) {
		return releaseinfo.IsHigh(title)
	}
	return true
}

// yearAcceptable compares the years found in title with the target year.
// Year-like tokens that belong to the target title itself are ignored, and a
// title without any year passes.
func yearAcceptable(title string, fc Context) bool {
	if fc.Year <= 0 {
		return true
	}
	own := make(map[int]bool)
	for _, y := range years(fc.Title) {
		own[y] = true
	}

	found := false
	for _, y := range years(title) {
		if own[y] {
			continue
		}
		found = true
		if abs(y-fc.Year) <= constants.DefaultYearTolerance {
			return true
		}
	}
	return !found
}

// years returns the 19xx/20xx tokens of s.
func years(s string) []int {
	var out []int
	for _, run := range digitRun.FindAllString(s, -1) {
		if len(run) != 4 || (run[:2] != "19" && run[:2] != "20") {
			continue
		}
		y, _ := strconv.Atoi(run)
		out = append(out, y)
	}
	return out
}

func languageSafe(title string) bool {
	info := releaseinfo.Parse(title)
	return info.HasLanguage(releaseinfo.LangITA.Code) ||
		info.HasLanguage(releaseinfo.LangMULTI.Code) ||
		info.Subtitled
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
