// Package aggregator drives one stream request end to end: fan out to every
// source adapter, filter, deduplicate, annotate debrid cache status, rank and
// format.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/amaumene/streamhub/internal/config"
	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/debrid"
	"github.com/amaumene/streamhub/internal/dedup"
	apperrors "github.com/amaumene/streamhub/internal/errors"
	"github.com/amaumene/streamhub/internal/filter"
	"github.com/amaumene/streamhub/internal/metrics"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/internal/sources"
	"github.com/amaumene/streamhub/pkg/logger"
	"github.com/amaumene/streamhub/pkg/releaseinfo"
)

// Request is the inbound contract of GetStreams. Host is the public base URL
// used to build resolver links.
type Request struct {
	Meta    models.MediaMeta
	Type    string
	Host    string
	Season  int
	Episode int
}

// StreamAggregator is built per request around the merged user config. The
// adapters it receives are long-lived and shared.
type StreamAggregator struct {
	cfg      *config.Config
	adapters []sources.Adapter
	filterer *filter.Filterer
	checker  *debrid.CacheChecker
	trackers []string
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// New wires an aggregator. checker may be nil when no debrid provider is
// configured.
func New(cfg *config.Config, adapters []sources.Adapter, checker *debrid.CacheChecker, log logger.Logger, m *metrics.Metrics) *StreamAggregator {
	return &StreamAggregator{
		cfg:      cfg,
		adapters: adapters,
		filterer: filter.New(cfg, sources.MixedLanguageNames(adapters), log, m),
		checker:  checker,
		trackers: constants.DefaultTrackers,
		logger:   log,
		metrics:  m,
	}
}

// adapterOutcome is what one adapter call produced. Exactly one of results
// and err is meaningful.
type adapterOutcome struct {
	source  string
	results []models.RawResult
	err     error
	elapsed time.Duration
}

// unwrap applies the degrade-to-empty policy: a failed adapter contributes
// nothing.
func (o adapterOutcome) unwrap(log logger.Logger, m *metrics.Metrics) []models.RawResult {
	if m != nil {
		m.AdapterDuration.WithLabelValues(o.source).Observe(o.elapsed.Seconds())
	}
	if o.err != nil {
		kind := apperrors.ErrorTypeAdapterFailure
		if apperrors.IsType(o.err, apperrors.ErrorTypeTimeout) {
			kind = apperrors.ErrorTypeTimeout
		} else if apperrors.IsType(o.err, apperrors.ErrorTypeInternal) {
			kind = apperrors.ErrorTypeInternal
		}
		log.Warnf("[Aggregator] %s contributed no results: %v", o.source, o.err)
		if m != nil {
			m.AdapterFailures.WithLabelValues(o.source, kind).Inc()
		}
		return nil
	}
	if m != nil {
		m.AdapterResults.WithLabelValues(o.source).Add(float64(len(o.results)))
	}
	return o.results
}

// GetStreams never fails: adapter errors shrink the result set and internal
// defects yield an empty list.
func (a *StreamAggregator) GetStreams(ctx context.Context, req Request) (streams []models.RankedStream) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorf("[Aggregator] unexpected failure for %s: %v", req.Meta.ID, r)
			streams = []models.RankedStream{}
		}
		if a.metrics != nil {
			a.metrics.AggregateDuration.Observe(time.Since(start).Seconds())
			a.metrics.StreamsReturned.Observe(float64(len(streams)))
		}
	}()

	q := resolveQuery(req)
	if q.Title == "" {
		a.logger.Warnf("[Aggregator] no title for %s, nothing to search", req.Meta.ID)
		return []models.RankedStream{}
	}
	fc := filter.Context{Title: q.Title, Year: q.Year, Type: q.Type}

	raw := a.collect(ctx, q)
	kept := a.filterer.Filter(raw, fc)

	unique := dedup.Deduplicate(kept)
	if a.metrics != nil {
		a.metrics.DedupCollapsed.Add(float64(len(kept) - len(unique)))
	}

	unique = a.annotate(ctx, unique)

	streams = a.rank(unique, req)
	a.logger.Infof("[Aggregator] %d streams for %q (%d raw, %d filtered) in %s",
		len(streams), q.Title, len(raw), len(kept), time.Since(start).Round(time.Millisecond))
	return streams
}

// resolveQuery turns the request into an adapter query. An episode request
// against a collection targets the member movie instead.
func resolveQuery(req Request) sources.Query {
	q := sources.Query{
		ImdbID:  req.Meta.ID,
		Title:   req.Meta.Name,
		Year:    req.Meta.Year,
		Type:    req.Type,
		Season:  req.Season,
		Episode: req.Episode,
	}
	if !req.Meta.Collection {
		return q
	}
	if v, ok := collectionMember(req.Meta, req.Season, req.Episode); ok {
		q.ImdbID = v.ID
		q.Title = v.Title
		q.Year = v.Year
	}
	q.Type = "movie"
	q.Season, q.Episode = 0, 0
	return q
}

func collectionMember(meta models.MediaMeta, season, episode int) (models.Video, bool) {
	if episode <= 0 {
		return models.Video{}, false
	}
	for _, v := range meta.Videos {
		if v.Season == season && v.Episode == episode {
			return v, true
		}
	}
	if episode <= len(meta.Videos) {
		return meta.Videos[episode-1], true
	}
	return models.Video{}, false
}

// collect fans out to every adapter and consumes outcomes as they arrive.
// It returns early once enough 2160p and 1080p results have accumulated, or
// when the aggregate deadline expires. Late outcomes are dropped.
func (a *StreamAggregator) collect(ctx context.Context, q sources.Query) []models.RawResult {
	if len(a.adapters) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.AggregateTimeout)
	defer cancel()

	// buffered so adapters finishing after an early exit never block
	outcomes := make(chan adapterOutcome, len(a.adapters))
	for _, ad := range a.adapters {
		go func(ad sources.Adapter) {
			outcomes <- a.search(ctx, ad, q)
		}(ad)
	}

	var (
		all          []models.RawResult
		n2160, n1080 int
	)
	for pending := len(a.adapters); pending > 0; pending-- {
		select {
		case o := <-outcomes:
			results := o.unwrap(a.logger, a.metrics)
			for _, r := range results {
				switch releaseinfo.ResolutionTier(r.Label()) {
				case releaseinfo.Tier2160:
					n2160++
				case releaseinfo.Tier1080:
					n1080++
				}
			}
			all = append(all, results...)

			if n2160 >= a.cfg.EarlyExit4K && n1080 >= a.cfg.EarlyExit1080p && pending > 1 {
				a.logger.Infof("[Aggregator] early exit with %d results (%d 4K, %d 1080p), %d sources still pending",
					len(all), n2160, n1080, pending-1)
				if a.metrics != nil {
					a.metrics.EarlyExits.Inc()
				}
				return all
			}
		case <-ctx.Done():
			a.logger.Warnf("[Aggregator] deadline reached with %d sources pending", pending)
			return all
		}
	}
	return all
}

// search runs one adapter under its own timeout. Errors, timeouts and panics
// all come back as an outcome with err set.
func (a *StreamAggregator) search(ctx context.Context, ad sources.Adapter, q sources.Query) adapterOutcome {
	name := ad.Name()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.AdapterTimeout)
	defer cancel()

	done := make(chan adapterOutcome, 1)
	go func() {
		var (
			results []models.RawResult
			err     error
		)
		if rec := panics.Try(func() { results, err = ad.Search(ctx, q) }); rec != nil {
			err = apperrors.NewInternalError(fmt.Sprintf("source %s panicked", name), rec.AsError())
		} else if err != nil {
			err = apperrors.NewAdapterError(name, err)
		}
		done <- adapterOutcome{source: name, results: results, err: err}
	}()

	select {
	case o := <-done:
		o.elapsed = time.Since(start)
		if o.err == nil && ctx.Err() != nil {
			o.results, o.err = nil, apperrors.NewTimeoutError("search "+name)
		}
		return o
	case <-ctx.Done():
		return adapterOutcome{source: name, err: apperrors.NewTimeoutError("search " + name), elapsed: time.Since(start)}
	}
}

// annotate runs the debrid cache check over the torrent entries.
func (a *StreamAggregator) annotate(ctx context.Context, results []models.RawResult) []models.RawResult {
	if a.checker == nil || !a.checker.Enabled() {
		return results
	}
	hashes := make([]string, 0, len(results))
	for _, r := range results {
		if r.IsDirect {
			continue
		}
		if h := r.Hash(); h != "" {
			hashes = append(hashes, h)
		}
	}
	if len(hashes) == 0 {
		return results
	}
	return debrid.Apply(results, a.checker.CheckCaches(ctx, hashes))
}
