// Package sources maps third-party indexers and upstream Stremio addons onto
// one search contract. Every adapter converts its native payload into
// models.RawResult before returning.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amaumene/streamhub/internal/cache"
	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/httputil"
	"github.com/amaumene/streamhub/pkg/logger"
	"github.com/amaumene/streamhub/pkg/ratelimiter"
)

const (
	searchCacheSize = 256
	searchCacheTTL  = 10 * time.Minute
)

// Query is what the aggregator asks every adapter for.
type Query struct {
	ImdbID  string
	Title   string
	Year    int
	Type    string
	Season  int
	Episode int
}

// IsEpisode reports a series query targeting a single episode.
func (q Query) IsEpisode() bool {
	return q.Type == "series" && q.Season > 0 && q.Episode > 0
}

// StremioID renders the id upstream addons expect: tt123 or tt123:S:E.
func (q Query) StremioID() string {
	if q.IsEpisode() {
		return fmt.Sprintf("%s:%d:%d", q.ImdbID, q.Season, q.Episode)
	}
	return q.ImdbID
}

func (q Query) cacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d|%d", q.ImdbID, strings.ToLower(q.Title), q.Type, q.Year, q.Season, q.Episode)
}

// Adapter is one source of candidate streams.
type Adapter interface {
	Name() string
	// MixedLanguage reports a global indexer whose results need an explicit
	// Italian, multi or subtitle tag to be trusted.
	MixedLanguage() bool
	Search(ctx context.Context, q Query) ([]models.RawResult, error)
}

// Options configures an adapter. Zero fields get defaults.
type Options struct {
	BaseURL string
	Client  *http.Client
	Limiter ratelimiter.RateLimiter
	Logger  logger.Logger
}

// base holds what the HTTP adapters share: a client, a rate limiter and a
// short-lived cache of converted results.
type base struct {
	name    string
	baseURL string
	client  *http.Client
	limiter ratelimiter.RateLimiter
	logger  logger.Logger
	cache   *cache.LRU[string, []models.RawResult]
}

func newBase(name, defaultURL string, opts Options) base {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultURL
	}
	if opts.Client == nil {
		opts.Client = httputil.NewHTTPClient(constants.DefaultAdapterTimeout)
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimiter.NewTokenBucket(constants.SourceRateLimit, constants.SourceRateBurst)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return base{
		name:    name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  opts.Client,
		limiter: opts.Limiter,
		logger:  opts.Logger,
		cache:   cache.New[string, []models.RawResult](searchCacheSize, searchCacheTTL),
	}
}

func (b *base) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	b.logger.Debugf("[%s] GET %s", b.name, rawURL)
	return httputil.GetJSON(ctx, b.client, rawURL, nil, out)
}

// cached wraps fetch with the search cache. Empty answers are not cached so
// a transient empty index does not stick.
func (b *base) cached(q Query, fetch func() ([]models.RawResult, error)) ([]models.RawResult, error) {
	key := q.cacheKey()
	if results, ok := b.cache.Get(key); ok {
		b.logger.Debugf("[%s] cache hit for %s", b.name, key)
		return results, nil
	}
	results, err := fetch()
	if err != nil {
		return nil, err
	}
	if len(results) > constants.MaxResultsPerSource {
		results = results[:constants.MaxResultsPerSource]
	}
	if len(results) > 0 {
		b.cache.Set(key, results)
	}
	b.logger.Infof("[%s] %d results for %q", b.name, len(results), q.Title)
	return results, nil
}
