package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/streamhub/internal/cache"
	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/database"
	apperrors "github.com/amaumene/streamhub/internal/errors"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/httputil"
	"github.com/amaumene/streamhub/pkg/logger"
	"github.com/amaumene/streamhub/pkg/ratelimiter"
	"github.com/amaumene/streamhub/pkg/security"
)

const tmdbURL = "https://api.themoviedb.org/3"

// TMDBOptions configures NewTMDB. DB may be nil.
type TMDBOptions struct {
	APIKey    string
	BaseURL   string
	Client    *http.Client
	CacheSize int
	CacheTTL  time.Duration
	DB        database.Database
	Logger    logger.Logger
}

// TMDB resolves stream ids to the metadata the pipeline filters against.
// Lookups go memory cache, then bbolt, then the API.
type TMDB struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	cache       *cache.LRU[string, models.MediaMeta]
	ttl         time.Duration
	db          database.Database
	rateLimiter ratelimiter.RateLimiter
	logger      logger.Logger
	validator   *security.APIKeyValidator
}

func NewTMDB(opts TMDBOptions) *TMDB {
	if opts.BaseURL == "" {
		opts.BaseURL = tmdbURL
	}
	if opts.Client == nil {
		opts.Client = httputil.NewHTTPClient(constants.RequestTimeout)
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = constants.DefaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Duration(constants.DefaultCacheTTL) * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	validator := security.NewAPIKeyValidator()
	return &TMDB{
		apiKey:      validator.SanitizeAPIKey(opts.APIKey),
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		client:      opts.Client,
		cache:       cache.New[string, models.MediaMeta](opts.CacheSize, opts.CacheTTL),
		ttl:         opts.CacheTTL,
		db:          opts.DB,
		rateLimiter: ratelimiter.NewTokenBucket(constants.TMDBRateLimit, constants.TMDBRateBurst),
		logger:      opts.Logger,
		validator:   validator,
	}
}

// Cache exposes the in-memory layer so the caller can schedule cleanup.
func (t *TMDB) Cache() *cache.LRU[string, models.MediaMeta] {
	return t.cache
}

// GetMeta resolves an IMDB id (tt...) or a collection id. apiKey overrides
// the configured key when set.
func (t *TMDB) GetMeta(ctx context.Context, id, apiKey string) (models.MediaMeta, error) {
	if meta, ok := t.cache.Get(id); ok {
		return meta, nil
	}

	if t.db != nil {
		cached, err := t.db.GetCachedMeta(id)
		if err != nil {
			t.logger.Warnf("[TMDB] failed to read cached meta for %s: %v", id, err)
		} else if cached != nil && time.Since(cached.CreatedAt) < t.ttl {
			t.cache.Set(id, cached.Meta)
			return cached.Meta, nil
		}
	}

	key := t.apiKey
	if apiKey != "" {
		key = t.validator.SanitizeAPIKey(apiKey)
	}
	if key == "" {
		return models.MediaMeta{}, apperrors.NewAPIKeyMissingError("TMDB")
	}

	var (
		meta models.MediaMeta
		err  error
	)
	switch {
	case strings.HasPrefix(id, constants.CollectionPrefix):
		meta, err = t.fetchCollection(ctx, id, key)
	case strings.HasPrefix(id, "tt"):
		meta, err = t.fetchByIMDB(ctx, id, key)
	default:
		return models.MediaMeta{}, apperrors.NewInvalidIDError(id)
	}
	if err != nil {
		return models.MediaMeta{}, err
	}

	t.cache.Set(id, meta)
	if t.db != nil {
		if err := t.db.StoreMeta(meta); err != nil {
			t.logger.Errorf("[TMDB] failed to store meta for %s: %v", id, err)
		}
	}
	return meta, nil
}

func (t *TMDB) get(ctx context.Context, path, apiKey string, params url.Values, out interface{}) error {
	if err := t.rateLimiter.Wait(ctx); err != nil {
		return err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", apiKey)
	t.logger.Debugf("[TMDB] GET %s (key: %s)", path, t.validator.MaskAPIKey(apiKey))
	return httputil.GetJSON(ctx, t.client, t.baseURL+path+"?"+params.Encode(), nil, out)
}

func (t *TMDB) fetchByIMDB(ctx context.Context, imdbID, apiKey string) (models.MediaMeta, error) {
	var resp models.TMDBFindResponse
	params := url.Values{"external_source": {"imdb_id"}}
	if err := t.get(ctx, "/find/"+url.PathEscape(imdbID), apiKey, params, &resp); err != nil {
		return models.MediaMeta{}, apperrors.NewTMDBError("find "+imdbID, err)
	}

	switch {
	case len(resp.MovieResults) > 0:
		m := resp.MovieResults[0]
		return models.MediaMeta{
			ID:   imdbID,
			Type: "movie",
			Name: firstNonEmpty(m.Title, m.OriginalTitle),
			Year: yearOf(m.ReleaseDate),
		}, nil
	case len(resp.TVResults) > 0:
		tv := resp.TVResults[0]
		return models.MediaMeta{
			ID:   imdbID,
			Type: "series",
			Name: firstNonEmpty(tv.Name, tv.OriginalName),
			Year: yearOf(tv.FirstAirDate),
		}, nil
	}
	return models.MediaMeta{}, apperrors.NewTMDBError(fmt.Sprintf("no results found for IMDB ID: %s", imdbID), nil)
}

// fetchCollection lists the member movies by release date as episodes 1..n
// of season 1.
func (t *TMDB) fetchCollection(ctx context.Context, id, apiKey string) (models.MediaMeta, error) {
	cid := strings.TrimPrefix(id, constants.CollectionPrefix)
	if _, err := strconv.Atoi(cid); err != nil {
		return models.MediaMeta{}, apperrors.NewInvalidIDError(id)
	}

	var coll models.TMDBCollection
	if err := t.get(ctx, "/collection/"+cid, apiKey, nil, &coll); err != nil {
		return models.MediaMeta{}, apperrors.NewTMDBError("collection "+cid, err)
	}

	parts := coll.Parts
	sort.SliceStable(parts, func(i, j int) bool {
		a, b := parts[i].ReleaseDate, parts[j].ReleaseDate
		if a == "" || b == "" {
			return b == "" && a != ""
		}
		return a < b
	})

	meta := models.MediaMeta{ID: id, Type: "series", Name: coll.Name, Collection: true}
	for i, p := range parts {
		meta.Videos = append(meta.Videos, models.Video{
			ID:      fmt.Sprintf("tmdb:%d", p.ID),
			Title:   firstNonEmpty(p.Title, p.OriginalTitle),
			Year:    yearOf(p.ReleaseDate),
			Season:  1,
			Episode: i + 1,
		})
	}
	return meta, nil
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
