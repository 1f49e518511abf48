package debrid

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/amaumene/streamhub/internal/config"
	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/database"
	"github.com/amaumene/streamhub/pkg/logger"
	"github.com/amaumene/streamhub/pkg/ratelimiter"
	"github.com/amaumene/streamhub/pkg/security"
)

// Factory builds provider clients for per-request API keys while sharing
// one HTTP client and one rate limiter per account.
type Factory struct {
	client    *http.Client
	db        database.Database
	statusTTL time.Duration
	logger    logger.Logger
	validator *security.APIKeyValidator
	baseURLs  map[string]string

	mu       sync.Mutex
	limiters map[string]ratelimiter.RateLimiter
}

// NewFactory creates a Factory. db may be nil, in which case cache-check
// answers are not persisted.
func NewFactory(client *http.Client, db database.Database, log logger.Logger) *Factory {
	return &Factory{
		client:    client,
		db:        db,
		statusTTL: constants.DefaultDebridStatusTTL,
		logger:    log,
		validator: security.NewAPIKeyValidator(),
		baseURLs:  make(map[string]string),
		limiters:  make(map[string]ratelimiter.RateLimiter),
	}
}

// SetBaseURL points a provider at another endpoint.
func (f *Factory) SetBaseURL(provider, baseURL string) {
	f.baseURLs[provider] = baseURL
}

// Providers returns a client for every debrid key present in cfg.
func (f *Factory) Providers(cfg *config.Config) []Provider {
	var out []Provider
	keys := []struct{ name, key string }{
		{constants.ProviderAllDebrid, cfg.APIKeyAllDebrid},
		{constants.ProviderRealDebrid, cfg.APIKeyRealDebrid},
	}
	for _, k := range keys {
		if k.key == "" {
			continue
		}
		p, err := f.Provider(k.name, k.key, cfg.DebridBatchSize)
		if err != nil {
			f.logger.Warnf("[Debrid] skipping %s: %v", k.name, err)
			continue
		}
		out = append(out, p)
	}
	return out
}

// Provider builds one client by name after validating the key.
func (f *Factory) Provider(name, apiKey string, batchSize int) (Provider, error) {
	apiKey = f.validator.SanitizeAPIKey(apiKey)

	var p Provider
	switch name {
	case constants.ProviderAllDebrid:
		if !f.validator.IsValidAllDebridKey(apiKey) {
			return nil, fmt.Errorf("invalid AllDebrid API key (key: %s)", f.validator.MaskAPIKey(apiKey))
		}
		p = NewAllDebrid(apiKey, f.options(name, apiKey, batchSize, func() ratelimiter.RateLimiter {
			return ratelimiter.NewTokenBucket(constants.AllDebridRateLimit, constants.AllDebridRateBurst)
		}))
	case constants.ProviderRealDebrid:
		if !f.validator.IsValidRealDebridKey(apiKey) {
			return nil, fmt.Errorf("invalid RealDebrid API key (key: %s)", f.validator.MaskAPIKey(apiKey))
		}
		p = NewRealDebrid(apiKey, f.options(name, apiKey, batchSize, func() ratelimiter.RateLimiter {
			return ratelimiter.NewTokenBucket(constants.RealDebridRateLimit, constants.RealDebridRateBurst)
		}))
	default:
		return nil, fmt.Errorf("unknown debrid provider %q", name)
	}

	if f.db != nil {
		return NewPersistentProvider(p, f.db, f.statusTTL, f.logger), nil
	}
	return p, nil
}

func (f *Factory) options(name, apiKey string, batchSize int, newLimiter func() ratelimiter.RateLimiter) Options {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := name + "|" + apiKey
	lim, ok := f.limiters[key]
	if !ok {
		lim = newLimiter()
		f.limiters[key] = lim
	}
	return Options{
		BaseURL:   f.baseURLs[name],
		BatchSize: batchSize,
		Client:    f.client,
		Limiter:   lim,
		Logger:    f.logger,
	}
}
