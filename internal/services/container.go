// Package services holds the long-lived collaborators of the addon and the
// container that wires them.
package services

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/amaumene/streamhub/internal/aggregator"
	"github.com/amaumene/streamhub/internal/config"
	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/database"
	"github.com/amaumene/streamhub/internal/debrid"
	"github.com/amaumene/streamhub/internal/metrics"
	"github.com/amaumene/streamhub/internal/sources"
	"github.com/amaumene/streamhub/pkg/httputil"
	"github.com/amaumene/streamhub/pkg/logger"
)

// Container holds all application services for dependency injection.
type Container struct {
	Config   *config.Config
	DB       database.Database
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	TMDB     *TMDB
	Adapters []sources.Adapter
	Debrid   *debrid.Factory
	Resolver *debrid.Resolver
	Cleanup  *CleanupService
}

// NewContainer builds the services from the process config. reg may be nil.
func NewContainer(cfg *config.Config, db database.Database, log logger.Logger, reg prometheus.Registerer) *Container {
	client := httputil.NewHTTPClient(constants.RequestTimeout)
	return NewContainerWithClient(cfg, db, log, reg, client)
}

// NewContainerWithClient is NewContainer with a caller supplied HTTP client.
func NewContainerWithClient(cfg *config.Config, db database.Database, log logger.Logger, reg prometheus.Registerer, client *http.Client) *Container {
	factory := debrid.NewFactory(client, db, log)
	return &Container{
		Config:  cfg,
		DB:      db,
		Logger:  log,
		Metrics: metrics.New(reg),
		TMDB: NewTMDB(TMDBOptions{
			APIKey:    cfg.TMDBAPIKey,
			Client:    client,
			CacheSize: cfg.CacheSize,
			CacheTTL:  cfg.CacheTTL,
			DB:        db,
			Logger:    log,
		}),
		Adapters: sources.Build(cfg, client, log),
		Debrid:   factory,
		Resolver: debrid.NewResolver(db, log),
		Cleanup:  NewCleanupService(db, factory, log),
	}
}

// Aggregator builds the per-request pipeline for a merged user config. The
// adapters and their caches are shared across requests.
func (c *Container) Aggregator(cfg *config.Config) *aggregator.StreamAggregator {
	checker := debrid.NewCacheChecker(c.Debrid.Providers(cfg), cfg.DebridBatchDelay, cfg.DebridTimeout, c.Logger, c.Metrics)
	return aggregator.New(cfg, c.adaptersFor(cfg), checker, c.Logger, c.Metrics)
}

// adaptersFor narrows the shared adapters to the ones the user enabled.
func (c *Container) adaptersFor(cfg *config.Config) []sources.Adapter {
	if cfg == c.Config {
		return c.Adapters
	}
	enabledAddons := cfg.SourceEnabled(constants.SourceAddons)
	out := make([]sources.Adapter, 0, len(c.Adapters))
	for _, a := range c.Adapters {
		if _, ok := a.(*sources.Addon); ok {
			if enabledAddons {
				out = append(out, a)
			}
			continue
		}
		if cfg.SourceEnabled(a.Name()) {
			out = append(out, a)
		}
	}
	return out
}
