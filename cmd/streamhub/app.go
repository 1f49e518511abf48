package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/amaumene/streamhub/internal/config"
	"github.com/amaumene/streamhub/internal/database"
	"github.com/amaumene/streamhub/internal/handlers"
	"github.com/amaumene/streamhub/internal/middleware"
	"github.com/amaumene/streamhub/internal/services"
	"github.com/amaumene/streamhub/pkg/localtls"
	"github.com/amaumene/streamhub/pkg/logger"
)

// app owns the long-lived process state.
type app struct {
	config    *config.Config
	logger    logger.Logger
	db        *database.BoltDB
	registry  *prometheus.Registry
	container *services.Container
}

func initializeLogger() logger.Logger {
	return logger.NewWithOptions(logger.Options{
		Level:      os.Getenv("LOG_LEVEL"),
		File:       os.Getenv("LOG_FILE"),
		MaxSizeMB:  envInt("LOG_MAX_SIZE_MB"),
		MaxBackups: envInt("LOG_MAX_BACKUPS"),
		MaxAgeDays: envInt("LOG_MAX_AGE_DAYS"),
	})
}

func newApp(log logger.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.NewBolt(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Infof("[App] database initialized at %s", cfg.DatabasePath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	container := services.NewContainer(cfg, db, log, reg)
	log.Infof("[App] services initialized with %d sources", len(container.Adapters))

	return &app{
		config:    cfg,
		logger:    log,
		db:        db,
		registry:  reg,
		container: container,
	}, nil
}

// startBackground launches the periodic jobs. They stop when ctx is done.
func (a *app) startBackground(ctx context.Context) {
	a.container.Cleanup.Start(ctx)
	a.container.TMDB.Cache().StartCleanup(ctx, time.Hour)
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(a.logger),
		middleware.CORS(),
		middleware.Gzip(),
	)
	handlers.New(a.container, a.config, a.registry).RegisterRoutes(r)
	return r
}

// localTLS prepares the local-ip.sh certificate and returns the hostname
// clients must use.
func (a *app) localTLS(ctx context.Context) (*tls.Config, string, error) {
	cert := localtls.New(localtls.Options{
		CacheDir: os.Getenv("TLS_CACHE_DIR"),
		Logger:   a.logger,
	})
	if err := cert.Setup(ctx); err != nil {
		return nil, "", err
	}
	cfg, err := cert.TLSConfig()
	if err != nil {
		return nil, "", err
	}
	return cfg, cert.Hostname(), nil
}

func (a *app) close() {
	a.container.Cleanup.Stop()
	if err := a.db.Close(); err != nil {
		a.logger.Errorf("[App] failed to close database: %v", err)
	}
}

func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return n
}
