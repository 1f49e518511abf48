// Package handlers implements HTTP request handlers for the Stremio addon API.
package handlers

import (
	"net/http"
	"time"

	"github.com/coocood/freecache"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amaumene/streamhub/internal/config"
	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/services"
)

// Handler handles HTTP requests for the Stremio addon.
type Handler struct {
	services    *services.Container
	config      *config.Config
	responses   *freecache.Cache
	responseTTL time.Duration
	gatherer    prometheus.Gatherer
	started     time.Time
}

// New creates a Handler. gatherer backs /metrics and may be nil to disable
// the route.
func New(container *services.Container, cfg *config.Config, gatherer prometheus.Gatherer) *Handler {
	size := cfg.ResponseCacheMB
	if size <= 0 {
		size = constants.DefaultResponseCacheMB
	}
	return &Handler{
		services:    container,
		config:      cfg,
		responses:   freecache.NewCache(size * constants.BytesPerMB),
		responseTTL: cfg.ResponseCacheTTL,
		gatherer:    gatherer,
		started:     time.Now(),
	}
}

// RegisterRoutes registers all HTTP routes for the Stremio addon.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.handleHome)
	r.GET("/health", h.handleHealth)
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/configure", h.handleConfig)
	r.GET("/:configuration/configure", h.handleConfig)

	r.GET("/manifest.json", h.handleManifest)
	r.GET("/:configuration/manifest.json", h.handleManifest)

	// handles both with and without .json
	r.GET("/:configuration/stream/:type/:id", h.handleStreamWrapper)

	r.GET("/resolve/:provider/:apikey/:hash/:fileIdx", h.handleResolve)
}

func (h *Handler) handleHome(c *gin.Context) {
	c.Redirect(http.StatusFound, "/configure")
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": constants.AddonVersion,
		"sources": len(h.services.Adapters),
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) handleStreamWrapper(c *gin.Context) {
	stripJSONExtension(c, "id")
	h.handleStream(c)
}
