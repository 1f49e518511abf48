package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/streamhub/internal/aggregator"
	"github.com/amaumene/streamhub/internal/config"
	"github.com/amaumene/streamhub/internal/models"
)

func emptyStreams(c *gin.Context) {
	c.JSON(http.StatusOK, models.StreamResponse{Streams: []models.Stream{}})
}

func (h *Handler) handleStream(c *gin.Context) {
	log := h.services.Logger
	configuration := c.Param("configuration")
	mediaType := c.Param("type")
	id := c.Param("id")

	if mediaType != "movie" && mediaType != "series" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type"})
		return
	}
	baseID, season, episode, ok := parseStreamID(id)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	cacheKey := cacheKeyFor(configuration, mediaType, id)
	if body, err := h.responses.Get(cacheKey); err == nil {
		h.countCache("hit")
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}
	h.countCache("miss")

	userConfig, err := decodeUserConfig(configuration)
	if err != nil {
		log.Warnf("[StreamHandler] ignoring configuration for %s: %v", id, err)
		userConfig = map[string]interface{}{}
	}
	cfg, err := config.CreateFromUserData(userConfig, h.config)
	if err != nil {
		log.Warnf("[StreamHandler] invalid user configuration: %v", err)
		emptyStreams(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.AggregateTimeout+cfg.DebridTimeout)
	defer cancel()

	meta, err := h.services.TMDB.GetMeta(ctx, baseID, cfg.TMDBAPIKey)
	if err != nil {
		log.Errorf("[StreamHandler] failed to resolve metadata for %s: %v", baseID, err)
		emptyStreams(c)
		return
	}
	log.Infof("[StreamHandler] processing %s request - %s (%s)", mediaType, meta.Name, id)

	ranked := h.services.Aggregator(cfg).GetStreams(ctx, aggregator.Request{
		Meta:    meta,
		Type:    mediaType,
		Host:    publicBaseURL(c),
		Season:  season,
		Episode: episode,
	})

	resp := models.StreamResponse{Streams: make([]models.Stream, 0, len(ranked))}
	for _, r := range ranked {
		resp.Streams = append(resp.Streams, r.ToStream())
	}

	body, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("[StreamHandler] failed to encode response: %v", err)
		emptyStreams(c)
		return
	}
	if len(resp.Streams) > 0 && h.responseTTL > 0 {
		if err := h.responses.Set(cacheKey, body, int(h.responseTTL.Seconds())); err != nil {
			log.Debugf("[StreamHandler] response not cached: %v", err)
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *Handler) countCache(result string) {
	if m := h.services.Metrics; m != nil {
		m.ResponseCacheHits.WithLabelValues(result).Inc()
	}
}

// cacheKeyFor keys the response cache by raw configuration, type and id.
func cacheKeyFor(configuration, mediaType, id string) []byte {
	return []byte(strings.Join([]string{configuration, mediaType, id}, "|"))
}
