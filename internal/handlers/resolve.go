package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

var infoHashPattern = regexp.MustCompile(`^[a-fA-F0-9]{40}$`)

// handleResolve adds the torrent to the debrid account and redirects the
// player to the unrestricted file URL.
func (h *Handler) handleResolve(c *gin.Context) {
	provider := c.Param("provider")
	apiKey := c.Param("apikey")
	hash := strings.ToLower(c.Param("hash"))

	if !infoHashPattern.MatchString(hash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid info hash"})
		return
	}
	fileIdx, err := strconv.Atoi(c.Param("fileIdx"))
	if err != nil {
		fileIdx = -1
	}

	p, err := h.services.Debrid.Provider(provider, apiKey, 0)
	if err != nil {
		h.services.Logger.Warnf("[Resolve] rejected %s request: %v", provider, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid debrid provider or key"})
		return
	}

	link, err := h.services.Resolver.Resolve(c.Request.Context(), p, apiKey, hash, fileIdx)
	if err != nil {
		h.services.Logger.Errorf("[Resolve] %s failed for %s: %v", provider, hash, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to resolve stream"})
		return
	}

	h.services.Logger.Infof("[Resolve] %s resolved %s", provider, hash)
	c.Redirect(http.StatusFound, link)
}
