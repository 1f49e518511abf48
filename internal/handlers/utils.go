package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/streamhub/internal/constants"
)

// stripJSONExtension removes .json extension from a parameter if present
func stripJSONExtension(c *gin.Context, paramName string) {
	value := c.Param(paramName)
	if strings.HasSuffix(value, ".json") {
		for i, param := range c.Params {
			if param.Key == paramName {
				c.Params[i].Value = strings.TrimSuffix(value, ".json")
				break
			}
		}
	}
}

// decodeUserConfig accepts standard or URL-safe base64, padded or not. An
// empty string yields an empty config.
func decodeUserConfig(encoded string) (map[string]interface{}, error) {
	userConfig := map[string]interface{}{}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return userConfig, nil
	}

	var data []byte
	var err error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if data, err = enc.DecodeString(encoded); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("invalid base64 configuration: %w", err)
	}
	if err := json.Unmarshal(data, &userConfig); err != nil {
		return nil, fmt.Errorf("invalid JSON configuration: %w", err)
	}
	return userConfig, nil
}

// parseStreamID splits "tt123", "tt123:1:2" or "tmdbcollection:10:1:2" into
// the base id and the optional season and episode.
func parseStreamID(id string) (base string, season, episode int, ok bool) {
	parts := strings.Split(id, ":")
	if len(parts) >= 3 {
		s, errS := strconv.Atoi(parts[len(parts)-2])
		e, errE := strconv.Atoi(parts[len(parts)-1])
		if errS == nil && errE == nil {
			base = strings.Join(parts[:len(parts)-2], ":")
			return base, s, e, validBaseID(base)
		}
	}
	return id, 0, 0, validBaseID(id)
}

func validBaseID(id string) bool {
	if strings.HasPrefix(id, "tt") {
		_, err := strconv.Atoi(strings.TrimPrefix(id, "tt"))
		return err == nil
	}
	if rest := strings.TrimPrefix(id, constants.CollectionPrefix); rest != id {
		_, err := strconv.Atoi(rest)
		return err == nil
	}
	return false
}

// publicBaseURL is the externally visible origin of the request, honouring
// reverse proxy headers.
func publicBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}
