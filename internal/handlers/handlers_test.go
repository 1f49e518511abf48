package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/streamhub/internal/config"
	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/debrid"
	"github.com/amaumene/streamhub/internal/metrics"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/internal/services"
	"github.com/amaumene/streamhub/internal/sources"
	"github.com/amaumene/streamhub/pkg/logger"
)

const testHash = "0123456789abcdef0123456789abcdef01234567"

type fixture struct {
	router     *gin.Engine
	handler    *Handler
	addonHits  *int32
	userConfig string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "user-tmdb" || r.URL.Path != "/find/tt1375666" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(models.TMDBFindResponse{MovieResults: []models.TMDBMovie{
			{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"},
		}})
	}))
	t.Cleanup(tmdb.Close)

	var hits int32
	addon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/stream/movie/tt1375666.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"streams":[
			{"name":"Upstream\n1080p","title":"Inception.2010.1080p.BluRay.x264\n👤 42 💾 2 GB","infoHash":"` + testHash + `","fileIdx":0},
			{"name":"Upstream\n720p","title":"Inception.2010.720p.WEB\n👤 99 💾 1 GB","infoHash":"1111111111111111111111111111111111111111"}
		]}`))
	}))
	t.Cleanup(addon.Close)

	cfg := config.Default()
	cfg.EnabledSources = []string{constants.SourceAddons}
	require.NoError(t, cfg.Validate())

	log := logger.NewNop()
	reg := prometheus.NewRegistry()
	container := &services.Container{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(reg),
		TMDB: services.NewTMDB(services.TMDBOptions{
			BaseURL: tmdb.URL,
			Client:  http.DefaultClient,
			Logger:  log,
		}),
		Adapters: []sources.Adapter{sources.NewAddon(addon.URL, sources.Options{Client: http.DefaultClient, Logger: log})},
		Debrid:   debrid.NewFactory(http.DefaultClient, nil, log),
		Resolver: debrid.NewResolver(nil, log),
	}

	h := New(container, cfg, reg)
	r := gin.New()
	h.RegisterRoutes(r)

	userConfig := base64.URLEncoding.EncodeToString([]byte(`{"TMDB_API_KEY":"user-tmdb"}`))
	return &fixture{router: r, handler: h, addonHits: &hits, userConfig: userConfig}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestManifest(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/manifest.json", "/" + f.userConfig + "/manifest.json"} {
		w := f.get(path)
		require.Equal(t, http.StatusOK, w.Code)

		var m models.Manifest
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
		assert.Equal(t, constants.AddonID, m.ID)
		assert.Equal(t, []string{"stream"}, m.Resources)
		assert.Contains(t, m.IDPrefixes, "tt")
	}
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	path := "/" + f.userConfig + "/stream/movie/tt1375666.json"

	w := f.get(path)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StreamResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Streams, 1)
	s := resp.Streams[0]
	assert.Equal(t, testHash, s.InfoHash)
	require.NotNil(t, s.FileIdx)
	assert.Equal(t, 0, *s.FileIdx)
	assert.Contains(t, s.Name, "[1080p]")
	assert.Contains(t, s.Sources, "dht:"+testHash)

	_, err := f.handler.responses.Get(cacheKeyFor(f.userConfig, "movie", "tt1375666"))
	assert.NoError(t, err)

	again := f.get(path)
	assert.Equal(t, w.Body.String(), again.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(f.addonHits))
}

func TestStreamErrors(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.get("/"+f.userConfig+"/stream/movie/abc.json").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/"+f.userConfig+"/stream/anime/tt1375666.json").Code)

	// unknown metadata degrades to an empty list
	w := f.get("/" + f.userConfig + "/stream/movie/tt0000001.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"streams":[]}`, w.Body.String())

	// an unusable configuration falls back to the process config, which has no TMDB key
	w = f.get("/not-base64!/stream/movie/tt1375666.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"streams":[]}`, w.Body.String())
}

func TestResolveRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.get("/resolve/alldebrid/key/nothex/0").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/resolve/unknown/key/"+testHash+"/0").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/resolve/alldebrid/short/"+testHash+"/0").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	w := f.get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	f.get("/" + f.userConfig + "/stream/movie/tt1375666.json")
	w = f.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "streamhub_response_cache_lookups_total")
}

func TestParseStreamID(t *testing.T) {
	tests := []struct {
		id              string
		base            string
		season, episode int
		ok              bool
	}{
		{"tt1375666", "tt1375666", 0, 0, true},
		{"tt0903747:1:2", "tt0903747", 1, 2, true},
		{"tmdbcollection:2344:1:3", "tmdbcollection:2344", 1, 3, true},
		{"tmdbcollection:2344", "tmdbcollection:2344", 0, 0, true},
		{"kitsu:1:2", "kitsu", 1, 2, false},
		{"ttabc", "ttabc", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			base, s, e, ok := parseStreamID(tt.id)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.season, s)
			assert.Equal(t, tt.episode, e)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestDecodeUserConfig(t *testing.T) {
	raw := `{"API_KEY_ALLDEBRID":"k"}`
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		cfg, err := decodeUserConfig(enc.EncodeToString([]byte(raw)))
		require.NoError(t, err)
		assert.Equal(t, "k", cfg["API_KEY_ALLDEBRID"])
	}

	cfg, err := decodeUserConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg)

	_, err = decodeUserConfig(base64.StdEncoding.EncodeToString([]byte("not json")))
	assert.Error(t, err)
}
