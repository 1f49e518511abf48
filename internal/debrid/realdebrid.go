package debrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/amaumene/streamhub/internal/constants"
	apperrors "github.com/amaumene/streamhub/internal/errors"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/httputil"
	"github.com/amaumene/streamhub/pkg/logger"
	"github.com/amaumene/streamhub/pkg/ratelimiter"
)

const realDebridAPIBase = "https://api.real-debrid.com/rest/1.0"

type realDebridFile struct {
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
}

type realDebridAvailability struct {
	RD []map[string]realDebridFile `json:"rd"`
}

type realDebridAddResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

type realDebridInfo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Files  []struct {
		ID       int    `json:"id"`
		Path     string `json:"path"`
		Bytes    int64  `json:"bytes"`
		Selected int    `json:"selected"`
	} `json:"files"`
	Links []string `json:"links"`
}

type realDebridUnrestrict struct {
	Download string `json:"download"`
	Filename string `json:"filename"`
}

// RealDebrid implements Provider for real-debrid.com.
type RealDebrid struct {
	apiKey    string
	baseURL   string
	batchSize int
	client    *http.Client
	limiter   ratelimiter.RateLimiter
	logger    logger.Logger
}

// NewRealDebrid creates a RealDebrid client for one account token.
func NewRealDebrid(apiKey string, opts Options) *RealDebrid {
	if opts.BaseURL == "" {
		opts.BaseURL = realDebridAPIBase
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimiter.NewTokenBucket(constants.RealDebridRateLimit, constants.RealDebridRateBurst)
	}
	opts = withDefaults(opts)
	return &RealDebrid{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		batchSize: opts.BatchSize,
		client:    opts.Client,
		limiter:   opts.Limiter,
		logger:    opts.Logger,
	}
}

func (r *RealDebrid) Name() string { return constants.ProviderRealDebrid }

func (r *RealDebrid) BatchSize() int { return r.batchSize }

func (r *RealDebrid) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + r.apiKey}
}

func (r *RealDebrid) get(ctx context.Context, endpoint string, out interface{}) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return httputil.GetJSON(ctx, r.client, r.baseURL+endpoint, r.headers(), out)
}

func (r *RealDebrid) post(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return httputil.PostForm(ctx, r.client, r.baseURL+endpoint, r.headers(), form, out)
}

func (r *RealDebrid) CheckCache(ctx context.Context, hashes []string) (map[string]models.CacheStatus, error) {
	escaped := make([]string, len(hashes))
	for i, h := range hashes {
		escaped[i] = url.PathEscape(h)
	}

	// Hashes without availability come back as an empty array instead of an
	// object, so decode lazily.
	var raw map[string]json.RawMessage
	if err := r.get(ctx, "/torrents/instantAvailability/"+strings.Join(escaped, "/"), &raw); err != nil {
		return nil, apperrors.NewDebridError(r.Name(), "cache check failed", err)
	}

	out := make(map[string]models.CacheStatus, len(raw))
	for hash, msg := range raw {
		var avail realDebridAvailability
		if err := json.Unmarshal(msg, &avail); err != nil || len(avail.RD) == 0 {
			continue
		}
		st := models.CacheStatus{Cached: true, Service: r.Name()}
		for _, variant := range avail.RD {
			for id, f := range variant {
				// RealDebrid file ids start at 1
				idx, _ := strconv.Atoi(id)
				st.Variants = append(st.Variants, models.CacheVariant{FileIndex: idx - 1, Filename: f.Filename, SizeBytes: f.Filesize})
			}
		}
		sort.Slice(st.Variants, func(i, j int) bool { return st.Variants[i].FileIndex < st.Variants[j].FileIndex })
		out[strings.ToLower(hash)] = st
	}
	r.logger.Debugf("[RealDebrid] checked %d hashes, %d cached", len(hashes), len(out))
	return out, nil
}

func (r *RealDebrid) AddMagnet(ctx context.Context, hash string) (string, error) {
	var added realDebridAddResponse
	if err := r.post(ctx, "/torrents/addMagnet", url.Values{"magnet": {magnetFor(hash)}}, &added); err != nil {
		return "", apperrors.NewDebridError(r.Name(), "add magnet failed", err)
	}
	if added.ID == "" {
		return "", apperrors.NewDebridError(r.Name(), "add magnet returned no id", nil)
	}
	if err := r.post(ctx, "/torrents/selectFiles/"+url.PathEscape(added.ID), url.Values{"files": {"all"}}, nil); err != nil {
		return "", apperrors.NewDebridError(r.Name(), "select files failed", err)
	}
	return added.ID, nil
}

func (r *RealDebrid) Links(ctx context.Context, id string) ([]Link, error) {
	var info realDebridInfo
	if err := r.get(ctx, "/torrents/info/"+url.PathEscape(id), &info); err != nil {
		return nil, apperrors.NewDebridError(r.Name(), "info failed", err)
	}
	if info.Status != "downloaded" {
		return nil, ErrNotReady
	}

	// links follow the order of the selected files
	var links []Link
	n := 0
	for _, f := range info.Files {
		if f.Selected != 1 {
			continue
		}
		if n >= len(info.Links) {
			break
		}
		links = append(links, Link{
			FileIndex: f.ID - 1,
			Filename:  strings.TrimPrefix(f.Path, "/"),
			SizeBytes: f.Bytes,
			URL:       info.Links[n],
		})
		n++
	}
	return links, nil
}

func (r *RealDebrid) UnrestrictLink(ctx context.Context, link string) (string, error) {
	var resp realDebridUnrestrict
	if err := r.post(ctx, "/unrestrict/link", url.Values{"link": {link}}, &resp); err != nil {
		return "", apperrors.NewDebridError(r.Name(), "unrestrict failed", err)
	}
	if resp.Download == "" {
		return "", apperrors.NewDebridError(r.Name(), "no download link returned", nil)
	}
	return resp.Download, nil
}

func (r *RealDebrid) DeleteMagnet(ctx context.Context, id string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := httputil.Delete(ctx, r.client, r.baseURL+"/torrents/delete/"+url.PathEscape(id), r.headers()); err != nil {
		return apperrors.NewDebridError(r.Name(), "delete failed", err)
	}
	return nil
}
