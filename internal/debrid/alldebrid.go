package debrid

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amaumene/streamhub/internal/constants"
	apperrors "github.com/amaumene/streamhub/internal/errors"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/httputil"
	"github.com/amaumene/streamhub/pkg/logger"
	"github.com/amaumene/streamhub/pkg/ratelimiter"
)

const (
	allDebridAPIBase = "https://api.alldebrid.com/v4"
	allDebridAgent   = "streamhub"

	allDebridStatusSuccess = "success"
	allDebridStatusReady   = 4
)

type allDebridError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type allDebridEnvelope struct {
	Status string          `json:"status"`
	Error  *allDebridError `json:"error,omitempty"`
}

func (e allDebridEnvelope) err() error {
	if e.Status == allDebridStatusSuccess {
		return nil
	}
	if e.Error != nil {
		return fmt.Errorf("AllDebrid API error: %s - %s", e.Error.Code, e.Error.Message)
	}
	return fmt.Errorf("AllDebrid API error: %s", e.Status)
}

type allDebridFile struct {
	Name string `json:"n"`
	Size int64  `json:"s"`
}

type allDebridInstantResponse struct {
	allDebridEnvelope
	Data struct {
		Magnets []struct {
			Hash    string          `json:"hash"`
			Instant bool            `json:"instant"`
			Files   []allDebridFile `json:"files"`
		} `json:"magnets"`
	} `json:"data"`
}

type allDebridUploadResponse struct {
	allDebridEnvelope
	Data struct {
		Magnets []struct {
			ID    int64           `json:"id"`
			Hash  string          `json:"hash"`
			Name  string          `json:"name"`
			Ready bool            `json:"ready"`
			Error *allDebridError `json:"error,omitempty"`
		} `json:"magnets"`
	} `json:"data"`
}

type allDebridStatusResponse struct {
	allDebridEnvelope
	Data struct {
		Magnets struct {
			ID         int64  `json:"id"`
			StatusCode int    `json:"statusCode"`
			Status     string `json:"status"`
			Links      []struct {
				Link     string `json:"link"`
				Filename string `json:"filename"`
				Size     int64  `json:"size"`
			} `json:"links"`
		} `json:"magnets"`
	} `json:"data"`
}

type allDebridUnlockResponse struct {
	allDebridEnvelope
	Data struct {
		Link     string `json:"link"`
		Filename string `json:"filename"`
	} `json:"data"`
}

// AllDebrid implements Provider for alldebrid.com.
type AllDebrid struct {
	apiKey    string
	baseURL   string
	batchSize int
	client    *http.Client
	limiter   ratelimiter.RateLimiter
	logger    logger.Logger
}

// Options carries what every provider client needs. Zero fields get
// defaults.
type Options struct {
	BaseURL   string
	BatchSize int
	Client    *http.Client
	Limiter   ratelimiter.RateLimiter
	Logger    logger.Logger
}

// NewAllDebrid creates an AllDebrid client for one account.
func NewAllDebrid(apiKey string, opts Options) *AllDebrid {
	if opts.BaseURL == "" {
		opts.BaseURL = allDebridAPIBase
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimiter.NewTokenBucket(constants.AllDebridRateLimit, constants.AllDebridRateBurst)
	}
	opts = withDefaults(opts)
	return &AllDebrid{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		batchSize: opts.BatchSize,
		client:    opts.Client,
		limiter:   opts.Limiter,
		logger:    opts.Logger,
	}
}

func withDefaults(opts Options) Options {
	if opts.BatchSize <= 0 {
		opts.BatchSize = constants.DefaultDebridBatchSize
	}
	if opts.Client == nil {
		opts.Client = httputil.NewHTTPClient(constants.DefaultDebridTimeout)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return opts
}

func (a *AllDebrid) Name() string { return constants.ProviderAllDebrid }

func (a *AllDebrid) BatchSize() int { return a.batchSize }

func (a *AllDebrid) params(extra url.Values) url.Values {
	v := url.Values{}
	v.Set("agent", allDebridAgent)
	v.Set("apikey", a.apiKey)
	for k, vals := range extra {
		for _, val := range vals {
			v.Add(k, val)
		}
	}
	return v
}

func (a *AllDebrid) get(ctx context.Context, endpoint string, extra url.Values, out interface{}) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	return httputil.GetJSON(ctx, a.client, a.baseURL+endpoint+"?"+a.params(extra).Encode(), nil, out)
}

func (a *AllDebrid) post(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	return httputil.PostForm(ctx, a.client, a.baseURL+endpoint, nil, a.params(form), out)
}

func (a *AllDebrid) CheckCache(ctx context.Context, hashes []string) (map[string]models.CacheStatus, error) {
	form := url.Values{}
	for _, h := range hashes {
		form.Add("magnets[]", h)
	}

	var resp allDebridInstantResponse
	if err := a.post(ctx, "/magnet/instant", form, &resp); err != nil {
		return nil, apperrors.NewDebridError(a.Name(), "cache check failed", err)
	}
	if err := resp.err(); err != nil {
		return nil, apperrors.NewDebridError(a.Name(), "cache check rejected", err)
	}

	out := make(map[string]models.CacheStatus, len(resp.Data.Magnets))
	for _, m := range resp.Data.Magnets {
		st := models.CacheStatus{Cached: m.Instant, Service: a.Name()}
		for i, f := range m.Files {
			st.Variants = append(st.Variants, models.CacheVariant{FileIndex: i, Filename: f.Name, SizeBytes: f.Size})
		}
		out[strings.ToLower(m.Hash)] = st
	}
	a.logger.Debugf("[AllDebrid] checked %d hashes, %d answered", len(hashes), len(out))
	return out, nil
}

func (a *AllDebrid) AddMagnet(ctx context.Context, hash string) (string, error) {
	var resp allDebridUploadResponse
	form := url.Values{"magnets[]": {magnetFor(hash)}}
	if err := a.post(ctx, "/magnet/upload", form, &resp); err != nil {
		return "", apperrors.NewDebridError(a.Name(), "upload failed", err)
	}
	if err := resp.err(); err != nil {
		return "", apperrors.NewDebridError(a.Name(), "upload rejected", err)
	}
	if len(resp.Data.Magnets) == 0 {
		return "", apperrors.NewDebridError(a.Name(), "upload returned no magnet", nil)
	}
	m := resp.Data.Magnets[0]
	if m.Error != nil {
		return "", apperrors.NewDebridError(a.Name(), m.Error.Message, nil)
	}
	return strconv.FormatInt(m.ID, 10), nil
}

func (a *AllDebrid) Links(ctx context.Context, id string) ([]Link, error) {
	var resp allDebridStatusResponse
	if err := a.get(ctx, "/magnet/status", url.Values{"id": {id}}, &resp); err != nil {
		return nil, apperrors.NewDebridError(a.Name(), "status failed", err)
	}
	if err := resp.err(); err != nil {
		return nil, apperrors.NewDebridError(a.Name(), "status rejected", err)
	}
	m := resp.Data.Magnets
	if m.StatusCode != allDebridStatusReady {
		return nil, ErrNotReady
	}

	links := make([]Link, 0, len(m.Links))
	for i, l := range m.Links {
		links = append(links, Link{FileIndex: i, Filename: l.Filename, SizeBytes: l.Size, URL: l.Link})
	}
	return links, nil
}

func (a *AllDebrid) UnrestrictLink(ctx context.Context, link string) (string, error) {
	var resp allDebridUnlockResponse
	if err := a.get(ctx, "/link/unlock", url.Values{"link": {link}}, &resp); err != nil {
		return "", apperrors.NewDebridError(a.Name(), "unlock failed", err)
	}
	if err := resp.err(); err != nil {
		return "", apperrors.NewDebridError(a.Name(), "unlock rejected", err)
	}
	if resp.Data.Link == "" {
		return "", apperrors.NewDebridError(a.Name(), "no direct link returned", nil)
	}
	return resp.Data.Link, nil
}

func (a *AllDebrid) DeleteMagnet(ctx context.Context, id string) error {
	var resp allDebridEnvelope
	if err := a.get(ctx, "/magnet/delete", url.Values{"id": {id}}, &resp); err != nil {
		return apperrors.NewDebridError(a.Name(), "delete failed", err)
	}
	return resp.err()
}
