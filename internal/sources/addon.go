package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/releaseinfo"
)

var (
	addonSeedersPattern = regexp.MustCompile(`👤\s*(\d+)`)
	addonSizePattern    = regexp.MustCompile(`💾\s*([\d.,]+\s*[KMGT]i?B)`)
	addonCachedPattern  = regexp.MustCompile(`(?i)\[(?:RD|AD|PM|DL|TB|ED|OC)\+\]|⚡`)
)

type addonResponse struct {
	Streams []addonStream `json:"streams"`
}

type addonStream struct {
	Name          string            `json:"name"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	URL           string            `json:"url"`
	ExternalURL   string            `json:"externalUrl"`
	InfoHash      string            `json:"infoHash"`
	FileIdx       *int              `json:"fileIdx"`
	Sources       []string          `json:"sources"`
	BehaviorHints addonBehaviorHint `json:"behaviorHints"`
}

type addonBehaviorHint struct {
	Filename  string `json:"filename"`
	VideoSize int64  `json:"videoSize"`
}

// Addon proxies another Stremio addon's stream endpoint. Results already
// carry direct URLs or exact file indices, so they are not language gated.
type Addon struct {
	base
}

// NewAddon creates an adapter for the addon rooted at baseURL, e.g.
// https://torrentio.strem.fun/providers=yts.
func NewAddon(baseURL string, opts Options) *Addon {
	opts.BaseURL = strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/manifest.json")
	a := &Addon{base: newBase("", opts.BaseURL, opts)}
	a.name = addonName(a.baseURL)
	return a
}

func addonName(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "Addon"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	label := strings.SplitN(host, ".", 2)[0]
	if label == "" {
		return "Addon"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func (a *Addon) Name() string        { return a.name }
func (a *Addon) MixedLanguage() bool { return false }

// Search calls /stream/{type}/{id}.json on the upstream addon.
func (a *Addon) Search(ctx context.Context, q Query) ([]models.RawResult, error) {
	if q.ImdbID == "" {
		return nil, nil
	}
	return a.cached(q, func() ([]models.RawResult, error) {
		endpoint := fmt.Sprintf("%s/stream/%s/%s.json", a.baseURL, url.PathEscape(q.Type), url.PathEscape(q.StremioID()))

		var resp addonResponse
		if err := a.getJSON(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("addon %s: %w", a.name, err)
		}

		results := make([]models.RawResult, 0, len(resp.Streams))
		for _, s := range resp.Streams {
			if r, ok := a.convert(s); ok {
				results = append(results, r)
			}
		}
		return results, nil
	})
}

func (a *Addon) convert(s addonStream) (models.RawResult, bool) {
	text := s.Title
	if text == "" {
		text = s.Description
	}
	lines := strings.Split(text, "\n")

	r := models.RawResult{
		Title:        strings.TrimSpace(lines[0]),
		DisplayName:  strings.TrimSpace(strings.ReplaceAll(s.Name, "\n", " ")),
		Filename:     s.BehaviorHints.Filename,
		SizeBytes:    s.BehaviorHints.VideoSize,
		SourceName:   a.name,
		IsCachedHint: addonCachedPattern.MatchString(s.Name),
	}
	if r.Filename != "" && r.Title == "" {
		r.Title = r.Filename
	}

	if m := addonSeedersPattern.FindStringSubmatch(text); m != nil {
		r.Seeders, _ = strconv.Atoi(m[1])
	}
	if r.SizeBytes == 0 {
		if m := addonSizePattern.FindStringSubmatch(text); m != nil {
			r.SizeBytes = releaseinfo.ParseSize(m[1])
		}
	}

	switch {
	case s.URL != "":
		r.DirectURL = s.URL
		r.IsDirect = true
	case s.ExternalURL != "":
		r.DirectURL = s.ExternalURL
		r.IsDirect = true
		r.IsExternal = true
	case s.InfoHash != "":
		r.InfoHash = strings.ToLower(s.InfoHash)
		r.FileIndex = s.FileIdx
	default:
		return models.RawResult{}, false
	}
	return r, true
}
