package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/models"
)

const torrentsCSVURL = "https://torrents-csv.com"

type torrentsCSVResponse struct {
	Torrents []torrentsCSVTorrent `json:"torrents"`
	Next     *int64               `json:"next"`
}

type torrentsCSVTorrent struct {
	InfoHash  string `json:"infohash"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Seeders   int    `json:"seeders"`
	Leechers  int    `json:"leechers"`
}

// TorrentsCSV searches the torrents-csv.com index.
type TorrentsCSV struct {
	base
}

// NewTorrentsCSV creates a TorrentsCSV adapter.
func NewTorrentsCSV(opts Options) *TorrentsCSV {
	return &TorrentsCSV{base: newBase("TorrentsCSV", torrentsCSVURL, opts)}
}

func (t *TorrentsCSV) Name() string        { return t.name }
func (t *TorrentsCSV) MixedLanguage() bool { return true }

// Search fetches one page of results for the free-text query.
func (t *TorrentsCSV) Search(ctx context.Context, q Query) ([]models.RawResult, error) {
	return t.cached(q, func() ([]models.RawResult, error) {
		params := url.Values{}
		params.Set("q", SearchText(q))
		params.Set("size", fmt.Sprint(constants.MaxResultsPerSource))
		endpoint := t.baseURL + "/service/search?" + params.Encode()

		var resp torrentsCSVResponse
		if err := t.getJSON(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("torrentscsv search: %w", err)
		}

		results := make([]models.RawResult, 0, len(resp.Torrents))
		for _, tr := range resp.Torrents {
			if tr.InfoHash == "" {
				continue
			}
			results = append(results, models.RawResult{
				Title:      tr.Name,
				InfoHash:   strings.ToLower(tr.InfoHash),
				SizeBytes:  tr.SizeBytes,
				Seeders:    tr.Seeders,
				SourceName: t.name,
			})
		}
		return relevant(q, results), nil
	})
}
