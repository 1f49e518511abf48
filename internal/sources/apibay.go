package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/amaumene/streamhub/internal/models"
)

const (
	apibayURL      = "https://apibay.org"
	apibayVideoCat = "200"
	apibayNoResult = "0"
)

type apibayTorrent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	InfoHash string `json:"info_hash"`
	Seeders  string `json:"seeders"`
	Size     string `json:"size"`
	IMDB     string `json:"imdb"`
}

// Apibay searches The Pirate Bay JSON API.
type Apibay struct {
	base
}

// NewApibay creates an Apibay adapter.
func NewApibay(opts Options) *Apibay {
	return &Apibay{base: newBase("Apibay", apibayURL, opts)}
}

func (a *Apibay) Name() string        { return a.name }
func (a *Apibay) MixedLanguage() bool { return true }

// Search queries q.php by free text restricted to the video category.
func (a *Apibay) Search(ctx context.Context, q Query) ([]models.RawResult, error) {
	return a.cached(q, func() ([]models.RawResult, error) {
		endpoint := fmt.Sprintf("%s/q.php?q=%s&cat=%s", a.baseURL, url.QueryEscape(SearchText(q)), apibayVideoCat)

		var torrents []apibayTorrent
		if err := a.getJSON(ctx, endpoint, &torrents); err != nil {
			return nil, fmt.Errorf("apibay search: %w", err)
		}

		results := make([]models.RawResult, 0, len(torrents))
		for _, t := range torrents {
			if t.ID == apibayNoResult || strings.Trim(t.InfoHash, "0") == "" {
				continue
			}
			// results tagged with a different imdb id are another title
			if t.IMDB != "" && strings.HasPrefix(q.ImdbID, "tt") && t.IMDB != q.ImdbID {
				continue
			}
			seeders, _ := strconv.Atoi(t.Seeders)
			size, _ := strconv.ParseInt(t.Size, 10, 64)
			results = append(results, models.RawResult{
				Title:      t.Name,
				InfoHash:   strings.ToLower(t.InfoHash),
				SizeBytes:  size,
				Seeders:    seeders,
				SourceName: a.name,
			})
		}
		return relevant(q, results), nil
	})
}
