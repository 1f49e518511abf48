package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/amaumene/streamhub/internal/models"
)

const eztvURL = "https://eztvx.to/api"

type eztvResponse struct {
	TorrentsCount int           `json:"torrents_count"`
	Torrents      []eztvTorrent `json:"torrents"`
}

type eztvTorrent struct {
	Hash      string `json:"hash"`
	Filename  string `json:"filename"`
	MagnetURL string `json:"magnet_url"`
	Title     string `json:"title"`
	Season    string `json:"season"`
	Episode   string `json:"episode"`
	Seeds     int    `json:"seeds"`
	SizeBytes string `json:"size_bytes"`
}

// EZTV looks series up by IMDB id. Movies are not indexed there.
type EZTV struct {
	base
}

// NewEZTV creates an EZTV adapter.
func NewEZTV(opts Options) *EZTV {
	return &EZTV{base: newBase("EZTV", eztvURL, opts)}
}

func (e *EZTV) Name() string        { return e.name }
func (e *EZTV) MixedLanguage() bool { return true }

// Search returns the torrents of the requested episode, or of the whole
// series when no episode is given.
func (e *EZTV) Search(ctx context.Context, q Query) ([]models.RawResult, error) {
	if q.Type != "series" || q.ImdbID == "" {
		return nil, nil
	}
	return e.cached(q, func() ([]models.RawResult, error) {
		endpoint := fmt.Sprintf("%s/get-torrents?imdb_id=%s&limit=100", e.baseURL, strings.TrimPrefix(q.ImdbID, "tt"))

		var resp eztvResponse
		if err := e.getJSON(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("eztv search: %w", err)
		}

		results := make([]models.RawResult, 0, len(resp.Torrents))
		for _, t := range resp.Torrents {
			if q.IsEpisode() && !sameEpisode(t, q) {
				continue
			}
			size, _ := strconv.ParseInt(t.SizeBytes, 10, 64)
			title := t.Title
			if title == "" {
				title = t.Filename
			}
			results = append(results, models.RawResult{
				Title:      title,
				InfoHash:   strings.ToLower(t.Hash),
				MagnetURI:  t.MagnetURL,
				Filename:   t.Filename,
				SizeBytes:  size,
				Seeders:    t.Seeds,
				SourceName: e.name,
			})
		}
		return results, nil
	})
}

func sameEpisode(t eztvTorrent, q Query) bool {
	season, err1 := strconv.Atoi(t.Season)
	episode, err2 := strconv.Atoi(t.Episode)
	if err1 != nil || err2 != nil {
		return MatchesEpisode(t.Title, q)
	}
	return season == q.Season && episode == q.Episode
}
