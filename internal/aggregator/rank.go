package aggregator

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/releaseinfo"
)

// rank builds the output records and sorts them.
func (a *StreamAggregator) rank(results []models.RawResult, req Request) []models.RankedStream {
	ranked := make([]models.RankedStream, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, a.build(r, req))
	}
	Sort(ranked)
	return ranked
}

// Sort orders streams by direct status, then debrid cache status (a resolver
// link was built), then resolution tier, then seeders, all descending. The sort is stable so equal entries
// keep their pipeline order.
func Sort(streams []models.RankedStream) {
	sort.SliceStable(streams, func(i, j int) bool {
		a, b := streams[i], streams[j]
		if a.IsDirect != b.IsDirect {
			return a.IsDirect
		}
		if ac, bc := a.StatusLabel == models.StatusCached, b.StatusLabel == models.StatusCached; ac != bc {
			return ac
		}
		if a.ResolutionTier != b.ResolutionTier {
			return a.ResolutionTier > b.ResolutionTier
		}
		return a.Seeders > b.Seeders
	})
}

func (a *StreamAggregator) build(r models.RawResult, req Request) models.RankedStream {
	label := r.Label()
	if r.Filename != "" {
		label = r.Filename + " " + label
	}
	s := models.RankedStream{
		RawResult:      r,
		Release:        releaseinfo.Parse(label),
		ResolutionTier: releaseinfo.ResolutionTier(label),
	}

	switch {
	case r.IsDirect && r.IsExternal:
		s.StatusLabel = models.StatusExternal
		s.PlaybackURL = r.DirectURL
	case r.IsDirect && r.IsCachedHint:
		s.StatusLabel = models.StatusProxy
		s.PlaybackURL = r.DirectURL
	case r.IsDirect:
		s.StatusLabel = models.StatusDirect
		s.PlaybackURL = r.DirectURL
	default:
		if provider, key, ok := a.debridFor(r); ok && req.Host != "" {
			s.StatusLabel = models.StatusCached
			s.PlaybackURL = resolveURL(req.Host, provider, key, r.Hash(), r.FileIdx())
		} else {
			s.StatusLabel = models.StatusP2P
			s.Sources = p2pSources(r.Hash(), a.trackers)
		}
	}

	s.DisplayTitle = displayName(s)
	s.Description = description(s, req)
	s.BingeGroup = bingeGroup(s, req)
	return s
}

// debridFor picks the provider that will play a cached torrent: the one that
// verified it, else the first configured one for a source-reported hint.
func (a *StreamAggregator) debridFor(r models.RawResult) (provider, key string, ok bool) {
	if p := r.CachedBy(); p != "" {
		if k := a.apiKey(p); k != "" {
			return p, k, true
		}
	}
	if !r.IsCachedHint {
		return "", "", false
	}
	for _, p := range []string{constants.ProviderAllDebrid, constants.ProviderRealDebrid} {
		if k := a.apiKey(p); k != "" {
			return p, k, true
		}
	}
	return "", "", false
}

func (a *StreamAggregator) apiKey(provider string) string {
	switch provider {
	case constants.ProviderAllDebrid:
		return a.cfg.APIKeyAllDebrid
	case constants.ProviderRealDebrid:
		return a.cfg.APIKeyRealDebrid
	}
	return ""
}

func resolveURL(host, provider, apiKey, hash string, fileIdx int) string {
	return fmt.Sprintf("%s/resolve/%s/%s/%s/%d", host, provider, url.PathEscape(apiKey), hash, fileIdx)
}

func p2pSources(hash string, trackers []string) []string {
	out := make([]string, 0, len(trackers)+1)
	for _, t := range trackers {
		out = append(out, "tracker:"+t)
	}
	if hash != "" {
		out = append(out, "dht:"+hash)
	}
	return out
}
