// Package dedup collapses results that point at the same content.
package dedup

import (
	"strconv"
	"strings"

	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/titlematch"
)

// Key returns the identity used to collapse a torrent entry: the lower-cased
// info-hash, or the normalized filename plus a 100MB size bucket when the
// entry has no hash.
func Key(r models.RawResult) string {
	if h := r.Hash(); h != "" {
		return h
	}
	return fileKey(r)
}

func fileKey(r models.RawResult) string {
	name := r.Filename
	if name == "" {
		name = r.Label()
	}
	return "file:" + titlematch.Normalize(name) + "|" + strconv.FormatInt(r.SizeBytes/constants.DedupSizeBucket, 10)
}

// Deduplicate partitions results into direct and torrent entries, collapses
// each group with its own key scheme and returns the survivors, direct entries
// first. Order within each group follows first arrival of the key.
func Deduplicate(results []models.RawResult) []models.RawResult {
	var direct, torrents []models.RawResult
	for _, r := range results {
		if r.IsDirect {
			direct = append(direct, r)
		} else {
			torrents = append(torrents, r)
		}
	}

	out := dedupDirect(direct)
	return append(out, dedupTorrents(torrents)...)
}

// dedupDirect keeps the first entry per URL, then the first entry per
// filename and size bucket.
func dedupDirect(results []models.RawResult) []models.RawResult {
	seenURL := make(map[string]bool, len(results))
	seenFile := make(map[string]bool, len(results))
	out := make([]models.RawResult, 0, len(results))

	for _, r := range results {
		if u := strings.TrimSpace(r.DirectURL); u != "" {
			if seenURL[u] {
				continue
			}
			seenURL[u] = true
		}

		fk := fileKey(r)
		if seenFile[fk] {
			continue
		}
		seenFile[fk] = true

		out = append(out, r)
	}
	return out
}

func dedupTorrents(results []models.RawResult) []models.RawResult {
	index := make(map[string]int, len(results))
	out := make([]models.RawResult, 0, len(results))

	for _, r := range results {
		k := Key(r)
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		if Prefer(r, out[i]) {
			out[i] = r
		}
	}
	return out
}

// Prefer reports whether candidate should replace incumbent under the same
// key. Cached status dominates, then a strictly higher seeder count; on a
// full tie the incumbent stays.
func Prefer(candidate, incumbent models.RawResult) bool {
	cc, ic := candidate.IsCached(), incumbent.IsCached()
	if cc != ic {
		return cc
	}
	return candidate.Seeders > incumbent.Seeders
}
