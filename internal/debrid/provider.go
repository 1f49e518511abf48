// Package debrid talks to debrid services: batch cache checks during
// aggregation and magnet to playable URL resolution at playback time.
package debrid

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/amaumene/streamhub/internal/models"
)

// ErrNotReady is returned by Links while the provider is still fetching the
// torrent.
var ErrNotReady = errors.New("torrent not ready")

// Link is one downloadable file of a torrent added to a provider.
type Link struct {
	FileIndex int
	Filename  string
	SizeBytes int64
	URL       string
}

// Provider is a debrid service bound to one account.
type Provider interface {
	Name() string
	// BatchSize is the maximum number of hashes per CheckCache call.
	BatchSize() int
	// CheckCache reports the cache state of hashes. Hashes missing from the
	// result are not cached by this provider.
	CheckCache(ctx context.Context, hashes []string) (map[string]models.CacheStatus, error)
	// AddMagnet adds the torrent to the account and returns the provider id.
	AddMagnet(ctx context.Context, hash string) (string, error)
	// Links lists the files of an added torrent, or ErrNotReady.
	Links(ctx context.Context, id string) ([]Link, error)
	// UnrestrictLink turns a provider link into a direct download URL.
	UnrestrictLink(ctx context.Context, link string) (string, error)
	// DeleteMagnet removes an added torrent from the account.
	DeleteMagnet(ctx context.Context, id string) error
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true, ".ts": true,
}

// IsVideoFile checks the filename extension.
func IsVideoFile(filename string) bool {
	return videoExtensions[strings.ToLower(path.Ext(filename))]
}

func magnetFor(hash string) string {
	return "magnet:?xt=urn:btih:" + strings.ToLower(hash)
}
