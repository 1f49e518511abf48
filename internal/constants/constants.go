// Package constants defines application-wide constants and default values.
package constants

import "time"

const (
	// Addon metadata
	AddonID          = "streamhub.stremio.addon"
	AddonVersion     = "1.0.0"
	AddonName        = "StreamHub"
	AddonDescription = "Aggregates torrent indexers and upstream addons, filters, deduplicates and ranks streams with debrid cache checks"

	// Default configuration values
	DefaultPort     = "5000"
	DefaultLogLevel = "info"

	// Cache settings
	DefaultCacheSize        = 1000
	DefaultCacheTTL         = 24 // hours
	DefaultResponseCacheMB  = 32
	DefaultResponseCacheTTL = 15 * time.Minute
	DefaultDebridStatusTTL  = 6 * time.Hour

	// Rate limiting
	TMDBRateLimit       = 20 // requests per second
	TMDBRateBurst       = 5  // burst capacity
	AllDebridRateLimit  = 10 // requests per second
	AllDebridRateBurst  = 2  // burst capacity
	RealDebridRateLimit = 4
	RealDebridRateBurst = 2
	SourceRateLimit     = 5
	SourceRateBurst     = 2

	// Filtering
	DefaultFuzzyThreshold   = 80
	DefaultMinMovieSizeMB   = 200
	DefaultMinEpisodeSizeMB = 50
	DefaultYearTolerance    = 1

	// Early exit
	DefaultEarlyExit4K    = 2
	DefaultEarlyExit1080p = 3

	// Debrid batching
	DefaultDebridBatchSize = 40
	MaxParallelProviders   = 4
)

// Mixed-language global indexers.
var MixedLanguageSources = []string{"Apibay", "TorrentsCSV", "EZTV"}

// DefaultSources lists every built-in source adapter.
var DefaultSources = []string{"apibay", "torrentscsv", "eztv", "addons"}

// DefaultTrackers are appended to P2P streams as swarm sources.
var DefaultTrackers = []string{
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://open.stealth.si:80/announce",
	"udp://tracker.torrent.eu.org:451/announce",
	"udp://exodus.desync.com:6969/announce",
}
