package constants

import "time"

// Timeout constants for the stream pipeline.
const (
	// Request timeout for the entire stream request
	RequestTimeout = 30 * time.Second

	// Per source adapter ceiling
	DefaultAdapterTimeout = 8 * time.Second

	// Upper bound for the whole fan-out
	DefaultAggregateTimeout = 20 * time.Second

	// Per debrid provider ceiling for a cache check
	DefaultDebridTimeout = 10 * time.Second

	// Pause between cache-check batches of one provider
	DefaultDebridBatchDelay = 300 * time.Millisecond

	// Playback resolution polling
	MagnetReadyRetryDelay  = 2 * time.Second
	MaxMagnetReadyAttempts = 3
)
