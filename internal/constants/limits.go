package constants

// Limits and conversion factors
const (
	// Conversion factors
	BytesPerMB = 1024 * 1024
	BytesPerGB = 1024 * 1024 * 1024

	// Size bucket used by the hash-less dedup key
	DedupSizeBucket = 100 * BytesPerMB

	// Candidates kept per source before filtering
	MaxResultsPerSource = 100

	// Lenient pre-filter score used by indexers that search by free text
	SourceMatchThreshold = 50
)
