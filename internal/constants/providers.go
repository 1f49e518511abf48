package constants

// Source and debrid provider identifiers used in configuration.
const (
	SourceApibay      = "apibay"
	SourceTorrentsCSV = "torrentscsv"
	SourceEZTV        = "eztv"
	SourceAddons      = "addons"

	ProviderAllDebrid  = "alldebrid"
	ProviderRealDebrid = "realdebrid"
)

// CollectionPrefix starts the ids of TMDB collections served as series whose
// episodes are the member movies.
const CollectionPrefix = "tmdbcollection:"
