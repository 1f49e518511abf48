package sources

import (
	"net/http"

	"github.com/amaumene/streamhub/internal/config"
	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/pkg/logger"
)

// Build returns the adapters enabled by cfg. Upstream addons are only built
// when the "addons" source is enabled.
func Build(cfg *config.Config, client *http.Client, log logger.Logger) []Adapter {
	opts := Options{Client: client, Logger: log}

	var adapters []Adapter
	if cfg.SourceEnabled(constants.SourceApibay) {
		adapters = append(adapters, NewApibay(opts))
	}
	if cfg.SourceEnabled(constants.SourceTorrentsCSV) {
		adapters = append(adapters, NewTorrentsCSV(opts))
	}
	if cfg.SourceEnabled(constants.SourceEZTV) {
		adapters = append(adapters, NewEZTV(opts))
	}
	if cfg.SourceEnabled(constants.SourceAddons) {
		for _, u := range cfg.UpstreamAddons {
			adapters = append(adapters, NewAddon(u, opts))
		}
	}

	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	log.Infof("[Sources] enabled: %v", names)
	return adapters
}

// MixedLanguageNames lists the adapters whose results are language gated.
func MixedLanguageNames(adapters []Adapter) []string {
	var names []string
	for _, a := range adapters {
		if a.MixedLanguage() {
			names = append(names, a.Name())
		}
	}
	return names
}
