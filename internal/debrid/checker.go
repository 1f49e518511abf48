package debrid

import (
	"context"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/metrics"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/logger"
)

// CacheChecker asks every configured provider about a set of hashes
// concurrently. One provider failing never affects the others' answers.
type CacheChecker struct {
	providers  []Provider
	batchDelay time.Duration
	timeout    time.Duration
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// NewCacheChecker creates a checker. Non-positive timeout means
// constants.DefaultDebridTimeout.
func NewCacheChecker(providers []Provider, batchDelay, timeout time.Duration, log logger.Logger, m *metrics.Metrics) *CacheChecker {
	if timeout <= 0 {
		timeout = constants.DefaultDebridTimeout
	}
	return &CacheChecker{
		providers:  providers,
		batchDelay: batchDelay,
		timeout:    timeout,
		logger:     log,
		metrics:    m,
	}
}

// Enabled reports whether any provider is configured.
func (c *CacheChecker) Enabled() bool {
	return len(c.providers) > 0
}

type providerAnswer struct {
	provider string
	statuses map[string]models.CacheStatus
}

// CheckCaches returns, per lower-cased hash, the statuses reported by each
// provider. Hashes no provider answered for are absent.
func (c *CacheChecker) CheckCaches(ctx context.Context, hashes []string) map[string][]models.CacheStatus {
	out := make(map[string][]models.CacheStatus)
	unique := normalizeHashes(hashes)
	if len(unique) == 0 || len(c.providers) == 0 {
		return out
	}

	p := pool.NewWithResults[providerAnswer]().WithMaxGoroutines(constants.MaxParallelProviders)
	for _, prov := range c.providers {
		prov := prov
		p.Go(func() providerAnswer {
			return providerAnswer{provider: prov.Name(), statuses: c.checkProvider(ctx, prov, unique)}
		})
	}

	for _, ans := range p.Wait() {
		cached := 0
		for h, st := range ans.statuses {
			h = strings.ToLower(h)
			if st.Service == "" {
				st.Service = ans.provider
			}
			out[h] = append(out[h], st)
			if st.Cached {
				cached++
			}
		}
		if c.metrics != nil {
			c.metrics.DebridCached.WithLabelValues(ans.provider).Add(float64(cached))
		}
		c.logger.Infof("[Debrid] %s: %d/%d hashes cached", ans.provider, cached, len(unique))
	}
	return out
}

// checkProvider runs the batches of one provider under its own timeout. A
// failed batch is logged and skipped; answers of other batches are kept.
func (c *CacheChecker) checkProvider(ctx context.Context, prov Provider, hashes []string) map[string]models.CacheStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := make(map[string]models.CacheStatus)
	for i, batch := range batches(hashes, prov.BatchSize()) {
		if i > 0 && c.batchDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(c.batchDelay):
			}
		}
		if ctx.Err() != nil {
			c.logger.Warnf("[Debrid] %s: stopped after %d batches: %v", prov.Name(), i, ctx.Err())
			c.count(prov.Name(), "timeout")
			break
		}

		statuses, err := prov.CheckCache(ctx, batch)
		if err != nil {
			c.logger.Warnf("[Debrid] %s: batch %d failed: %v", prov.Name(), i, err)
			c.count(prov.Name(), "error")
			continue
		}
		c.count(prov.Name(), "ok")
		for h, st := range statuses {
			result[strings.ToLower(h)] = st
		}
	}
	return result
}

func (c *CacheChecker) count(provider, outcome string) {
	if c.metrics != nil {
		c.metrics.DebridChecks.WithLabelValues(provider, outcome).Inc()
	}
}

func normalizeHashes(hashes []string) []string {
	seen := make(map[string]bool, len(hashes))
	out := make([]string, 0, len(hashes))
	for _, h := range hashes {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func batches(items []string, size int) [][]string {
	if size <= 0 {
		size = len(items)
	}
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// Apply merges checker answers into results. A result is cached when any
// provider reports it cached.
func Apply(results []models.RawResult, statuses map[string][]models.CacheStatus) []models.RawResult {
	for i := range results {
		sts, ok := statuses[results[i].Hash()]
		if !ok {
			continue
		}
		results[i].CacheStatuses = sts
		for _, s := range sts {
			if s.Cached {
				results[i].Cached = true
				break
			}
		}
	}
	return results
}
