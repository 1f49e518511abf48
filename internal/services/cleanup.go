package services

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/amaumene/streamhub/internal/database"
	"github.com/amaumene/streamhub/internal/debrid"
	"github.com/amaumene/streamhub/pkg/logger"
)

const (
	defaultCleanupInterval = 1 * time.Hour
	defaultRetentionPeriod = 4 * time.Hour
	deleteSpacing          = 100 * time.Millisecond
)

// ProviderSource builds a debrid client for a stored account.
type ProviderSource interface {
	Provider(name, apiKey string, batchSize int) (debrid.Provider, error)
}

// CleanupService periodically removes torrents the resolver added to debrid
// accounts once they are older than the retention period.
type CleanupService struct {
	db              database.Database
	providers       ProviderSource
	logger          logger.Logger
	interval        time.Duration
	retentionPeriod time.Duration
	spacing         time.Duration
	mu              sync.Mutex
	running         bool
	stopChan        chan struct{}
}

func NewCleanupService(db database.Database, providers ProviderSource, log logger.Logger) *CleanupService {
	return &CleanupService{
		db:              db,
		providers:       providers,
		logger:          log,
		interval:        defaultCleanupInterval,
		retentionPeriod: defaultRetentionPeriod,
		spacing:         deleteSpacing,
		stopChan:        make(chan struct{}),
	}
}

// SetRetentionPeriod sets how long to keep magnets before cleanup.
func (c *CleanupService) SetRetentionPeriod(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retentionPeriod = d
}

// SetInterval sets how often cleanup runs.
func (c *CleanupService) SetInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = d
}

// Start runs one pass in the background immediately, then one per interval
// until ctx ends or Stop is called.
func (c *CleanupService) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Infof("[Cleanup] starting with interval %v, retention %v", c.interval, c.retentionPeriod)
	go c.loop(ctx)
}

func (c *CleanupService) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stopChan)
	c.logger.Infof("[Cleanup] stopped")
}

func (c *CleanupService) loop(ctx context.Context) {
	c.CleanupNow(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Stop()
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.CleanupNow(ctx)
		}
	}
}

// CleanupNow removes expired magnets from their providers, then from the
// database. It returns how many database entries were removed.
func (c *CleanupService) CleanupNow(ctx context.Context) int {
	old, err := c.db.GetOldMagnets(c.retentionPeriod)
	if err != nil {
		c.logger.Errorf("[Cleanup] failed to get old magnets: %v", err)
		return 0
	}
	if len(old) == 0 {
		c.logger.Debugf("[Cleanup] no old magnets")
		return 0
	}
	c.logger.Infof("[Cleanup] %d magnets to remove", len(old))

	var wg conc.WaitGroup
	for account, magnets := range groupByAccount(old) {
		account, magnets := account, magnets
		wg.Go(func() { c.deleteRemote(ctx, account, magnets) })
	}
	if r := wg.WaitAndRecover(); r != nil {
		c.logger.Errorf("[Cleanup] remote deletion panicked: %v", r.Value)
	}

	cleaned := 0
	for _, m := range old {
		if err := c.db.DeleteMagnet(m.ID); err != nil {
			c.logger.Errorf("[Cleanup] failed to delete magnet %s from database: %v", m.ID, err)
			continue
		}
		cleaned++
	}
	c.logger.Infof("[Cleanup] %d magnets removed from database", cleaned)
	return cleaned
}

type account struct {
	provider string
	apiKey   string
}

func groupByAccount(magnets []database.Magnet) map[account][]database.Magnet {
	out := make(map[account][]database.Magnet)
	for _, m := range magnets {
		if m.ProviderID == "" || m.APIKey == "" {
			continue
		}
		k := account{provider: m.Provider, apiKey: m.APIKey}
		out[k] = append(out[k], m)
	}
	return out
}

func (c *CleanupService) deleteRemote(ctx context.Context, acc account, magnets []database.Magnet) {
	p, err := c.providers.Provider(acc.provider, acc.apiKey, 0)
	if err != nil {
		c.logger.Warnf("[Cleanup] skipping %d magnets on %s: %v", len(magnets), acc.provider, err)
		return
	}
	for i, m := range magnets {
		if i > 0 && c.spacing > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.spacing):
			}
		}
		if err := p.DeleteMagnet(ctx, m.ProviderID); err != nil {
			c.logger.Warnf("[Cleanup] failed to delete %s from %s: %v", m.ProviderID, acc.provider, err)
			continue
		}
		c.logger.Debugf("[Cleanup] deleted %s from %s", m.ProviderID, acc.provider)
	}
}
