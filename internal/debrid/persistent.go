package debrid

import (
	"context"
	"time"

	"github.com/amaumene/streamhub/internal/database"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/logger"
)

// PersistentProvider remembers cache-check answers, positive and negative,
// in the database for ttl so repeated requests skip the provider.
type PersistentProvider struct {
	Provider
	db     database.Database
	ttl    time.Duration
	logger logger.Logger
}

func NewPersistentProvider(p Provider, db database.Database, ttl time.Duration, log logger.Logger) *PersistentProvider {
	return &PersistentProvider{Provider: p, db: db, ttl: ttl, logger: log}
}

func (p *PersistentProvider) CheckCache(ctx context.Context, hashes []string) (map[string]models.CacheStatus, error) {
	known, err := p.db.GetDebridStatuses(p.Name(), hashes, p.ttl)
	if err != nil {
		p.logger.Warnf("[Debrid] %s: reading stored statuses: %v", p.Name(), err)
		known = map[string]models.CacheStatus{}
	}

	var missing []string
	for _, h := range hashes {
		if _, ok := known[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) == 0 {
		return known, nil
	}

	fresh, err := p.Provider.CheckCache(ctx, missing)
	if err != nil {
		if len(known) > 0 {
			p.logger.Warnf("[Debrid] %s: serving %d stored statuses after error: %v", p.Name(), len(known), err)
			return known, nil
		}
		return nil, err
	}

	toStore := make(map[string]models.CacheStatus, len(missing))
	for _, h := range missing {
		st, ok := fresh[h]
		if !ok {
			st = models.CacheStatus{Cached: false, Service: p.Name()}
		}
		toStore[h] = st
		known[h] = st
	}
	if err := p.db.StoreDebridStatuses(p.Name(), toStore); err != nil {
		p.logger.Warnf("[Debrid] %s: storing statuses: %v", p.Name(), err)
	}
	return known, nil
}
