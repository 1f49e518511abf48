package debrid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/amaumene/streamhub/internal/constants"
	"github.com/amaumene/streamhub/internal/database"
	apperrors "github.com/amaumene/streamhub/internal/errors"
	"github.com/amaumene/streamhub/pkg/logger"
)

// Resolver turns a cached torrent into a playable URL on demand.
type Resolver struct {
	db       database.Database
	logger   logger.Logger
	attempts uint
	delay    time.Duration
}

func NewResolver(db database.Database, log logger.Logger) *Resolver {
	return &Resolver{
		db:       db,
		logger:   log,
		attempts: constants.MaxMagnetReadyAttempts,
		delay:    constants.MagnetReadyRetryDelay,
	}
}

// Resolve adds hash to the provider account, waits for it to be ready, picks
// the file at fileIdx (or the largest video when fileIdx is negative or
// unknown) and returns its unrestricted URL. apiKey is only recorded so the
// cleanup job can remove the torrent later.
func (r *Resolver) Resolve(ctx context.Context, p Provider, apiKey, hash string, fileIdx int) (string, error) {
	id, err := p.AddMagnet(ctx, hash)
	if err != nil {
		return "", err
	}
	r.track(p.Name(), apiKey, hash, id)

	var links []Link
	err = retry.Do(
		func() error {
			var err error
			links, err = p.Links(ctx, id)
			if err != nil && !errors.Is(err, ErrNotReady) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}

	link, ok := PickFile(links, fileIdx)
	if !ok {
		return "", apperrors.NewDebridError(p.Name(), fmt.Sprintf("no playable file in %s", hash), nil)
	}
	r.logger.Debugf("[Resolver] %s: %s picked %q", p.Name(), hash, link.Filename)

	return p.UnrestrictLink(ctx, link.URL)
}

// PickFile returns the link for fileIdx, falling back to the largest video
// file.
func PickFile(links []Link, fileIdx int) (Link, bool) {
	if fileIdx >= 0 {
		for _, l := range links {
			if l.FileIndex == fileIdx {
				return l, true
			}
		}
	}

	var best Link
	found := false
	for _, l := range links {
		if !IsVideoFile(l.Filename) {
			continue
		}
		if !found || l.SizeBytes > best.SizeBytes {
			best = l
			found = true
		}
	}
	return best, found
}

func (r *Resolver) track(provider, apiKey, hash, id string) {
	if r.db == nil {
		return
	}
	m := &database.Magnet{
		ID:         provider + "_" + id,
		Hash:       hash,
		Provider:   provider,
		ProviderID: id,
		APIKey:     apiKey,
	}
	if err := r.db.StoreMagnet(m); err != nil {
		r.logger.Warnf("[Resolver] failed to record magnet %s: %v", id, err)
	}
}
