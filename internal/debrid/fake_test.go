package debrid

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amaumene/streamhub/internal/models"
)

type fakeProvider struct {
	name      string
	batchSize int
	cached    map[string]bool
	fail      bool
	delay     time.Duration

	mu      sync.Mutex
	batches [][]string

	links     []Link
	notReady  int
	addedHash string
}

func (f *fakeProvider) Name() string   { return f.name }
func (f *fakeProvider) BatchSize() int { return f.batchSize }

func (f *fakeProvider) CheckCache(ctx context.Context, hashes []string) (map[string]models.CacheStatus, error) {
	f.mu.Lock()
	f.batches = append(f.batches, append([]string{}, hashes...))
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.fail {
		return nil, errors.New("provider down")
	}
	out := make(map[string]models.CacheStatus)
	for _, h := range hashes {
		if c, ok := f.cached[h]; ok {
			out[h] = models.CacheStatus{Cached: c, Service: f.name}
		}
	}
	return out, nil
}

func (f *fakeProvider) AddMagnet(_ context.Context, hash string) (string, error) {
	f.addedHash = hash
	return "42", nil
}

func (f *fakeProvider) Links(_ context.Context, id string) ([]Link, error) {
	if f.notReady > 0 {
		f.notReady--
		return nil, ErrNotReady
	}
	return f.links, nil
}

func (f *fakeProvider) UnrestrictLink(_ context.Context, link string) (string, error) {
	return "https://cdn.example/" + link, nil
}

func (f *fakeProvider) DeleteMagnet(context.Context, string) error { return nil }

func (f *fakeProvider) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}
