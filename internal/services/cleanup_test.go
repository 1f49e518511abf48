package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/streamhub/internal/database"
	"github.com/amaumene/streamhub/internal/debrid"
	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/logger"
)

type recordingProvider struct {
	name    string
	mu      *sync.Mutex
	deleted *[]string
}

func (p recordingProvider) Name() string   { return p.name }
func (p recordingProvider) BatchSize() int { return 1 }

func (p recordingProvider) CheckCache(context.Context, []string) (map[string]models.CacheStatus, error) {
	return nil, nil
}

func (p recordingProvider) AddMagnet(context.Context, string) (string, error)      { return "", nil }
func (p recordingProvider) Links(context.Context, string) ([]debrid.Link, error)   { return nil, nil }
func (p recordingProvider) UnrestrictLink(context.Context, string) (string, error) { return "", nil }

func (p recordingProvider) DeleteMagnet(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.deleted = append(*p.deleted, p.name+"/"+id)
	return nil
}

type fakeProviderSource struct {
	mu      sync.Mutex
	deleted []string
}

func (s *fakeProviderSource) Provider(name, apiKey string, _ int) (debrid.Provider, error) {
	if apiKey == "revoked" {
		return nil, errors.New("invalid key")
	}
	return recordingProvider{name: name, mu: &s.mu, deleted: &s.deleted}, nil
}

func TestCleanupNow(t *testing.T) {
	db, err := database.NewBolt(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	old := time.Now().Add(-10 * time.Hour)
	magnets := []*database.Magnet{
		{ID: "alldebrid_1", Provider: "alldebrid", ProviderID: "1", APIKey: "k1", AddedAt: old},
		{ID: "alldebrid_2", Provider: "alldebrid", ProviderID: "2", APIKey: "k1", AddedAt: old},
		{ID: "realdebrid_X", Provider: "realdebrid", ProviderID: "X", APIKey: "k2", AddedAt: old},
		{ID: "alldebrid_3", Provider: "alldebrid", ProviderID: "3", APIKey: "revoked", AddedAt: old},
		{ID: "alldebrid_4", Provider: "alldebrid", ProviderID: "4", APIKey: "k1"},
	}
	for _, m := range magnets {
		require.NoError(t, db.StoreMagnet(m))
	}

	src := &fakeProviderSource{}
	svc := NewCleanupService(db, src, logger.NewNop())
	svc.spacing = 0

	cleaned := svc.CleanupNow(context.Background())
	assert.Equal(t, 4, cleaned)
	assert.ElementsMatch(t, []string{"alldebrid/1", "alldebrid/2", "realdebrid/X"}, src.deleted)

	remaining, err := db.GetMagnets()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "alldebrid_4", remaining[0].ID)
}

func TestCleanupStartStop(t *testing.T) {
	db, err := database.NewBolt(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	svc := NewCleanupService(db, &fakeProviderSource{}, logger.NewNop())
	svc.SetInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	svc.Start(ctx)
	svc.Stop()
	svc.Stop()
}
