package debrid

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/streamhub/internal/database"
	"github.com/amaumene/streamhub/pkg/logger"
)

func TestPickFile(t *testing.T) {
	links := []Link{
		{FileIndex: 0, Filename: "sample.mkv", SizeBytes: 10},
		{FileIndex: 1, Filename: "movie.mkv", SizeBytes: 1000},
		{FileIndex: 2, Filename: "extras.nfo", SizeBytes: 5000},
	}

	l, ok := PickFile(links, 0)
	require.True(t, ok)
	assert.Equal(t, "sample.mkv", l.Filename)

	l, ok = PickFile(links, -1)
	require.True(t, ok)
	assert.Equal(t, "movie.mkv", l.Filename)

	l, ok = PickFile(links, 9)
	require.True(t, ok)
	assert.Equal(t, "movie.mkv", l.Filename)

	_, ok = PickFile([]Link{{Filename: "readme.txt"}}, -1)
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	db, err := database.NewBolt(filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	defer db.Close()

	prov := &fakeProvider{
		name:     "alldebrid",
		notReady: 1,
		links:    []Link{{FileIndex: 0, Filename: "Movie.2020.1080p.mkv", SizeBytes: 100, URL: "file0"}},
	}

	r := NewResolver(db, logger.NewNop())
	r.delay = time.Millisecond

	url, err := r.Resolve(context.Background(), prov, "key", "abc", -1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/file0", url)
	assert.Equal(t, "abc", prov.addedHash)

	magnets, err := db.GetMagnets()
	require.NoError(t, err)
	require.Len(t, magnets, 1)
	assert.Equal(t, "42", magnets[0].ProviderID)
	assert.Equal(t, "alldebrid", magnets[0].Provider)
}

func TestResolveNeverReady(t *testing.T) {
	prov := &fakeProvider{name: "alldebrid", notReady: 100}
	r := NewResolver(nil, logger.NewNop())
	r.delay = time.Millisecond

	_, err := r.Resolve(context.Background(), prov, "key", "abc", 0)
	assert.ErrorIs(t, err, ErrNotReady)
}
