package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/streamhub/internal/database"
	apperrors "github.com/amaumene/streamhub/internal/errors"
	"github.com/amaumene/streamhub/internal/models"
)

func newTMDBServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		var body interface{}
		switch r.URL.Path {
		case "/find/tt1375666":
			body = models.TMDBFindResponse{MovieResults: []models.TMDBMovie{
				{ID: 27205, Title: "Inception", OriginalTitle: "Inception", ReleaseDate: "2010-07-15"},
			}}
		case "/find/tt0903747":
			body = models.TMDBFindResponse{TVResults: []models.TMDBTV{
				{ID: 1396, Name: "Breaking Bad", OriginalName: "Breaking Bad", FirstAirDate: "2008-01-20"},
			}}
		case "/find/tt0000000":
			body = models.TMDBFindResponse{}
		case "/collection/2344":
			body = models.TMDBCollection{ID: 2344, Name: "The Matrix Collection", Parts: []models.TMDBMovie{
				{ID: 604, Title: "The Matrix Reloaded", ReleaseDate: "2003-05-15"},
				{ID: 999, Title: "Untitled Matrix"},
				{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31"},
			}}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestTMDB(t *testing.T, srvURL string, db database.Database) *TMDB {
	t.Helper()
	return NewTMDB(TMDBOptions{APIKey: "test-key", BaseURL: srvURL, Client: http.DefaultClient, DB: db})
}

func TestTMDBGetMeta(t *testing.T) {
	var hits int32
	srv := newTMDBServer(t, &hits)
	tmdb := newTestTMDB(t, srv.URL, nil)
	ctx := context.Background()

	movie, err := tmdb.GetMeta(ctx, "tt1375666", "")
	require.NoError(t, err)
	assert.Equal(t, models.MediaMeta{ID: "tt1375666", Type: "movie", Name: "Inception", Year: 2010}, movie)

	series, err := tmdb.GetMeta(ctx, "tt0903747", "")
	require.NoError(t, err)
	assert.Equal(t, "series", series.Type)
	assert.Equal(t, 2008, series.Year)

	_, err = tmdb.GetMeta(ctx, "tt1375666", "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "second lookup served from memory")
}

func TestTMDBErrors(t *testing.T) {
	var hits int32
	srv := newTMDBServer(t, &hits)
	ctx := context.Background()

	_, err := newTestTMDB(t, srv.URL, nil).GetMeta(ctx, "tt0000000", "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTMDBFailure))

	_, err = newTestTMDB(t, srv.URL, nil).GetMeta(ctx, "kitsu:1", "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidID))

	noKey := NewTMDB(TMDBOptions{BaseURL: srv.URL, Client: http.DefaultClient})
	_, err = noKey.GetMeta(ctx, "tt1375666", "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAPIKeyMissing))

	meta, err := noKey.GetMeta(ctx, "tt1375666", "test-key")
	require.NoError(t, err)
	assert.Equal(t, "Inception", meta.Name)
}

func TestTMDBCollection(t *testing.T) {
	var hits int32
	srv := newTMDBServer(t, &hits)

	meta, err := newTestTMDB(t, srv.URL, nil).GetMeta(context.Background(), "tmdbcollection:2344", "")
	require.NoError(t, err)

	assert.True(t, meta.Collection)
	assert.Equal(t, "The Matrix Collection", meta.Name)
	require.Len(t, meta.Videos, 3)
	assert.Equal(t, models.Video{ID: "tmdb:603", Title: "The Matrix", Year: 1999, Season: 1, Episode: 1}, meta.Videos[0])
	assert.Equal(t, "The Matrix Reloaded", meta.Videos[1].Title)
	assert.Equal(t, 2, meta.Videos[1].Episode)
	assert.Equal(t, "Untitled Matrix", meta.Videos[2].Title)
}

func TestTMDBPersistsToDatabase(t *testing.T) {
	db, err := database.NewBolt(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	var hits int32
	srv := newTMDBServer(t, &hits)

	_, err = newTestTMDB(t, srv.URL, db).GetMeta(context.Background(), "tt1375666", "")
	require.NoError(t, err)

	// a fresh resolver has an empty memory cache but finds the stored entry
	meta, err := newTestTMDB(t, srv.URL, db).GetMeta(context.Background(), "tt1375666", "")
	require.NoError(t, err)
	assert.Equal(t, "Inception", meta.Name)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
