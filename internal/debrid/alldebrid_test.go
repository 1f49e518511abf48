package debrid

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/streamhub/pkg/logger"
)

func newAllDebridServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/magnet/instant", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test-key-0123456789", r.Form.Get("apikey"))
		assert.Equal(t, []string{"aaa", "bbb"}, r.Form["magnets[]"])
		fmt.Fprint(w, `{"status":"success","data":{"magnets":[
			{"hash":"AAA","instant":true,"files":[{"n":"Movie.mkv","s":1000}]},
			{"hash":"bbb","instant":false}
		]}}`)
	})
	mux.HandleFunc("/magnet/upload", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"magnets":[{"id":77,"hash":"aaa","ready":true}]}}`)
	})
	mux.HandleFunc("/magnet/status", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "77", r.URL.Query().Get("id"))
		fmt.Fprint(w, `{"status":"success","data":{"magnets":{"id":77,"statusCode":4,"links":[
			{"link":"https://alldebrid.com/f/1","filename":"Movie.mkv","size":1000}
		]}}}`)
	})
	mux.HandleFunc("/link/unlock", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://alldebrid.com/f/1", r.URL.Query().Get("link"))
		fmt.Fprint(w, `{"status":"success","data":{"link":"https://cdn.alldebrid.com/Movie.mkv"}}`)
	})
	mux.HandleFunc("/magnet/delete", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","error":{"code":"MAGNET_INVALID_ID","message":"bad id"}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAllDebrid(t *testing.T) {
	srv := newAllDebridServer(t)
	ad := NewAllDebrid("test-key-0123456789", Options{BaseURL: srv.URL, Client: srv.Client(), Logger: logger.NewNop()})
	ctx := context.Background()

	assert.Equal(t, "alldebrid", ad.Name())
	assert.Equal(t, 40, ad.BatchSize())

	statuses, err := ad.CheckCache(ctx, []string{"aaa", "bbb"})
	require.NoError(t, err)
	assert.True(t, statuses["aaa"].Cached)
	require.Len(t, statuses["aaa"].Variants, 1)
	assert.Equal(t, "Movie.mkv", statuses["aaa"].Variants[0].Filename)
	assert.False(t, statuses["bbb"].Cached)

	id, err := ad.AddMagnet(ctx, "aaa")
	require.NoError(t, err)
	assert.Equal(t, "77", id)

	links, err := ad.Links(ctx, id)
	require.NoError(t, err)
	require.Len(t, links, 1)

	url, err := ad.UnrestrictLink(ctx, links[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.alldebrid.com/Movie.mkv", url)

	err = ad.DeleteMagnet(ctx, "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAGNET_INVALID_ID")
}

func TestAllDebridNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"magnets":{"id":1,"statusCode":1}}}`)
	}))
	defer srv.Close()

	ad := NewAllDebrid("k", Options{BaseURL: srv.URL, Client: srv.Client()})
	_, err := ad.Links(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotReady)
}
