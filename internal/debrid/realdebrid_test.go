package debrid

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealDebrid(t *testing.T) {
	var deleted bool
	mux := http.NewServeMux()
	mux.HandleFunc("/torrents/instantAvailability/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "/torrents/instantAvailability/aaa/bbb", r.URL.Path)
		fmt.Fprint(w, `{"AAA":{"rd":[{"2":{"filename":"b.mkv","filesize":20},"1":{"filename":"a.mkv","filesize":10}}]},"bbb":[]}`)
	})
	mux.HandleFunc("/torrents/addMagnet", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "magnet:?xt=urn:btih:aaa", r.Form.Get("magnet"))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"T1","uri":"x"}`)
	})
	mux.HandleFunc("/torrents/selectFiles/T1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/torrents/info/T1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"T1","status":"downloaded","files":[
			{"id":1,"path":"/a.mkv","bytes":10,"selected":1},
			{"id":2,"path":"/b.nfo","bytes":1,"selected":0},
			{"id":3,"path":"/c.mkv","bytes":30,"selected":1}
		],"links":["https://rd/l1","https://rd/l3"]}`)
	})
	mux.HandleFunc("/unrestrict/link", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"download":"https://download.rd/c.mkv"}`)
	})
	mux.HandleFunc("/torrents/delete/T1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rd := NewRealDebrid("token", Options{BaseURL: srv.URL, Client: srv.Client()})
	ctx := context.Background()

	statuses, err := rd.CheckCache(ctx, []string{"aaa", "bbb"})
	require.NoError(t, err)
	require.Contains(t, statuses, "aaa")
	assert.True(t, statuses["aaa"].Cached)
	require.Len(t, statuses["aaa"].Variants, 2)
	assert.Equal(t, 0, statuses["aaa"].Variants[0].FileIndex)
	assert.NotContains(t, statuses, "bbb")

	id, err := rd.AddMagnet(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, "T1", id)

	links, err := rd.Links(ctx, id)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, 2, links[1].FileIndex)
	assert.Equal(t, "https://rd/l3", links[1].URL)
	assert.Equal(t, "c.mkv", links[1].Filename)

	url, err := rd.UnrestrictLink(ctx, links[1].URL)
	require.NoError(t, err)
	assert.Equal(t, "https://download.rd/c.mkv", url)

	require.NoError(t, rd.DeleteMagnet(ctx, id))
	assert.True(t, deleted)
}
