package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	err := GetJSON(context.Background(), NewHTTPClient(time.Second), srv.URL, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), NewHTTPClient(time.Second), srv.URL, nil, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPostFormSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, []string{"a", "b"}, r.PostForm["magnets[]"])
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	form := url.Values{}
	form.Add("magnets[]", "a")
	form.Add("magnets[]", "b")

	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, PostForm(context.Background(), NewDefaultHTTPClient(), srv.URL, nil, form, &out))
	assert.Equal(t, "success", out.Status)
}
