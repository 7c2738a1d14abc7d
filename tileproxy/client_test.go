package tileproxy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embarkmaps/regiond/tileproxy"
)

func TestFetchTile(t *testing.T) {
	var gotPath, gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/vnd.mapbox-vector-tile")
		w.Write([]byte("tile-bytes"))
	}))
	defer upstream.Close()

	c := tileproxy.New(upstream.URL+"/", "secret-key")
	tile, err := c.FetchTile(context.Background(), 12, 3417, 1539)
	require.NoError(t, err)
	assert.Equal(t, []byte("tile-bytes"), tile.Data)
	assert.Equal(t, "application/vnd.mapbox-vector-tile", tile.ContentType)
	assert.Equal(t, "/12/3417/1539", gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestFetchTileRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	c := tileproxy.New(upstream.URL, "k")
	tile, err := c.FetchTile(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), tile.Data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchTileNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	c := tileproxy.New(upstream.URL, "k")
	_, err := c.FetchTile(context.Background(), 1, 0, 0)
	assert.ErrorIs(t, err, tileproxy.ErrUpstreamRejected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchTileUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	c := tileproxy.New(upstream.URL, "k")
	_, err := c.FetchTile(context.Background(), 1, 0, 0)
	assert.ErrorIs(t, err, tileproxy.ErrUpstreamUnavailable)
}

func TestFetchTileContextCancel(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := tileproxy.New(upstream.URL, "k")
	start := time.Now()
	_, err := c.FetchTile(ctx, 1, 0, 0)
	assert.Error(t, err)
	// A canceled context must not sit out the retry backoff.
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}
