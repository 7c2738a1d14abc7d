package regiond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainingRejectsNewRequests(t *testing.T) {
	srv := New(Config{})
	srv.draining.Store(true)
	engine := srv.buildEngine()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Service Unavailable", body["error"])
	assert.Equal(t, "server is draining", body["message"])
	assert.Equal(t, int64(0), srv.ActiveRequests())
}

func TestRouteWithoutRegion(t *testing.T) {
	srv := New(Config{})
	engine := srv.buildEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/route", strings.NewReader("{}"))
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestKind(t *testing.T) {
	assert.Equal(t, "route", requestKind("/api/v1/route"))
	assert.Equal(t, "tile", requestKind("/api/v1/tiles/:z/:x/:y"))
	assert.Equal(t, "health", requestKind("/api/v1/health"))
	assert.Equal(t, "other", requestKind(""))
}

func TestConfigRedactsCredential(t *testing.T) {
	c := Config{RegionPath: "r.rgn", TileCredential: "sk-very-secret"}
	assert.NotContains(t, c.String(), "sk-very-secret")
	assert.Contains(t, c.String(), "<redacted>")
	assert.Contains(t, Config{}.String(), "<none>")
}
