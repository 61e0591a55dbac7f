package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/shardkit/shardkit/shardkey"
	"github.com/shardkit/shardkit/shardset"
)

type stubBreakers struct {
	states map[shardkey.ID]string
}

func (s stubBreakers) BreakerState(id shardkey.ID) (string, bool) {
	state, ok := s.states[id]
	return state, ok
}

func newTestRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestHealthzReportsOK(t *testing.T) {
	sm := shardset.NewShardMap()
	handler := NewHandler(sm, nil)
	r := newTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestListShardsReturnsEveryShard(t *testing.T) {
	sm := shardset.NewShardMap(
		&shardset.ShardInstance{ID: 1},
		&shardset.ShardInstance{ID: 2},
	)
	handler := NewHandler(sm, nil)
	r := newTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shards", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out []shardInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 2)
}

func TestBreakerStateReturnsKnownState(t *testing.T) {
	sm := shardset.NewShardMap(&shardset.ShardInstance{ID: 1})
	handler := NewHandler(sm, stubBreakers{states: map[shardkey.ID]string{1: "open"}})
	r := newTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shards/1/breaker", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out breakerStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "open", out.State)
}

func TestBreakerStateUnknownShardIs404(t *testing.T) {
	sm := shardset.NewShardMap(&shardset.ShardInstance{ID: 1})
	handler := NewHandler(sm, nil)
	r := newTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shards/99/breaker", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBreakerStateNoReaderReportsUnknown(t *testing.T) {
	sm := shardset.NewShardMap(&shardset.ShardInstance{ID: 1})
	handler := NewHandler(sm, nil)
	r := newTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shards/1/breaker", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out breakerStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "unknown", out.State)
}
