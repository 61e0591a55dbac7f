package adminapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/shardkit/shardkit/shardkey"
	"github.com/shardkit/shardkit/shardset"
)

// BreakerStateReader reports a shard's current circuit breaker state.
// *shardset.ShardMap satisfies it by asking the shard's write-side
// connection.Manager for its breaker policy's state (see cmd/router).
type BreakerStateReader interface {
	BreakerState(shardID shardkey.ID) (state string, ok bool)
}

// Handler serves the admin surface's read-only endpoints over a ShardMap.
type Handler struct {
	shardMap *shardset.ShardMap
	breakers BreakerStateReader
}

// NewHandler builds a Handler. breakers may be nil, in which case the
// breaker-state endpoint reports "unknown" for every shard.
func NewHandler(shardMap *shardset.ShardMap, breakers BreakerStateReader) *Handler {
	return &Handler{shardMap: shardMap, breakers: breakers}
}

// RegisterRoutes wires every endpoint this handler serves onto r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/v1/shards", h.ListShards).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/v1/shards/{shardID}/breaker", h.BreakerState).Methods(http.MethodGet, http.MethodOptions)
}

// Healthz reports liveness.
// @Summary Liveness check
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type shardInfo struct {
	ShardID shardkey.ID `json:"shard_id"`
}

// ListShards lists every shard id known to the bound ShardMap.
// @Summary List shards
// @Produce json
// @Success 200 {array} shardInfo
// @Router /api/v1/shards [get]
func (h *Handler) ListShards(w http.ResponseWriter, r *http.Request) {
	instances := h.shardMap.All()
	out := make([]shardInfo, 0, len(instances))
	for _, inst := range instances {
		out = append(out, shardInfo{ShardID: inst.ID})
	}
	writeJSON(w, http.StatusOK, out)
}

type breakerStatus struct {
	ShardID shardkey.ID `json:"shard_id"`
	State   string      `json:"state"`
}

// BreakerState reports one shard's circuit breaker state.
// @Summary Get a shard's circuit breaker state
// @Produce json
// @Param shardID path int true "Shard ID"
// @Success 200 {object} breakerStatus
// @Failure 404 {object} errorBody
// @Router /api/v1/shards/{shardID}/breaker [get]
func (h *Handler) BreakerState(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["shardID"], 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "shardID must be numeric")
		return
	}
	shardID := shardkey.ID(id)

	if _, ok := h.shardMap.Get(shardID); !ok {
		writeError(w, http.StatusNotFound, "unknown shard")
		return
	}

	state := "unknown"
	if h.breakers != nil {
		if s, ok := h.breakers.BreakerState(shardID); ok {
			state = s
		}
	}
	writeJSON(w, http.StatusOK, breakerStatus{ShardID: shardID, State: state})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
