// Package shardmetrics exposes Prometheus metrics for fan-out dispatch and
// per-shard connection behavior: query counts and latency by shard and
// outcome, breaker state transitions, and ReadFirst win counts.
package shardmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric this module emits, registered against a
// caller-supplied prometheus.Registerer so embedding applications can
// choose whether to share the default global registry or keep their own.
type Registry struct {
	queryTotal    *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	fanOutTotal   *prometheus.CounterVec
	fanOutShards  *prometheus.HistogramVec
	readFirstWin  *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
}

// New builds a Registry and registers every metric with reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		queryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkit_shard_queries_total",
				Help: "Total number of queries executed against a shard, by outcome.",
			},
			[]string{"shard_id", "operation", "status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shardkit_shard_query_duration_seconds",
				Help:    "Per-shard query duration in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"shard_id", "operation"},
		),
		fanOutTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkit_fanout_total",
				Help: "Total number of fan-out operations, by outcome.",
			},
			[]string{"operation", "status"},
		),
		fanOutShards: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shardkit_fanout_shard_count",
				Help:    "Number of shards targeted per fan-out operation.",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
			},
			[]string{"operation"},
		),
		readFirstWin: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardkit_readfirst_wins_total",
				Help: "Which shard produced the winning result for a ReadFirst call.",
			},
			[]string{"shard_id"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shardkit_breaker_state",
				Help: "Circuit breaker state per shard (0=closed, 1=half-open, 2=open).",
			},
			[]string{"shard_id"},
		),
	}

	reg.MustRegister(
		r.queryTotal,
		r.queryDuration,
		r.fanOutTotal,
		r.fanOutShards,
		r.readFirstWin,
		r.breakerState,
	)
	return r
}

// ObserveQuery records one per-shard query's outcome and duration.
func (r *Registry) ObserveQuery(shardID, operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.queryTotal.WithLabelValues(shardID, operation, status).Inc()
	r.queryDuration.WithLabelValues(shardID, operation).Observe(duration.Seconds())
}

// ObserveFanOut records one fan-out call's outcome and target-shard count.
func (r *Registry) ObserveFanOut(operation string, err error, shardCount int) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.fanOutTotal.WithLabelValues(operation, status).Inc()
	r.fanOutShards.WithLabelValues(operation).Observe(float64(shardCount))
}

// ObserveReadFirstWin records which shard's response won a ReadFirst race.
func (r *Registry) ObserveReadFirstWin(shardID string) {
	r.readFirstWin.WithLabelValues(shardID).Inc()
}

// BreakerState mirrors gobreaker.State's ordering (closed=0, half-open=1,
// open=2) so callers can pass gobreaker.CircuitBreaker.State() directly.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

// SetBreakerState records a shard's current circuit breaker state.
func (r *Registry) SetBreakerState(shardID string, state BreakerState) {
	r.breakerState.WithLabelValues(shardID).Set(float64(state))
}
