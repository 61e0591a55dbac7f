// Package shardset implements the shard-set fan-out engine (spec.md §4.F):
// ReadAll, ReadFirst, Write and Batch, each spawning one task per target
// shard over a connection.Manager and aggregating results per the rules
// spec.md §5 and §7 describe.
package shardset

import (
	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/shardkey"
)

// ShardInstance pairs a shard id with the read and write connection
// managers that serve it. Read and Write are often the same physical
// database, but a read replica policy may point Read at a different pool.
type ShardInstance struct {
	ID    shardkey.ID
	Read  *connection.Manager
	Write *connection.Manager
}

// FanOutObserver receives per-call outcome notifications from ReadAll,
// ReadFirst and Write. Kept as a minimal interface, not an import of a
// specific metrics library, so shardset has no dependency on how (or
// whether) a caller observes it.
type FanOutObserver interface {
	ObserveFanOut(operation string, err error, shardCount int)
	ObserveReadFirstWin(shardID string)
}

// ShardMap is the immutable set of shards a fan-out call may target.
// Built once at startup and shared freely across goroutines — spec.md §5
// calls this out explicitly as requiring no further synchronization.
// SetObserver is the one exception: call it, if at all, before the ShardMap
// is handed to any concurrent fan-out call, the same way *sql.DB's pool
// settings are meant to be configured right after Open.
type ShardMap struct {
	shards map[shardkey.ID]*ShardInstance
	order  []shardkey.ID

	observer FanOutObserver

	defaultID    shardkey.ID
	hasDefaultID bool
}

// SetObserver attaches obs, observed by every subsequent ReadAll/ReadFirst/
// Write call against sm.
func (sm *ShardMap) SetObserver(obs FanOutObserver) {
	sm.observer = obs
}

// SetDefaultID records the shard id an unsharded write targets (spec.md
// §3's "default shard id for unsharded writes"), carried here from
// shardconfig.ResolvedShard.DefaultShardId by whatever builds sm from a
// resolved shard set.
func (sm *ShardMap) SetDefaultID(id shardkey.ID) {
	sm.defaultID = id
	sm.hasDefaultID = true
}

// DefaultID returns the shard id SetDefaultID last recorded. ok is false if
// it was never called — callers doing unsharded writes against a ShardMap
// built without a configured default shard id should treat that as a
// configuration error rather than silently targeting shard 0.
func (sm *ShardMap) DefaultID() (id shardkey.ID, ok bool) {
	return sm.defaultID, sm.hasDefaultID
}

// NewShardMap builds a ShardMap from instances. Later instances with a
// duplicate ID overwrite earlier ones.
func NewShardMap(instances ...*ShardInstance) *ShardMap {
	sm := &ShardMap{shards: make(map[shardkey.ID]*ShardInstance, len(instances))}
	for _, inst := range instances {
		if _, exists := sm.shards[inst.ID]; !exists {
			sm.order = append(sm.order, inst.ID)
		}
		sm.shards[inst.ID] = inst
	}
	return sm
}

// Get returns the shard instance for id, if present.
func (sm *ShardMap) Get(id shardkey.ID) (*ShardInstance, bool) {
	inst, ok := sm.shards[id]
	return inst, ok
}

// All returns every shard instance, in the order first added.
func (sm *ShardMap) All() []*ShardInstance {
	out := make([]*ShardInstance, 0, len(sm.order))
	for _, id := range sm.order {
		out = append(out, sm.shards[id])
	}
	return out
}

// Len returns the number of shards in the map.
func (sm *ShardMap) Len() int { return len(sm.shards) }

// BreakerState reports the named shard's write-side circuit breaker state.
// ok is false when the shard id is unknown or its connection manager's
// policy carries no breaker. This makes ShardMap itself satisfy the admin
// surface's BreakerStateReader with no adapter type needed.
func (sm *ShardMap) BreakerState(id shardkey.ID) (state string, ok bool) {
	inst, found := sm.shards[id]
	if !found || inst.Write == nil {
		return "", false
	}
	return inst.Write.BreakerState()
}
