package shardset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/shardkey"
)

func TestBreakerStateUnknownShard(t *testing.T) {
	sm := NewShardMap(&ShardInstance{ID: 1})
	_, ok := sm.BreakerState(99)
	require.False(t, ok)
}

func TestBreakerStateNoWriteManager(t *testing.T) {
	sm := NewShardMap(&ShardInstance{ID: 1})
	_, ok := sm.BreakerState(1)
	require.False(t, ok)
}

func TestDefaultIDUnsetByDefault(t *testing.T) {
	sm := NewShardMap(&ShardInstance{ID: 1})
	_, ok := sm.DefaultID()
	require.False(t, ok)
}

func TestDefaultIDReportsWhatWasSet(t *testing.T) {
	sm := NewShardMap(&ShardInstance{ID: 1}, &ShardInstance{ID: 2})
	sm.SetDefaultID(shardkey.ID(2))

	id, ok := sm.DefaultID()
	require.True(t, ok)
	require.Equal(t, shardkey.ID(2), id)
}

func TestBreakerStateDelegatesToWriteManager(t *testing.T) {
	breaker := connection.NewBreakerPolicy(connection.BreakerConfig{Name: "test"}, nil)
	mgr := connection.NewWithDB(nil, connection.NoopPolicy{}, breaker)
	sm := NewShardMap(&ShardInstance{ID: 1, Write: mgr})

	state, ok := sm.BreakerState(shardkey.ID(1))
	require.True(t, ok)
	require.Equal(t, "closed", state)
}
