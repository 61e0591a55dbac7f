package shardedapi

import (
	"context"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
	"github.com/shardkit/shardkit/shardset"
)

// MapList runs query against every target shard and flattens the single
// scalar column each shard returns into one slice — the unstamped sibling
// of shardset.ReadKeyList, for callers that don't need each value tied back
// to its producing shard.
func MapList[V any](ctx context.Context, a *API, base *dbparams.Collection, shardsValues map[shardkey.ID]*dbparams.Collection, query string) ([]V, error) {
	handler := func(ctx context.Context, mgr *connection.Manager, params *dbparams.Collection) (*[]V, error) {
		vals, err := connection.List[V](ctx, mgr, query, params, true)
		if err != nil {
			return nil, err
		}
		return &vals, nil
	}

	perShard, err := shardset.ReadAll[[]V](ctx, a.sm, base, shardsValues, a.shardIDOrdinal, handler)
	if err != nil {
		return nil, err
	}
	var out []V
	for _, vs := range perShard {
		out = append(out, vs...)
	}
	return out, nil
}

// MapListSingleShard bypasses the fan-out engine and lists a single scalar
// column directly from shardID's read connection.
func MapListSingleShard[V any](ctx context.Context, a *API, shardID shardkey.ID, params *dbparams.Collection, query string) ([]V, error) {
	inst, ok := a.sm.Get(shardID)
	if !ok {
		return nil, shardInstanceNotFound(shardID)
	}
	if err := params.SetShardID(a.shardIDOrdinal, shardID); err != nil {
		return nil, err
	}
	return connection.List[V](ctx, inst.Read, query, params, true)
}
