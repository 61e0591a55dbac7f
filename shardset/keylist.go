package shardset

import (
	"context"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
)

// ReadKeyList is a specialized ReadAll that lifts a single scalar column
// into shardkey.Key1 values, stamping each with the shard that produced it
// — the fan-out engine's means of returning identity values that reference
// specific shards, per spec.md §4.F.
func ReadKeyList[R shardkey.Component](
	ctx context.Context,
	sm *ShardMap,
	base *dbparams.Collection,
	shardsValues map[shardkey.ID]*dbparams.Collection,
	shardIDOrdinal int,
	origin byte,
	query string,
) ([]shardkey.Key1[R], error) {
	handler := func(ctx context.Context, mgr *connection.Manager, params *dbparams.Collection) (*[]R, error) {
		vals, err := connection.List[R](ctx, mgr, query, params, true)
		if err != nil {
			return nil, err
		}
		return &vals, nil
	}

	tagged, err := ReadAllTagged(ctx, sm, base, shardsValues, shardIDOrdinal, handler)
	if err != nil {
		return nil, err
	}

	var out []shardkey.Key1[R]
	for _, t := range tagged {
		for _, v := range t.Value {
			key, err := shardkey.New1[R](origin, t.ShardID, v)
			if err != nil {
				return nil, err
			}
			out = append(out, key)
		}
	}
	return out, nil
}
