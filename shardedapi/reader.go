package shardedapi

import (
	"context"
	"database/sql"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
	"github.com/shardkit/shardkit/shardset"
)

// MapReader runs query against every target shard (shardsValues nil means
// every shard in a's shard map), decoding every returned row into a T via
// T's cached mapper, and flattens the per-shard result sets into one slice.
// Row order within a shard is preserved; order across shards is not.
func MapReader[T any](ctx context.Context, a *API, base *dbparams.Collection, shardsValues map[shardkey.ID]*dbparams.Collection, query string) ([]T, error) {
	m, err := mapperFor[T]()
	if err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, mgr *connection.Manager, params *dbparams.Collection) (*[]T, error) {
		shardID, err := shardIDOf(params, a.shardIDOrdinal)
		if err != nil {
			return nil, err
		}
		rows, err := connection.Query(ctx, mgr, query, params, true, func(rows *sql.Rows) ([]T, error) {
			return decodeRows[T](rows, m, shardID)
		})
		if err != nil {
			return nil, err
		}
		return &rows, nil
	}

	perShard, err := shardset.ReadAll[[]T](ctx, a.sm, base, shardsValues, a.shardIDOrdinal, handler)
	if err != nil {
		return nil, err
	}
	var out []T
	for _, rs := range perShard {
		out = append(out, rs...)
	}
	return out, nil
}

// MapReaderFirst runs query against every target shard and returns the
// first row decoded from the first shard to answer, cancelling the rest —
// for queries expected to resolve to at most one row across the whole
// shard set (e.g. a lookup by a globally unique alternate key).
func MapReaderFirst[T any](ctx context.Context, a *API, base *dbparams.Collection, shardsValues map[shardkey.ID]*dbparams.Collection, query string) (*T, error) {
	m, err := mapperFor[T]()
	if err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, mgr *connection.Manager, params *dbparams.Collection) (*T, error) {
		shardID, err := shardIDOf(params, a.shardIDOrdinal)
		if err != nil {
			return nil, err
		}
		return connection.Query(ctx, mgr, query, params, true, func(rows *sql.Rows) (*T, error) {
			return decodeFirstRow[T](rows, m, shardID)
		})
	}

	return shardset.ReadFirst[T](ctx, a.sm, base, shardsValues, a.shardIDOrdinal, handler)
}

// MapReaderSingleShard bypasses the fan-out engine entirely and targets
// shardID's read connection directly, per spec.md §4.G's single-shard
// bypass variants. params is used as-is (not cloned) since only one task
// ever touches it.
func MapReaderSingleShard[T any](ctx context.Context, a *API, shardID shardkey.ID, params *dbparams.Collection, query string) ([]T, error) {
	inst, ok := a.sm.Get(shardID)
	if !ok {
		return nil, shardInstanceNotFound(shardID)
	}
	if err := params.SetShardID(a.shardIDOrdinal, shardID); err != nil {
		return nil, err
	}
	m, err := mapperFor[T]()
	if err != nil {
		return nil, err
	}
	return connection.Query(ctx, inst.Read, query, params, true, func(rows *sql.Rows) ([]T, error) {
		return decodeRows[T](rows, m, shardID)
	})
}
