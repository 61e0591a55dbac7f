package shardedapi

import (
	"context"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
	"github.com/shardkit/shardkit/shardset"
)

// Query is the raw escape hatch: it forwards handler straight to the
// fan-out engine, shard-tagged, for result shapes MapReader/MapOutput/
// MapList don't cover. Most callers should prefer those typed variants;
// Query exists for the rare query whose result doesn't map onto one model.
func Query[T any](ctx context.Context, a *API, base *dbparams.Collection, shardsValues map[shardkey.ID]*dbparams.Collection, handler shardset.Handler[T]) ([]shardset.Tagged[T], error) {
	return shardset.ReadAllTagged(ctx, a.sm, base, shardsValues, a.shardIDOrdinal, handler)
}

// Batch runs a caller-built sequence of statements against every target
// shard's write connection (or every shard in a's map when targetIDs is
// nil), surfacing unit on success per spec.md §4.G's Write/Batch contract.
func Batch(ctx context.Context, a *API, targetIDs []shardkey.ID, build func(shardkey.ID) []connection.Statement) error {
	return shardset.BatchFanOut(ctx, a.sm, targetIDs, build)
}
