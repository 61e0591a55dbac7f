// Package shardedapi is the thin, strongly-typed façade spec.md §4.G
// describes: one method per (result-shape × parameter-binding) variant,
// each choosing the right mapper.Mapper from package mapper and forwarding
// to package shardset for the actual fan-out. Callers of this package never
// touch dbparams, connection or shardset directly for the common cases.
package shardedapi

import (
	"fmt"
	"reflect"

	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/mapper"
	"github.com/shardkit/shardkit/shardkey"
	"github.com/shardkit/shardkit/shardset"
)

// API binds a shard map to the ambient parameter convention every façade
// method shares: which ordinal in the caller's base dbparams.Collection
// carries the shard id the fan-out engine rewrites per dispatch.
type API struct {
	sm             *shardset.ShardMap
	shardIDOrdinal int
}

// New binds sm to the ambient shard-id parameter ordinal every façade call
// against it will use.
func New(sm *shardset.ShardMap, shardIDOrdinal int) *API {
	return &API{sm: sm, shardIDOrdinal: shardIDOrdinal}
}

// ShardMap exposes the bound shard map, e.g. for single-shard bypass
// callers that need to look an instance up directly.
func (a *API) ShardMap() *shardset.ShardMap { return a.sm }

func mapperFor[T any]() (*mapper.Mapper, error) {
	var zero T
	typ := reflect.TypeOf(zero)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return mapper.For(typ)
}

// shardIDOf reads the shard id back out of a dispatched collection at
// ordinal, the same slot shardset.dispatch just rewrote for this task.
func shardIDOf(params *dbparams.Collection, ordinal int) (shardkey.ID, error) {
	p, ok := params.At(ordinal)
	if !ok {
		return 0, fmt.Errorf("shardedapi: shard-id ordinal %d not present in parameter collection", ordinal)
	}
	id, ok := p.Value.(uint16)
	if !ok {
		return 0, fmt.Errorf("shardedapi: shard-id ordinal %d holds %T, not uint16", ordinal, p.Value)
	}
	return shardkey.ID(id), nil
}

func shardInstanceNotFound(shardID shardkey.ID) error {
	return fmt.Errorf("shardedapi: shard %d not present in shard map", shardID)
}
