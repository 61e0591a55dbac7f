package shardedapi

import (
	"context"
	"database/sql"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
	"github.com/shardkit/shardkit/shardset"
)

// Populate bridges a command's driver-level sql.Result back into the named
// output parameters a mapper.Mapper reserved, since database/sql has no
// portable named-OUT-parameter concept for postgres/mysql (see package
// connection's argsFromParams). A typical populate sets a generated id:
//
//	func(result sql.Result, params *dbparams.Collection) error {
//	    id, err := result.LastInsertId()
//	    if err != nil { return err }
//	    return params.SetValueAt(idOrdinal, id)
//	}
type Populate func(result sql.Result, params *dbparams.Collection) error

// MapOutput runs query (a command, not a row-returning query) against every
// target shard's write connection. It reserves one output placeholder per
// Out's bound field, runs the command, lets populate bridge the driver
// result into those placeholders, then assembles an Out from them. A query
// whose results come back as rows should use MapReader/MapReaderFirst
// instead.
func MapOutput[Out any](ctx context.Context, a *API, base *dbparams.Collection, shardsValues map[shardkey.ID]*dbparams.Collection, query string, populate Populate) ([]Out, error) {
	m, err := mapperFor[Out]()
	if err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, mgr *connection.Manager, params *dbparams.Collection) (*Out, error) {
		if err := m.OutParams(params); err != nil {
			return nil, err
		}
		result, err := connection.Exec(ctx, mgr, query, params, false)
		if err != nil {
			return nil, err
		}
		if populate != nil {
			if err := populate(result, params); err != nil {
				return nil, err
			}
		}
		shardID, err := shardIDOf(params, a.shardIDOrdinal)
		if err != nil {
			return nil, err
		}
		model, err := m.ReadOut(params, shardID)
		if err != nil {
			return nil, err
		}
		return model.(*Out), nil
	}

	return shardset.Write[Out](ctx, a.sm, base, shardsValues, a.shardIDOrdinal, handler)
}

// MapOutputSingleShard is MapOutput's single-shard bypass: it runs directly
// against shardID's write connection with no fan-out involved.
func MapOutputSingleShard[Out any](ctx context.Context, a *API, shardID shardkey.ID, params *dbparams.Collection, query string, populate Populate) (*Out, error) {
	inst, ok := a.sm.Get(shardID)
	if !ok {
		return nil, shardInstanceNotFound(shardID)
	}
	if err := params.SetShardID(a.shardIDOrdinal, shardID); err != nil {
		return nil, err
	}
	m, err := mapperFor[Out]()
	if err != nil {
		return nil, err
	}
	if err := m.OutParams(params); err != nil {
		return nil, err
	}
	result, err := connection.Exec(ctx, inst.Write, query, params, false)
	if err != nil {
		return nil, err
	}
	if populate != nil {
		if err := populate(result, params); err != nil {
			return nil, err
		}
	}
	model, err := m.ReadOut(params, shardID)
	if err != nil {
		return nil, err
	}
	return model.(*Out), nil
}
