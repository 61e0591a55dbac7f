package shardedapi

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/mapper"
	"github.com/shardkit/shardkit/shardkey"
)

// ResultSetDecoder decodes one positional result set of a multi-result-set
// command into row values for mapper.ModelFromResults. Each returned
// element's concrete type is whatever row type that result set maps onto,
// so ModelFromResults can match it against a root model's slice fields by
// element type.
type ResultSetDecoder func(rows *sql.Rows) ([]any, error)

// DecodeResultSet adapts MapReader's per-type row decoding into a
// ResultSetDecoder: the common case where every row of one result set
// decodes through T's own cached mapper, the same way MapReader does for a
// single-result-set query.
func DecodeResultSet[T any](shardID shardkey.ID) ResultSetDecoder {
	return func(rows *sql.Rows) ([]any, error) {
		m, err := mapperFor[T]()
		if err != nil {
			return nil, err
		}
		rowsT, err := decodeRows[T](rows, m, shardID)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(rowsT))
		for i := range rowsT {
			out[i] = rowsT[i]
		}
		return out, nil
	}
}

// MultiPopulate bridges driver-specific output-parameter values into the
// placeholders an out-parameter mapper reserved, after every result set of
// a multi-result-set command has been read — database/sql has no portable
// named-OUT-parameter concept, the same gap Populate bridges for MapOutput.
type MultiPopulate func(rows *sql.Rows, params *dbparams.Collection) error

// MapMulti runs query (a stored-procedure-shaped command returning up to
// mapper.MaxResultSets result sets) against shardID's read connection,
// decodes each result set with the matching entry in decoders (a nil entry
// means that result set is absent for this call), bridges any output
// parameters populate supplies into the placeholders reserved for
// outParamType, and assembles a single Out via spec.md §4.D's
// ModelFromResults composition: every []RowType field of Out is filled from
// the row-list whose element type matches RowType, every scalar field
// whose type matches outParamType or a row-list element type is filled from
// out-params or a lone row. outParamType may be nil when the call has no
// output parameters.
//
// This is the single-shard, stored-procedure-shaped counterpart to
// MapReader/MapOutput — a multi-result-set command inherently targets one
// physical call, so there is no fan-out variant.
func MapMulti[Out any](ctx context.Context, a *API, shardID shardkey.ID, params *dbparams.Collection, procedure, query string, outParamType reflect.Type, decoders []ResultSetDecoder, populate MultiPopulate) (*Out, mapper.RecordSetFlags, error) {
	inst, ok := a.sm.Get(shardID)
	if !ok {
		return nil, 0, shardInstanceNotFound(shardID)
	}
	if err := params.SetShardID(a.shardIDOrdinal, shardID); err != nil {
		return nil, 0, err
	}

	var outMapper *mapper.Mapper
	if outParamType != nil {
		m, err := mapper.For(outParamType)
		if err != nil {
			return nil, 0, err
		}
		if err := m.OutParams(params); err != nil {
			return nil, 0, err
		}
		outMapper = m
	}

	var rowSets [mapper.MaxResultSets][]any
	_, err := connection.Query(ctx, inst.Read, query, params, true, func(rows *sql.Rows) (struct{}, error) {
		for i := 0; i < len(decoders) && i < mapper.MaxResultSets; i++ {
			if i > 0 && !rows.NextResultSet() {
				break
			}
			if decoders[i] == nil {
				continue
			}
			rs, err := decoders[i](rows)
			if err != nil {
				return struct{}{}, err
			}
			rowSets[i] = rs
		}
		if populate != nil {
			if err := populate(rows, params); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	var outModel any
	if outMapper != nil {
		om, err := outMapper.ReadOut(params, shardID)
		if err != nil {
			return nil, 0, err
		}
		outModel = om
	}

	root, flags, err := mapper.ModelFromResults(rootTypeOf[Out](), rowSets, outModel, procedure)
	if err != nil {
		return nil, flags, err
	}
	return root.(*Out), flags, nil
}

func rootTypeOf[T any]() reflect.Type {
	var zero T
	typ := reflect.TypeOf(zero)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}
