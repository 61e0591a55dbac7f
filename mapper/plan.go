// Package mapper is the code-gen mapper cache (spec.md §4.D): given a model
// type, it walks the type's mapping attributes once and caches four
// reflection-driven functions — write input parameters, reserve output
// parameters, read a model back out of output parameters, and decode a
// model out of a result-set row — so every later call for that type pays
// only the cost of running those functions, never the cost of
// re-discovering them.
//
// A true compile-time port would monomorphize a distinct function per model
// type; this package's plan is the closest idiomatic Go equivalent of that:
// a one-time-built, per-type interpreter table that the four public
// functions below replay.
package mapper

import (
	"reflect"

	"github.com/shardkit/shardkit/apperrors"
	"github.com/shardkit/shardkit/mapping"
)

// scalarOp binds one ordinary field to a parameter/column pair.
type scalarOp struct {
	fieldIndex int
	param      string
	column     string
	dbType     string
	required   bool
}

// keyOp binds one shardkey.KeyN field to its composite-key roles.
type keyOp struct {
	fieldIndex int
	arity      int
	origin     byte
	shardParam string
	roles      []mapping.RoleBinding
}

// nestedOp binds one nested `shard:"model"` field to its own sub-plan.
type nestedOp struct {
	fieldIndex int
	sub        *plan
}

// plan is the resolved, cached shape of one model type: which fields carry
// scalar bindings, which carry composite keys, and which nest another
// mapped model.
type plan struct {
	typ      reflect.Type
	scalars  []scalarOp
	keys     []keyOp
	nested   []nestedOp
}

// opCount returns the total number of leaf operations this plan performs,
// counting through nested sub-plans — used to detect a model with no
// mapping attributes anywhere in its tree.
func (p *plan) opCount() int {
	n := len(p.scalars) + len(p.keys)
	for _, nop := range p.nested {
		n += nop.sub.opCount()
	}
	return n
}

// buildPlan walks typ's mapping.Build bindings and resolves nested model
// fields recursively, rejecting a type that (directly or through nesting)
// refers back to itself — spec.md §9 requires the mapper detect that cycle
// rather than recurse forever.
func buildPlan(typ reflect.Type, visiting map[reflect.Type]bool) (*plan, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if visiting[typ] {
		return nil, apperrors.New(apperrors.KindCycle, "type %s nests itself through a shard:\"model\" chain", typ)
	}
	visiting[typ] = true
	defer delete(visiting, typ)

	bindings, err := mapping.Build(typ)
	if err != nil {
		return nil, err
	}

	p := &plan{typ: typ}
	for _, b := range bindings {
		switch b.Kind {
		case mapping.KindScalar:
			p.scalars = append(p.scalars, scalarOp{
				fieldIndex: b.Field.Index[0],
				param:      b.Param,
				column:     b.Column,
				dbType:     b.DBType,
				required:   b.Required,
			})
		case mapping.KindKey:
			p.keys = append(p.keys, keyOp{
				fieldIndex: b.Field.Index[0],
				arity:      b.Arity,
				origin:     b.Origin,
				shardParam: b.ShardParam,
				roles:      b.Roles,
			})
		case mapping.KindModel:
			sub, err := buildPlan(b.Field.Type, visiting)
			if err != nil {
				return nil, err
			}
			p.nested = append(p.nested, nestedOp{fieldIndex: b.Field.Index[0], sub: sub})
		}
	}
	return p, nil
}
