package mapper

import (
	"reflect"
	"strings"

	"github.com/shardkit/shardkit/apperrors"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
)

// RowScanner is the subset of *sql.Rows the row decoder needs. Narrowing to
// an interface keeps this package free of a database/sql import and lets
// tests feed it a fake.
type RowScanner interface {
	Scan(dest ...any) error
}

// InParamsFunc appends model's bound fields onto params as input
// parameters, writing shardID into the field tagged shard="..." if any.
type InParamsFunc func(model any, params *dbparams.Collection, shardID shardkey.ID) error

// OutParamsFunc reserves one output-parameter placeholder per bound field.
type OutParamsFunc func(params *dbparams.Collection) error

// ReadOutFunc builds a new *model (returned as any) populated from params'
// output values.
type ReadOutFunc func(params *dbparams.Collection, shardID shardkey.ID) (any, error)

// OrdinalResolver maps a result set's column names to the ordinal each
// mapped slot should read from — built once per distinct result schema, not
// once per row.
type OrdinalResolver func(columns []string) ([]int, error)

// RowDecoder builds a new *model from one row, given the ordinals
// OrdinalResolver produced for that row's schema and the total column count
// (every column in the row must be scanned, including ones no slot uses).
type RowDecoder func(scan RowScanner, ordinals []int, columnCount int, shardID shardkey.ID) (any, error)

func modelElem(model any, typ reflect.Type) reflect.Value {
	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Pointer {
		return rv.Elem()
	}
	cp := reflect.New(typ).Elem()
	cp.Set(rv)
	return cp
}

func convertInto(v any, target reflect.Value) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == target.Type() {
		target.Set(rv)
		return nil
	}
	if !rv.Type().ConvertibleTo(target.Type()) {
		return apperrors.New(apperrors.KindInvalidMapping,
			"cannot convert %s into field of type %s", rv.Type(), target.Type())
	}
	target.Set(rv.Convert(target.Type()))
	return nil
}

func asmAt(elem reflect.Value, path []int) (shardkey.Assembler, error) {
	fv := elem.FieldByIndex(path)
	if !fv.CanAddr() {
		return nil, apperrors.New(apperrors.KindInvalidMapping, "key field at %v is not addressable", path)
	}
	asm, ok := fv.Addr().Interface().(shardkey.Assembler)
	if !ok {
		return nil, apperrors.New(apperrors.KindInvalidMapping, "field at %v does not implement shardkey.Assembler", path)
	}
	return asm, nil
}

// writeIn recursively appends plan's scalar and key bindings from elem onto
// params, in plan order.
func writeIn(elem reflect.Value, p *plan, params *dbparams.Collection, shardID shardkey.ID) error {
	for _, s := range p.scalars {
		if params.IsIgnored(s.param) {
			continue
		}
		fv := elem.Field(s.fieldIndex)
		if err := params.Append(s.param, fv.Interface()); err != nil {
			return err
		}
	}
	for _, k := range p.keys {
		asm, err := asmAt(elem, []int{k.fieldIndex})
		if err != nil {
			return err
		}
		empty := asm.IsEmptyAny()
		_, _, values := asm.Components()
		for i, role := range k.roles {
			if params.IsIgnored(role.Param) {
				continue
			}
			if empty {
				if err := params.Append(role.Param, nil); err != nil {
					return err
				}
				continue
			}
			if err := params.Append(role.Param, values[i]); err != nil {
				return err
			}
		}
		if k.shardParam != "" && !params.IsIgnored(k.shardParam) {
			if err := params.Append(k.shardParam, uint16(shardID)); err != nil {
				return err
			}
		}
	}
	for _, n := range p.nested {
		if err := writeIn(elem.Field(n.fieldIndex), n.sub, params, shardID); err != nil {
			return err
		}
	}
	return nil
}

func reserveOut(p *plan, params *dbparams.Collection) error {
	for _, s := range p.scalars {
		if params.IsIgnored(s.param) {
			continue
		}
		if err := params.AppendOut(s.param, s.dbType); err != nil {
			return err
		}
	}
	for _, k := range p.keys {
		for _, role := range k.roles {
			if params.IsIgnored(role.Param) {
				continue
			}
			if err := params.AppendOut(role.Param, ""); err != nil {
				return err
			}
		}
	}
	for _, n := range p.nested {
		if err := reserveOut(n.sub, params); err != nil {
			return err
		}
	}
	return nil
}

func readOut(elem reflect.Value, p *plan, params *dbparams.Collection, shardID shardkey.ID) error {
	for _, s := range p.scalars {
		v, ok := params.Get(s.param)
		if !ok || v == nil {
			if s.required {
				return apperrors.New(apperrors.KindInvalidMapping, "required output parameter %s was not set", s.param)
			}
			continue
		}
		if err := convertInto(v, elem.Field(s.fieldIndex)); err != nil {
			return err
		}
	}
	for _, k := range p.keys {
		values := make([]any, len(k.roles))
		complete := true
		for i, role := range k.roles {
			v, ok := params.Get(role.Param)
			if !ok || v == nil {
				complete = false
				break
			}
			values[i] = v
		}
		if !complete {
			continue
		}
		asm, err := asmAt(elem, []int{k.fieldIndex})
		if err != nil {
			return err
		}
		if err := asm.AssembleFromAny(k.origin, shardID, values...); err != nil {
			return err
		}
	}
	for _, n := range p.nested {
		if err := readOut(elem.Field(n.fieldIndex), n.sub, params, shardID); err != nil {
			return err
		}
	}
	return nil
}

type slotKind int

const (
	slotScalar slotKind = iota
	slotKeyRole
)

type slotSpec struct {
	kind     slotKind
	column   string
	required bool
	path     []int
	roleIdx  int
	arity    int
	origin   byte
}

func appendPath(prefix []int, idx int) []int {
	out := make([]int, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = idx
	return out
}

func flattenSlots(p *plan, prefix []int) []slotSpec {
	var out []slotSpec
	for _, s := range p.scalars {
		out = append(out, slotSpec{
			kind: slotScalar, column: s.column, required: s.required,
			path: appendPath(prefix, s.fieldIndex),
		})
	}
	for _, k := range p.keys {
		path := appendPath(prefix, k.fieldIndex)
		for ri, role := range k.roles {
			out = append(out, slotSpec{
				kind: slotKeyRole, column: role.Column, path: path,
				roleIdx: ri, arity: len(k.roles), origin: k.origin,
			})
		}
	}
	for _, n := range p.nested {
		out = append(out, flattenSlots(n.sub, appendPath(prefix, n.fieldIndex))...)
	}
	return out
}

func resolveOrdinals(slots []slotSpec) OrdinalResolver {
	return func(columns []string) ([]int, error) {
		ordinals := make([]int, len(slots))
		for i, slot := range slots {
			idx := -1
			for ci, col := range columns {
				if strings.EqualFold(col, slot.column) {
					idx = ci
					break
				}
			}
			if idx == -1 && slot.kind == slotScalar && slot.required {
				return nil, apperrors.New(apperrors.KindInvalidMapping,
					"required column %q not present in result set", slot.column)
			}
			ordinals[i] = idx
		}
		return ordinals, nil
	}
}

func decodeRow(typ reflect.Type, slots []slotSpec) RowDecoder {
	return func(scan RowScanner, ordinals []int, columnCount int, shardID shardkey.ID) (any, error) {
		raw := make([]any, columnCount)
		dest := make([]any, columnCount)
		for i := range dest {
			dest[i] = &raw[i]
		}
		if err := scan.Scan(dest...); err != nil {
			return nil, err
		}

		modelPtr := reflect.New(typ)
		elem := modelPtr.Elem()

		var keyBuf []any
		for i, slot := range slots {
			var val any
			if ordinals[i] >= 0 {
				val = raw[ordinals[i]]
			}
			switch slot.kind {
			case slotScalar:
				if val == nil {
					continue
				}
				if err := convertInto(val, elem.FieldByIndex(slot.path)); err != nil {
					return nil, err
				}
			case slotKeyRole:
				if slot.roleIdx == 0 {
					keyBuf = keyBuf[:0]
				}
				keyBuf = append(keyBuf, val)
				if slot.roleIdx == slot.arity-1 {
					complete := true
					for _, v := range keyBuf {
						if v == nil {
							complete = false
							break
						}
					}
					if complete {
						fv := elem.FieldByIndex(slot.path)
						asm, ok := fv.Addr().Interface().(shardkey.Assembler)
						if !ok {
							return nil, apperrors.New(apperrors.KindInvalidMapping,
								"field at %v does not implement shardkey.Assembler", slot.path)
						}
						if err := asm.AssembleFromAny(slot.origin, shardID, keyBuf...); err != nil {
							return nil, err
						}
					}
				}
			}
		}
		return modelPtr.Interface(), nil
	}
}
