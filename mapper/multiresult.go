package mapper

import (
	"reflect"
	"sync"

	"github.com/shardkit/shardkit/apperrors"
)

// MaxResultSets is the largest number of row-lists ModelFromResults accepts
// in a single call (spec.md §4.D: "up to eight row-lists plus optional
// output-parameter model").
const MaxResultSets = 8

// RecordSetFlags is a bitmask over the nine possible inputs to
// ModelFromResults: bit i (0..7) is set when row-list i was non-empty, bit 8
// is set when an output-parameter model was supplied.
type RecordSetFlags uint16

const outModelFlag RecordSetFlags = 1 << MaxResultSets

// Present reports whether row-list index i (0..7) carried at least one row.
func (f RecordSetFlags) Present(i int) bool { return f&(1<<uint(i)) != 0 }

// OutModelPresent reports whether an output-parameter model was supplied.
func (f RecordSetFlags) OutModelPresent() bool { return f&outModelFlag != 0 }

// sliceFieldPlan binds one []RowType field of the root model to whichever
// row-list's element type matches RowType.
type sliceFieldPlan struct {
	fieldIndex int
	elemType   reflect.Type
}

// scalarFieldPlan binds one non-slice field whose type equals either the
// output-param type or a row-list element type.
type scalarFieldPlan struct {
	fieldIndex int
	fieldType  reflect.Type
}

// multiPlan is the resolved field-matching shape for one (root type,
// procedure) pair — the part of ModelFromResults spec.md calls "the
// composed function," cached because different procedures can present
// different result-set shapes for the same root type.
type multiPlan struct {
	rootType     reflect.Type
	sliceFields  []sliceFieldPlan
	scalarFields []scalarFieldPlan
}

func buildMultiPlan(rootType reflect.Type) *multiPlan {
	p := &multiPlan{rootType: rootType}
	for i := 0; i < rootType.NumField(); i++ {
		f := rootType.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Type.Kind() == reflect.Slice {
			p.sliceFields = append(p.sliceFields, sliceFieldPlan{fieldIndex: i, elemType: f.Type.Elem()})
			continue
		}
		p.scalarFields = append(p.scalarFields, scalarFieldPlan{fieldIndex: i, fieldType: f.Type})
	}
	return p
}

type multiKey struct {
	typ       reflect.Type
	procedure string
}

// MultiCache is a single-flight, concurrency-safe cache of multiPlan keyed
// by (model type, procedure name).
type MultiCache struct {
	entries sync.Map
}

type multiEntry struct {
	once sync.Once
	p    *multiPlan
}

func (c *MultiCache) planFor(typ reflect.Type, procedure string) *multiPlan {
	key := multiKey{typ: typ, procedure: procedure}
	v, _ := c.entries.LoadOrStore(key, &multiEntry{})
	e := v.(*multiEntry)
	e.once.Do(func() { e.p = buildMultiPlan(typ) })
	return e.p
}

var defaultMultiCache MultiCache

// assignable reports whether a value of type src can populate a field of
// type dst, accounting for the common *T/T mismatch between a row decoder's
// pointer results and a plain-value root-model field.
func assignable(src, dst reflect.Type) bool {
	if src == dst {
		return true
	}
	if src.Kind() == reflect.Pointer && src.Elem() == dst {
		return true
	}
	if dst.Kind() == reflect.Pointer && dst.Elem() == src {
		return true
	}
	return false
}

func adapt(v reflect.Value, dst reflect.Type) reflect.Value {
	if v.Type() == dst {
		return v
	}
	if v.Kind() == reflect.Pointer && v.Type().Elem() == dst {
		return v.Elem()
	}
	if dst.Kind() == reflect.Pointer && dst.Elem() == v.Type() {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		return ptr
	}
	return v
}

// ModelFromResults assembles one rootType instance from up to
// MaxResultSets row-lists and an optional output-parameter model, per
// spec.md §4.D:
//
//  1. Root selection: outModel if its type is rootType; else the single row
//     of whichever row-list's element type is rootType (UnexpectedMultiRow
//     if that list holds more than one row); else a freshly constructed
//     instance.
//  2. Every []RowType field of the root is assigned the row-list whose
//     element type matches RowType.
//  3. Every scalar field whose type matches the out-param type or a row-list
//     element type is assigned from out-params, or from that row-list when
//     it holds exactly one row; zero or multiple rows leave the field
//     untouched (logged by the caller, not fatal here).
//
// procedure disambiguates the cached field-matching plan for callers that
// reuse one root type across stored procedures with different result-set
// shapes.
func ModelFromResults(rootType reflect.Type, rowSets [MaxResultSets][]any, outModel any, procedure string) (any, RecordSetFlags, error) {
	for rootType.Kind() == reflect.Pointer {
		rootType = rootType.Elem()
	}
	plan := defaultMultiCache.planFor(rootType, procedure)

	var flags RecordSetFlags
	for i, rows := range rowSets {
		if len(rows) > 0 {
			flags |= 1 << uint(i)
		}
	}
	if outModel != nil {
		flags |= outModelFlag
	}

	root, err := selectRoot(rootType, rowSets, outModel)
	if err != nil {
		return nil, flags, err
	}
	elem := root.Elem()

	for _, sf := range plan.sliceFields {
		for _, rows := range rowSets {
			if len(rows) == 0 || !assignable(reflect.TypeOf(rows[0]), sf.elemType) {
				continue
			}
			out := reflect.MakeSlice(reflect.SliceOf(sf.elemType), len(rows), len(rows))
			for i, row := range rows {
				out.Index(i).Set(adapt(reflect.ValueOf(row), sf.elemType))
			}
			elem.Field(sf.fieldIndex).Set(out)
			break
		}
	}

	for _, scf := range plan.scalarFields {
		if outModel != nil && assignable(reflect.TypeOf(outModel), scf.fieldType) {
			elem.Field(scf.fieldIndex).Set(adapt(reflect.ValueOf(outModel), scf.fieldType))
			continue
		}
		for _, rows := range rowSets {
			if len(rows) == 0 || !assignable(reflect.TypeOf(rows[0]), scf.fieldType) {
				continue
			}
			if len(rows) == 1 {
				elem.Field(scf.fieldIndex).Set(adapt(reflect.ValueOf(rows[0]), scf.fieldType))
			}
			break
		}
	}

	return root.Interface(), flags, nil
}

func selectRoot(rootType reflect.Type, rowSets [MaxResultSets][]any, outModel any) (reflect.Value, error) {
	if outModel != nil && assignable(reflect.TypeOf(outModel), rootType) {
		root := reflect.New(rootType)
		root.Elem().Set(adapt(reflect.ValueOf(outModel), rootType))
		return root, nil
	}
	for _, rows := range rowSets {
		if len(rows) == 0 || !assignable(reflect.TypeOf(rows[0]), rootType) {
			continue
		}
		if len(rows) > 1 {
			return reflect.Value{}, apperrors.New(apperrors.KindUnexpectedMultiRow,
				"root type %s matched a row-list with %d rows, expected at most one", rootType, len(rows))
		}
		root := reflect.New(rootType)
		root.Elem().Set(adapt(reflect.ValueOf(rows[0]), rootType))
		return root, nil
	}
	return reflect.New(rootType), nil
}
