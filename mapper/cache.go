package mapper

import (
	"reflect"
	"sync"

	"github.com/shardkit/shardkit/apperrors"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
)

// Mapper is the compiled-once mapping for one model type: the four
// reflection-driven functions spec.md §4.D describes, bound to that type's
// resolved plan.
type Mapper struct {
	typ   reflect.Type
	plan  *plan
	slots []slotSpec

	resolve OrdinalResolver
	decode  RowDecoder
}

// InParams appends model's bound fields onto params as input parameters.
func (m *Mapper) InParams(model any, params *dbparams.Collection, shardID shardkey.ID) error {
	return writeIn(modelElem(model, m.typ), m.plan, params, shardID)
}

// OutParams reserves one output-parameter placeholder per bound field.
func (m *Mapper) OutParams(params *dbparams.Collection) error {
	return reserveOut(m.plan, params)
}

// ReadOut builds a new *model populated from params' output values.
func (m *Mapper) ReadOut(params *dbparams.Collection, shardID shardkey.ID) (any, error) {
	modelPtr := reflect.New(m.typ)
	if err := readOut(modelPtr.Elem(), m.plan, params, shardID); err != nil {
		return nil, err
	}
	return modelPtr.Interface(), nil
}

// ResolveOrdinals maps a result set's column names to per-slot ordinals.
func (m *Mapper) ResolveOrdinals(columns []string) ([]int, error) {
	return m.resolve(columns)
}

// DecodeRow builds a new *model from the current row of scan.
func (m *Mapper) DecodeRow(scan RowScanner, ordinals []int, columnCount int, shardID shardkey.ID) (any, error) {
	return m.decode(scan, ordinals, columnCount, shardID)
}

// Type returns the model type this Mapper was compiled for.
func (m *Mapper) Type() reflect.Type { return m.typ }

func build(typ reflect.Type) (*Mapper, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	p, err := buildPlan(typ, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}
	if p.opCount() == 0 {
		return nil, apperrors.New(apperrors.KindNoMappingAttributesFound,
			"type %s declares no shard mapping attributes", typ)
	}
	slots := flattenSlots(p, nil)
	return &Mapper{
		typ:     typ,
		plan:    p,
		slots:   slots,
		resolve: resolveOrdinals(slots),
		decode:  decodeRow(typ, slots),
	}, nil
}

// cacheEntry is a single-flight future: the first caller to store one builds
// the Mapper and closes done; every other caller for the same type blocks on
// done and then shares the result, so a type's mapping attributes are walked
// and validated exactly once regardless of how many goroutines ask for it
// concurrently.
type cacheEntry struct {
	done chan struct{}
	m    *Mapper
	err  error
}

// Cache is a concurrency-safe, lazily-populated map from model type to
// compiled Mapper. The zero value is ready to use.
type Cache struct {
	entries sync.Map
}

// For returns typ's Mapper, building and caching it on first use.
func (c *Cache) For(typ reflect.Type) (*Mapper, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if v, ok := c.entries.Load(typ); ok {
		e := v.(*cacheEntry)
		<-e.done
		return e.m, e.err
	}
	e := &cacheEntry{done: make(chan struct{})}
	actual, loaded := c.entries.LoadOrStore(typ, e)
	e = actual.(*cacheEntry)
	if !loaded {
		e.m, e.err = build(typ)
		close(e.done)
	}
	<-e.done
	return e.m, e.err
}

var defaultCache Cache

// For returns typ's Mapper from the package-level default cache.
func For(typ reflect.Type) (*Mapper, error) { return defaultCache.For(typ) }
