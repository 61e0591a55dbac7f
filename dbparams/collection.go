// Package dbparams implements a driver-independent parameter collection: an
// ordered, name-indexed set of bound values a connection.Manager hands to
// the underlying database/sql driver, plus an "ignore set" the code-gen
// mapper (package mapper) consults so it never clobbers a value the caller
// already set explicitly.
package dbparams

import (
	"fmt"

	"github.com/shardkit/shardkit/shardkey"
)

// Direction is whether a parameter flows into the call, out of it, or both
// (an output parameter a procedure populates).
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
	DirectionInOut
)

// Parameter is one bound value together with its direction and, for an
// output parameter, the driver type the caller expects back.
type Parameter struct {
	Name      string
	Value     any
	Direction Direction
	DBType    string
}

// Collection is an ordered, name-unique set of Parameters. It is the unit
// the Shard-Set Fan-Out Engine clones once per target shard before
// rewriting the shard-id slot and dispatching (see package shardset):
// spec.md §5 requires that the collection handed to a single fan-out call
// never be shared, mutated concurrently, across two in-flight dispatches.
type Collection struct {
	params  []Parameter
	index   map[string]int
	ignored map[string]struct{}
}

// New returns an empty Collection ready for Append calls.
func New() *Collection {
	return &Collection{index: make(map[string]int), ignored: make(map[string]struct{})}
}

// Append adds an input parameter. Returns an error if name is already bound
// in this collection — parameter names are unique per collection.
func (c *Collection) Append(name string, value any) error {
	return c.appendWithDirection(name, value, DirectionIn, "")
}

// AppendOut reserves a named output-parameter placeholder of the given
// driver type; its Value is populated after the call completes.
func (c *Collection) AppendOut(name, dbType string) error {
	return c.appendWithDirection(name, nil, DirectionOut, dbType)
}

func (c *Collection) appendWithDirection(name string, value any, dir Direction, dbType string) error {
	if _, exists := c.index[name]; exists {
		return fmt.Errorf("dbparams: parameter %q already bound in this collection", name)
	}
	c.index[name] = len(c.params)
	c.params = append(c.params, Parameter{Name: name, Value: value, Direction: dir, DBType: dbType})
	return nil
}

// Get returns the named parameter's value and whether it exists.
func (c *Collection) Get(name string) (any, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.params[i].Value, true
}

// At returns the parameter at a given ordinal (0-based), and whether that
// ordinal exists.
func (c *Collection) At(ordinal int) (Parameter, bool) {
	if ordinal < 0 || ordinal >= len(c.params) {
		return Parameter{}, false
	}
	return c.params[ordinal], true
}

// SetValueAt overwrites the value of the parameter at ordinal in place. The
// fan-out engine always applies it (through SetShardID) to a per-shard Clone,
// never to the caller's collection.
func (c *Collection) SetValueAt(ordinal int, value any) error {
	if ordinal < 0 || ordinal >= len(c.params) {
		return fmt.Errorf("dbparams: ordinal %d out of range (len=%d)", ordinal, len(c.params))
	}
	c.params[ordinal].Value = value
	return nil
}

// SetShardID rewrites the value at ordinal to shardID. It is the primitive
// the fan-out engine uses every iteration of its per-shard dispatch loop.
func (c *Collection) SetShardID(ordinal int, shardID shardkey.ID) error {
	return c.SetValueAt(ordinal, uint16(shardID))
}

// OrdinalOf returns the ordinal of the named parameter, and whether it
// exists.
func (c *Collection) OrdinalOf(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Overlay applies overrides onto c: a name overrides already bound in c has
// its value replaced, a new name is appended. The Shard-Set Fan-Out Engine
// uses this to apply per-shard parameter overrides onto a cloned base
// collection before dispatch.
func (c *Collection) Overlay(overrides *Collection) error {
	for _, p := range overrides.All() {
		if ord, ok := c.OrdinalOf(p.Name); ok {
			if err := c.SetValueAt(ord, p.Value); err != nil {
				return err
			}
			continue
		}
		if err := c.appendWithDirection(p.Name, p.Value, p.Direction, p.DBType); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of bound parameters.
func (c *Collection) Len() int { return len(c.params) }

// All returns the bound parameters in append order. The returned slice must
// not be mutated by the caller.
func (c *Collection) All() []Parameter { return c.params }

// Ignore records that name was already explicitly set by the caller, so the
// mapper's generated in_params writer (package mapper) must not overwrite
// it when it walks the model's mapped fields.
func (c *Collection) Ignore(name string) { c.ignored[name] = struct{}{} }

// IsIgnored reports whether name is in the ignore set.
func (c *Collection) IsIgnored(name string) bool {
	_, ok := c.ignored[name]
	return ok
}

// Clone returns a deep, independent copy: a new backing array, a new index,
// and a new ignore set. The Shard-Set Fan-Out Engine clones the caller's
// collection once per target shard rather than mutating a single shared
// collection across concurrent tasks — see package shardset.
func (c *Collection) Clone() *Collection {
	clone := &Collection{
		params:  make([]Parameter, len(c.params)),
		index:   make(map[string]int, len(c.index)),
		ignored: make(map[string]struct{}, len(c.ignored)),
	}
	copy(clone.params, c.params)
	for k, v := range c.index {
		clone.index[k] = v
	}
	for k, v := range c.ignored {
		clone.ignored[k] = v
	}
	return clone
}
