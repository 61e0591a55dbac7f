package shardkey

import "reflect"

// Assembler is implemented by *Key1..*Key4 and is the seam package mapper
// uses to decompose/recompose a ShardKey generically: the mapper discovers
// a model's key field only via reflect.Type (it never knows R, C, G, GG at
// compile time), but each KeyN's own methods are defined with those type
// parameters in scope, so the type-specific conversion lives here rather
// than forcing the mapper into unsafe field access.
type Assembler interface {
	// Components returns the key's header plus its record/child/grand/
	// great-grandchild values, in role order, for a key that is not empty.
	Components() (origin byte, shardID ID, values []any)
	// AssembleFromAny rebuilds the key from role values read out of
	// parameters or row columns, converting each via reflection to the
	// field's concrete component type.
	AssembleFromAny(origin byte, shardID ID, values ...any) error
	// IsEmptyAny reports whether the key equals its arity's empty value.
	IsEmptyAny() bool
	// ArityAny returns how many record/child/grand/great-grand slots this
	// key's type carries (1..4).
	ArityAny() int
}

func convertComponent(v any, target reflect.Value) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if !rv.Type().ConvertibleTo(target.Type()) {
		return ErrMalformedKey
	}
	target.Set(rv.Convert(target.Type()))
	return nil
}

func (k *Key1[R]) Components() (byte, ID, []any) {
	return k.origin, k.shardID, []any{k.recordID}
}
func (k *Key1[R]) AssembleFromAny(origin byte, shardID ID, values ...any) error {
	if len(values) != 1 {
		return ErrMalformedKey
	}
	rv := reflect.ValueOf(&k.recordID).Elem()
	if err := convertComponent(values[0], rv); err != nil {
		return err
	}
	k.origin, k.shardID = origin, shardID
	return nil
}
func (k *Key1[R]) IsEmptyAny() bool { return k.IsEmpty() }
func (k *Key1[R]) ArityAny() int    { return 1 }

func (k *Key2[R, C]) Components() (byte, ID, []any) {
	return k.origin, k.shardID, []any{k.recordID, k.childID}
}
func (k *Key2[R, C]) AssembleFromAny(origin byte, shardID ID, values ...any) error {
	if len(values) != 2 {
		return ErrMalformedKey
	}
	if err := convertComponent(values[0], reflect.ValueOf(&k.recordID).Elem()); err != nil {
		return err
	}
	if err := convertComponent(values[1], reflect.ValueOf(&k.childID).Elem()); err != nil {
		return err
	}
	k.origin, k.shardID = origin, shardID
	return nil
}
func (k *Key2[R, C]) IsEmptyAny() bool { return k.IsEmpty() }
func (k *Key2[R, C]) ArityAny() int    { return 2 }

func (k *Key3[R, C, G]) Components() (byte, ID, []any) {
	return k.origin, k.shardID, []any{k.recordID, k.childID, k.grandID}
}
func (k *Key3[R, C, G]) AssembleFromAny(origin byte, shardID ID, values ...any) error {
	if len(values) != 3 {
		return ErrMalformedKey
	}
	if err := convertComponent(values[0], reflect.ValueOf(&k.recordID).Elem()); err != nil {
		return err
	}
	if err := convertComponent(values[1], reflect.ValueOf(&k.childID).Elem()); err != nil {
		return err
	}
	if err := convertComponent(values[2], reflect.ValueOf(&k.grandID).Elem()); err != nil {
		return err
	}
	k.origin, k.shardID = origin, shardID
	return nil
}
func (k *Key3[R, C, G]) IsEmptyAny() bool { return k.IsEmpty() }
func (k *Key3[R, C, G]) ArityAny() int    { return 3 }

func (k *Key4[R, C, G, GG]) Components() (byte, ID, []any) {
	return k.origin, k.shardID, []any{k.recordID, k.childID, k.grandID, k.greatGrand}
}
func (k *Key4[R, C, G, GG]) AssembleFromAny(origin byte, shardID ID, values ...any) error {
	if len(values) != 4 {
		return ErrMalformedKey
	}
	if err := convertComponent(values[0], reflect.ValueOf(&k.recordID).Elem()); err != nil {
		return err
	}
	if err := convertComponent(values[1], reflect.ValueOf(&k.childID).Elem()); err != nil {
		return err
	}
	if err := convertComponent(values[2], reflect.ValueOf(&k.grandID).Elem()); err != nil {
		return err
	}
	if err := convertComponent(values[3], reflect.ValueOf(&k.greatGrand).Elem()); err != nil {
		return err
	}
	k.origin, k.shardID = origin, shardID
	return nil
}
func (k *Key4[R, C, G, GG]) IsEmptyAny() bool { return k.IsEmpty() }
func (k *Key4[R, C, G, GG]) ArityAny() int    { return 4 }

var (
	_ Assembler = (*Key1[int])(nil)
	_ Assembler = (*Key2[int, int])(nil)
	_ Assembler = (*Key3[int, int, int])(nil)
	_ Assembler = (*Key4[int, int, int, int])(nil)
)
