// Package shardkey implements the composite shard identity value: an origin
// byte, a 16-bit shard id, and one to four orderable record components.
package shardkey

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
)

// Component is the set of types a key component may hold. Real deployments
// key off integer surrogate ids or string natural keys; both round-trip
// exactly through the external string form.
type Component interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~string
}

// isDefault reports whether v equals its type's zero value, the definition
// spec.md uses for "component absent" when assembling an empty key.
func isDefault[T Component](v T) bool {
	return reflect.ValueOf(v).IsZero()
}

// encodeComponent renders a component to its canonical external-string form.
// Reflection is used rather than a type switch on T because a type switch
// matches concrete types, not the underlying kinds the Component constraint
// actually bounds (a `type UserID int` would not match `case int`).
func encodeComponent[T Component](v T) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.String:
		return url.QueryEscape(rv.String())
	default:
		panic(fmt.Sprintf("shardkey: unsupported component kind %s", rv.Kind()))
	}
}

// decodeComponent parses a component previously produced by encodeComponent.
func decodeComponent[T Component](s string) (T, error) {
	var zero T
	rv := reflect.ValueOf(&zero).Elem()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return zero, fmt.Errorf("%w: component %q is not an integer: %v", ErrMalformedKey, s, err)
		}
		if rv.OverflowInt(n) {
			return zero, fmt.Errorf("%w: component %q overflows %s", ErrMalformedKey, s, rv.Kind())
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return zero, fmt.Errorf("%w: component %q is not an unsigned integer: %v", ErrMalformedKey, s, err)
		}
		if rv.OverflowUint(n) {
			return zero, fmt.Errorf("%w: component %q overflows %s", ErrMalformedKey, s, rv.Kind())
		}
		rv.SetUint(n)
	case reflect.String:
		unescaped, err := url.QueryUnescape(s)
		if err != nil {
			return zero, fmt.Errorf("%w: component %q is not valid escaped text: %v", ErrMalformedKey, s, err)
		}
		rv.SetString(unescaped)
	default:
		return zero, fmt.Errorf("%w: unsupported component kind %s", ErrMalformedKey, rv.Kind())
	}
	return zero, nil
}
