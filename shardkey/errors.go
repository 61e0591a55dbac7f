package shardkey

import "errors"

// ErrMalformedKey is returned by the arity-specific ParseKey1..ParseKey4
// functions when the input is not a well-formed external key string for
// the requested format version and arity.
var ErrMalformedKey = errors.New("shardkey: malformed key")

// ErrOrigin is returned by New1..New4 whenever origin is the reserved
// empty-key value (0), whatever the components; the canonical empty key is
// obtained from the EmptyN constructors instead.
var ErrOrigin = errors.New("shardkey: origin 0 is reserved for the empty key")
