package shardkey

import (
	"fmt"
	"strconv"
	"strings"
)

// externalVersion is the format-version byte prefixed to every external
// string. Bumping it is how a future encoding change stays distinguishable
// from today's without breaking already-persisted keys.
const externalVersion = "v1"

// ID is a shard index within a shard map. 16 bits per spec.md §3.
type ID uint16

// Key1 is a composite identity with a single record component: origin +
// shard id + record id. Key2/Key3/Key4 add child, grandchild and
// great-grandchild components for hierarchical keys. All four arities share
// the same external-string shape and empty-key semantics.
type Key1[R Component] struct {
	origin   byte
	shardID  ID
	recordID R
}

// New1 constructs a Key1. Construction is all-or-nothing: once built the
// value is immutable (fields are unexported, there are no setters).
func New1[R Component](origin byte, shardID ID, recordID R) (Key1[R], error) {
	if origin == 0 {
		return Key1[R]{}, ErrOrigin
	}
	return Key1[R]{origin: origin, shardID: shardID, recordID: recordID}, nil
}

// Empty1 returns the canonical zero value for this key arity.
func Empty1[R Component]() Key1[R] { return Key1[R]{} }

func (k Key1[R]) Origin() byte   { return k.origin }
func (k Key1[R]) ShardID() ID    { return k.shardID }
func (k Key1[R]) RecordID() R    { return k.recordID }
func (k Key1[R]) IsEmpty() bool  { return k.origin == 0 && k.shardID == 0 && isDefault(k.recordID) }
func (k Key1[R]) Equal(o Key1[R]) bool {
	return k.origin == o.origin && k.shardID == o.shardID && k.recordID == o.recordID
}

// ToExternalString renders the stable, URL-safe, round-trip-exact encoding.
func (k Key1[R]) ToExternalString() string {
	if k.IsEmpty() {
		return externalVersion + ":0"
	}
	return strings.Join([]string{
		externalVersion,
		encodeOrigin(k.origin),
		strconv.FormatUint(uint64(k.shardID), 10),
		encodeComponent(k.recordID),
	}, ":")
}

// ParseKey1 parses a string produced by Key1.ToExternalString.
func ParseKey1[R Component](s string) (Key1[R], error) {
	parts, err := splitExternal(s, 4)
	if err != nil {
		return Key1[R]{}, err
	}
	if isEmptyForm(parts) {
		return Key1[R]{}, nil
	}
	origin, shardID, err := parseHeader(parts)
	if err != nil {
		return Key1[R]{}, err
	}
	record, err := decodeComponent[R](parts[3])
	if err != nil {
		return Key1[R]{}, err
	}
	return Key1[R]{origin: origin, shardID: shardID, recordID: record}, nil
}

// Key2 adds a child-id component to Key1.
type Key2[R, C Component] struct {
	origin   byte
	shardID  ID
	recordID R
	childID  C
}

func New2[R, C Component](origin byte, shardID ID, recordID R, childID C) (Key2[R, C], error) {
	if origin == 0 {
		return Key2[R, C]{}, ErrOrigin
	}
	return Key2[R, C]{origin: origin, shardID: shardID, recordID: recordID, childID: childID}, nil
}

func Empty2[R, C Component]() Key2[R, C] { return Key2[R, C]{} }

func (k Key2[R, C]) Origin() byte  { return k.origin }
func (k Key2[R, C]) ShardID() ID   { return k.shardID }
func (k Key2[R, C]) RecordID() R   { return k.recordID }
func (k Key2[R, C]) ChildID() C    { return k.childID }
func (k Key2[R, C]) IsEmpty() bool {
	return k.origin == 0 && k.shardID == 0 && isDefault(k.recordID) && isDefault(k.childID)
}
func (k Key2[R, C]) Equal(o Key2[R, C]) bool {
	return k.origin == o.origin && k.shardID == o.shardID && k.recordID == o.recordID && k.childID == o.childID
}

func (k Key2[R, C]) ToExternalString() string {
	if k.IsEmpty() {
		return externalVersion + ":0"
	}
	return strings.Join([]string{
		externalVersion, encodeOrigin(k.origin), strconv.FormatUint(uint64(k.shardID), 10),
		encodeComponent(k.recordID), encodeComponent(k.childID),
	}, ":")
}

func ParseKey2[R, C Component](s string) (Key2[R, C], error) {
	parts, err := splitExternal(s, 5)
	if err != nil {
		return Key2[R, C]{}, err
	}
	if isEmptyForm(parts) {
		return Key2[R, C]{}, nil
	}
	origin, shardID, err := parseHeader(parts)
	if err != nil {
		return Key2[R, C]{}, err
	}
	record, err := decodeComponent[R](parts[3])
	if err != nil {
		return Key2[R, C]{}, err
	}
	child, err := decodeComponent[C](parts[4])
	if err != nil {
		return Key2[R, C]{}, err
	}
	return Key2[R, C]{origin: origin, shardID: shardID, recordID: record, childID: child}, nil
}

// Key3 adds a grandchild-id component to Key2.
type Key3[R, C, G Component] struct {
	origin    byte
	shardID   ID
	recordID  R
	childID   C
	grandID   G
}

func New3[R, C, G Component](origin byte, shardID ID, recordID R, childID C, grandID G) (Key3[R, C, G], error) {
	if origin == 0 {
		return Key3[R, C, G]{}, ErrOrigin
	}
	return Key3[R, C, G]{origin: origin, shardID: shardID, recordID: recordID, childID: childID, grandID: grandID}, nil
}

func Empty3[R, C, G Component]() Key3[R, C, G] { return Key3[R, C, G]{} }

func (k Key3[R, C, G]) Origin() byte  { return k.origin }
func (k Key3[R, C, G]) ShardID() ID   { return k.shardID }
func (k Key3[R, C, G]) RecordID() R   { return k.recordID }
func (k Key3[R, C, G]) ChildID() C    { return k.childID }
func (k Key3[R, C, G]) GrandChildID() G { return k.grandID }
func (k Key3[R, C, G]) IsEmpty() bool {
	return k.origin == 0 && k.shardID == 0 && isDefault(k.recordID) && isDefault(k.childID) && isDefault(k.grandID)
}
func (k Key3[R, C, G]) Equal(o Key3[R, C, G]) bool {
	return k.origin == o.origin && k.shardID == o.shardID && k.recordID == o.recordID &&
		k.childID == o.childID && k.grandID == o.grandID
}

func (k Key3[R, C, G]) ToExternalString() string {
	if k.IsEmpty() {
		return externalVersion + ":0"
	}
	return strings.Join([]string{
		externalVersion, encodeOrigin(k.origin), strconv.FormatUint(uint64(k.shardID), 10),
		encodeComponent(k.recordID), encodeComponent(k.childID), encodeComponent(k.grandID),
	}, ":")
}

func ParseKey3[R, C, G Component](s string) (Key3[R, C, G], error) {
	parts, err := splitExternal(s, 6)
	if err != nil {
		return Key3[R, C, G]{}, err
	}
	if isEmptyForm(parts) {
		return Key3[R, C, G]{}, nil
	}
	origin, shardID, err := parseHeader(parts)
	if err != nil {
		return Key3[R, C, G]{}, err
	}
	record, err := decodeComponent[R](parts[3])
	if err != nil {
		return Key3[R, C, G]{}, err
	}
	child, err := decodeComponent[C](parts[4])
	if err != nil {
		return Key3[R, C, G]{}, err
	}
	grand, err := decodeComponent[G](parts[5])
	if err != nil {
		return Key3[R, C, G]{}, err
	}
	return Key3[R, C, G]{origin: origin, shardID: shardID, recordID: record, childID: child, grandID: grand}, nil
}

// Key4 adds a great-grandchild-id component to Key3 — the maximum arity
// spec.md §3 allows.
type Key4[R, C, G, GG Component] struct {
	origin     byte
	shardID    ID
	recordID   R
	childID    C
	grandID    G
	greatGrand GG
}

func New4[R, C, G, GG Component](origin byte, shardID ID, recordID R, childID C, grandID G, greatGrandID GG) (Key4[R, C, G, GG], error) {
	if origin == 0 {
		return Key4[R, C, G, GG]{}, ErrOrigin
	}
	return Key4[R, C, G, GG]{origin: origin, shardID: shardID, recordID: recordID, childID: childID, grandID: grandID, greatGrand: greatGrandID}, nil
}

func Empty4[R, C, G, GG Component]() Key4[R, C, G, GG] { return Key4[R, C, G, GG]{} }

func (k Key4[R, C, G, GG]) Origin() byte       { return k.origin }
func (k Key4[R, C, G, GG]) ShardID() ID        { return k.shardID }
func (k Key4[R, C, G, GG]) RecordID() R        { return k.recordID }
func (k Key4[R, C, G, GG]) ChildID() C         { return k.childID }
func (k Key4[R, C, G, GG]) GrandChildID() G    { return k.grandID }
func (k Key4[R, C, G, GG]) GreatGrandChildID() GG { return k.greatGrand }
func (k Key4[R, C, G, GG]) IsEmpty() bool {
	return k.origin == 0 && k.shardID == 0 && isDefault(k.recordID) &&
		isDefault(k.childID) && isDefault(k.grandID) && isDefault(k.greatGrand)
}
func (k Key4[R, C, G, GG]) Equal(o Key4[R, C, G, GG]) bool {
	return k.origin == o.origin && k.shardID == o.shardID && k.recordID == o.recordID &&
		k.childID == o.childID && k.grandID == o.grandID && k.greatGrand == o.greatGrand
}

func (k Key4[R, C, G, GG]) ToExternalString() string {
	if k.IsEmpty() {
		return externalVersion + ":0"
	}
	return strings.Join([]string{
		externalVersion, encodeOrigin(k.origin), strconv.FormatUint(uint64(k.shardID), 10),
		encodeComponent(k.recordID), encodeComponent(k.childID), encodeComponent(k.grandID), encodeComponent(k.greatGrand),
	}, ":")
}

func ParseKey4[R, C, G, GG Component](s string) (Key4[R, C, G, GG], error) {
	parts, err := splitExternal(s, 7)
	if err != nil {
		return Key4[R, C, G, GG]{}, err
	}
	if isEmptyForm(parts) {
		return Key4[R, C, G, GG]{}, nil
	}
	origin, shardID, err := parseHeader(parts)
	if err != nil {
		return Key4[R, C, G, GG]{}, err
	}
	record, err := decodeComponent[R](parts[3])
	if err != nil {
		return Key4[R, C, G, GG]{}, err
	}
	child, err := decodeComponent[C](parts[4])
	if err != nil {
		return Key4[R, C, G, GG]{}, err
	}
	grand, err := decodeComponent[G](parts[5])
	if err != nil {
		return Key4[R, C, G, GG]{}, err
	}
	greatGrand, err := decodeComponent[GG](parts[6])
	if err != nil {
		return Key4[R, C, G, GG]{}, err
	}
	return Key4[R, C, G, GG]{origin: origin, shardID: shardID, recordID: record, childID: child, grandID: grand, greatGrand: greatGrand}, nil
}

// splitExternal validates the version prefix and splits into exactly
// wantParts colon-separated fields (wantParts includes version+origin+shard
// +components), OR the 2-field empty-key form ("v1:0").
func splitExternal(s string, wantParts int) ([]string, error) {
	parts := strings.Split(s, ":")
	if len(parts) == 0 || parts[0] != externalVersion {
		return nil, fmt.Errorf("%w: unsupported or missing version prefix in %q", ErrMalformedKey, s)
	}
	if len(parts) == 2 && parts[1] == "0" {
		return parts, nil
	}
	if len(parts) != wantParts {
		return nil, fmt.Errorf("%w: expected %d fields, got %d in %q", ErrMalformedKey, wantParts, len(parts), s)
	}
	return parts, nil
}

func isEmptyForm(parts []string) bool {
	return len(parts) == 2 && parts[1] == "0"
}

// encodeOrigin renders the origin byte as two hex digits rather than
// relying on rune-to-UTF8 conversion, which would take more than one byte
// for origin values 0x80-0xFF and break the external-string round trip.
func encodeOrigin(origin byte) string {
	return fmt.Sprintf("%02x", origin)
}

func parseHeader(parts []string) (byte, ID, error) {
	if len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("%w: origin must be two hex digits, got %q", ErrMalformedKey, parts[1])
	}
	originNum, err := strconv.ParseUint(parts[1], 16, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: origin %q is not a hex byte: %v", ErrMalformedKey, parts[1], err)
	}
	shardNum, err := strconv.ParseUint(parts[2], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: shard id %q is not a uint16: %v", ErrMalformedKey, parts[2], err)
	}
	return byte(originNum), ID(shardNum), nil
}
