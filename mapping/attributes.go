// Package mapping declares the struct-tag attributes that bind a model's
// fields to parameter names, column names, database types and composite-key
// roles (spec.md §4.C), and validates a type's attributes at build time.
//
// A field is bound one of three ways, chosen by the `shard:"..."` tag:
//
//	Param           ShardKey                                             tag
//	UserID          int    `shard:"param=UserID,column=user_id,dbtype=int,required"`
//	Profile         Profile `shard:"model"`                                  (nested, flattened)
//	ID              shardkey.Key1[int] `shard:"key,origin=U,shard=ShardId,record=UserID:user_id"`
package mapping

import (
	"reflect"
	"strings"

	"github.com/shardkit/shardkit/apperrors"
)

// Kind distinguishes the three binding shapes a struct field may carry.
type Kind int

const (
	KindScalar Kind = iota
	KindModel
	KindKey
)

// KeyRole identifies one component slot of a composite key binding.
type KeyRole int

const (
	RoleRecord KeyRole = iota
	RoleChild
	RoleGrandChild
	RoleGreatGrandChild
)

// RoleBinding names the parameter/column pair that populates one key
// component role.
type RoleBinding struct {
	Role   KeyRole
	Param  string
	Column string
}

// Binding is one model field's mapping metadata, in struct declaration
// order (the order package mapper's buildPlan walks when building a plan).
type Binding struct {
	Kind Kind

	// Field identifies the struct field this binding belongs to.
	Field reflect.StructField

	// KindScalar
	Param    string
	Column   string
	DBType   string
	Required bool

	// KindKey
	Origin     byte
	ShardParam string // parameter holding the ambient shard id; "" means use the invocation-supplied default
	Roles      []RoleBinding
	Arity      int // 1..4, how many of Roles are populated (record is always present)
}

// Build walks typ's fields in declaration order and returns one Binding per
// tagged field. Nested `shard:"model"` fields are NOT recursively expanded
// here — package mapper's buildPlan does that, since only it can detect the cross-type
// cycles spec.md §9 calls out.
//
// Returns apperrors (KindInvalidMapping, KindMissingKeyRole,
// KindMultipleBindings) on malformed tags.
func Build(typ reflect.Type) ([]Binding, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, apperrors.New(apperrors.KindInvalidMapping, "type %s is not a struct", typ)
	}

	var out []Binding
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup("shard")
		if !ok {
			continue
		}
		binding, err := parseTag(field, tag)
		if err != nil {
			return nil, err
		}
		out = append(out, binding)
	}
	return out, nil
}

func parseTag(field reflect.StructField, tag string) (Binding, error) {
	segments := strings.Split(tag, ",")
	if len(segments) == 0 || segments[0] == "" {
		return Binding{}, apperrors.New(apperrors.KindInvalidMapping,
			"field %s: empty shard tag", field.Name)
	}

	switch segments[0] {
	case "model":
		return Binding{Kind: KindModel, Field: field}, nil
	case "key":
		return parseKeyTag(field, segments[1:])
	default:
		return parseScalarTag(field, segments)
	}
}

func parseScalarTag(field reflect.StructField, segments []string) (Binding, error) {
	b := Binding{Kind: KindScalar, Field: field}
	sawScalarShape := false
	for _, seg := range segments {
		k, v, hasV := cutKV(seg)
		switch k {
		case "param":
			b.Param = v
			sawScalarShape = true
		case "column":
			b.Column = v
		case "dbtype":
			b.DBType = v
		case "required":
			b.Required = true
		default:
			if !hasV {
				return Binding{}, apperrors.New(apperrors.KindInvalidMapping,
					"field %s: unrecognized shard tag segment %q", field.Name, seg)
			}
			return Binding{}, apperrors.New(apperrors.KindInvalidMapping,
				"field %s: unrecognized shard tag key %q", field.Name, k)
		}
	}
	if !sawScalarShape {
		return Binding{}, apperrors.New(apperrors.KindInvalidMapping,
			"field %s: scalar binding requires param=", field.Name)
	}
	if b.Param == "" {
		return Binding{}, apperrors.New(apperrors.KindInvalidMapping,
			"field %s: scalar binding requires a non-empty param name", field.Name)
	}
	if b.Column == "" {
		b.Column = b.Param
	}
	return b, nil
}

func parseKeyTag(field reflect.StructField, segments []string) (Binding, error) {
	b := Binding{Kind: KindKey, Field: field}
	haveRecord := false
	for _, seg := range segments {
		k, v, _ := cutKV(seg)
		switch k {
		case "origin":
			if len(v) != 1 {
				return Binding{}, apperrors.New(apperrors.KindInvalidMapping,
					"field %s: origin must be exactly one byte, got %q", field.Name, v)
			}
			b.Origin = v[0]
		case "shard":
			b.ShardParam = v
		case "record":
			rb, err := parseRoleValue(RoleRecord, v, field)
			if err != nil {
				return Binding{}, err
			}
			b.Roles = append(b.Roles, rb)
			haveRecord = true
		case "child":
			rb, err := parseRoleValue(RoleChild, v, field)
			if err != nil {
				return Binding{}, err
			}
			b.Roles = append(b.Roles, rb)
		case "grand":
			rb, err := parseRoleValue(RoleGrandChild, v, field)
			if err != nil {
				return Binding{}, err
			}
			b.Roles = append(b.Roles, rb)
		case "greatgrand":
			rb, err := parseRoleValue(RoleGreatGrandChild, v, field)
			if err != nil {
				return Binding{}, err
			}
			b.Roles = append(b.Roles, rb)
		default:
			return Binding{}, apperrors.New(apperrors.KindInvalidMapping,
				"field %s: unrecognized key tag key %q", field.Name, k)
		}
	}
	if b.Origin == 0 {
		return Binding{}, apperrors.New(apperrors.KindInvalidMapping,
			"field %s: key binding requires origin=", field.Name)
	}
	if !haveRecord {
		return Binding{}, apperrors.New(apperrors.KindMissingKeyRole,
			"field %s: key binding is missing the required record role", field.Name)
	}

	arity, err := arityOf(field.Type)
	if err != nil {
		return Binding{}, err
	}
	b.Arity = arity
	if err := validateRoleCompleteness(field, arity, b.Roles); err != nil {
		return Binding{}, err
	}
	return b, nil
}

func parseRoleValue(role KeyRole, v string, field reflect.StructField) (RoleBinding, error) {
	param, column, ok := strings.Cut(v, ":")
	if param == "" {
		return RoleBinding{}, apperrors.New(apperrors.KindInvalidMapping,
			"field %s: role value %q must name a parameter", field.Name, v)
	}
	if !ok || column == "" {
		column = param
	}
	return RoleBinding{Role: role, Param: param, Column: column}, nil
}

func cutKV(seg string) (key, value string, hasValue bool) {
	k, v, found := strings.Cut(seg, "=")
	if !found {
		return strings.TrimSpace(k), "", false
	}
	return strings.TrimSpace(k), strings.TrimSpace(v), true
}

// arityOf maps a shardkey.KeyN[...] field type to its arity (1..4) by name,
// since the generic instantiation's type arguments are erased from the
// reflect.Type name only in formatting, not in identity — we match on the
// base generic name instead of trying to decode type parameters.
func arityOf(t reflect.Type) (int, error) {
	name := t.Name()
	switch {
	case strings.HasPrefix(name, "Key1["):
		return 1, nil
	case strings.HasPrefix(name, "Key2["):
		return 2, nil
	case strings.HasPrefix(name, "Key3["):
		return 3, nil
	case strings.HasPrefix(name, "Key4["):
		return 4, nil
	default:
		return 0, apperrors.New(apperrors.KindInvalidMapping,
			"type %s is not a recognized shardkey.KeyN type", t)
	}
}

func validateRoleCompleteness(field reflect.StructField, arity int, roles []RoleBinding) error {
	wantRoles := []KeyRole{RoleRecord, RoleChild, RoleGrandChild, RoleGreatGrandChild}[:arity]
	have := make(map[KeyRole]bool, len(roles))
	for _, r := range roles {
		if have[r.Role] {
			return apperrors.New(apperrors.KindMultipleBindings,
				"field %s: role %d is bound more than once", field.Name, r.Role)
		}
		have[r.Role] = true
	}
	for _, want := range wantRoles {
		if !have[want] {
			return apperrors.New(apperrors.KindMissingKeyRole,
				"field %s: arity-%d key is missing role %d", field.Name, arity, want)
		}
	}
	return nil
}
