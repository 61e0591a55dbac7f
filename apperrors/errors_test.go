package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(KindNoMappingAttributesFound, "type %s has no bindings", "Widget")
	require.Equal(t, "NoMappingAttributesFound: type Widget has no bindings", err.Error())
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, KindMalformedKey, "bad key")
	require.ErrorIs(t, err, cause)
}

func TestIsMatchesOnKind(t *testing.T) {
	err := New(KindMissingKeyRole, "ChildID required")
	require.True(t, errors.Is(err, New(KindMissingKeyRole, "")))
	require.False(t, errors.Is(err, New(KindInvalidMapping, "")))
}
