package shardkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey1RoundTrip(t *testing.T) {
	k, err := New1[int]('U', 7, 123)
	require.NoError(t, err)
	require.Equal(t, "v1:55:7:123", k.ToExternalString())

	parsed, err := ParseKey1[int]("v1:55:7:123")
	require.NoError(t, err)
	require.True(t, k.Equal(parsed))
}

func TestKey1RoundTripString(t *testing.T) {
	k, err := New1[string]('O', 42, "order/99")
	require.NoError(t, err)
	s := k.ToExternalString()

	parsed, err := ParseKey1[string](s)
	require.NoError(t, err)
	require.True(t, k.Equal(parsed))
}

func TestEmptyKeyRoundTrip(t *testing.T) {
	e := Empty1[int]()
	require.True(t, e.IsEmpty())

	parsed, err := ParseKey1[int](e.ToExternalString())
	require.NoError(t, err)
	require.True(t, parsed.IsEmpty())
	require.True(t, e.Equal(parsed))
}

func TestKey1RoundTripHighByteOrigin(t *testing.T) {
	for _, origin := range []byte{0x80, 0xAB, 0xFF} {
		k, err := New1[int](origin, 7, 123)
		require.NoError(t, err)

		parsed, err := ParseKey1[int](k.ToExternalString())
		require.NoError(t, err)
		require.True(t, k.Equal(parsed))
		require.Equal(t, origin, parsed.Origin())
	}
}

func TestNewRejectsZeroOrigin(t *testing.T) {
	_, err := New1[int](0, 1, 2)
	require.ErrorIs(t, err, ErrOrigin)
}

func TestKey4RoundTrip(t *testing.T) {
	k, err := New4[int, int, int, string]('A', 3, 1, 2, 3, "gg")
	require.NoError(t, err)
	s := k.ToExternalString()

	parsed, err := ParseKey4[int, int, int, string](s)
	require.NoError(t, err)
	require.True(t, k.Equal(parsed))
}

func TestParseMalformed(t *testing.T) {
	_, err := ParseKey1[int]("garbage")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMalformedKey))
}

func TestParseWrongArity(t *testing.T) {
	k, _ := New2[int, int]('U', 1, 2, 3)
	_, err := ParseKey1[int](k.ToExternalString())
	require.ErrorIs(t, err, ErrMalformedKey)
}

func TestEquality(t *testing.T) {
	a, _ := New1[int]('U', 1, 1)
	b, _ := New1[int]('U', 1, 1)
	c, _ := New1[int]('U', 1, 2)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}
