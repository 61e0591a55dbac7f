package dbparams

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndGet(t *testing.T) {
	c := New()
	require.NoError(t, c.Append("UserID", 42))
	v, ok := c.Get("UserID")
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestAppendDuplicateNameRejected(t *testing.T) {
	c := New()
	require.NoError(t, c.Append("UserID", 42))
	err := c.Append("UserID", 43)
	require.Error(t, err)
}

func TestOrdinalAccess(t *testing.T) {
	c := New()
	require.NoError(t, c.Append("A", 1))
	require.NoError(t, c.Append("B", 2))
	p, ok := c.At(1)
	require.True(t, ok)
	require.Equal(t, "B", p.Name)

	_, ok = c.At(5)
	require.False(t, ok)
}

func TestSetShardID(t *testing.T) {
	c := New()
	require.NoError(t, c.Append("ShardId", uint16(0)))
	require.NoError(t, c.SetShardID(0, 7))
	v, _ := c.Get("ShardId")
	require.Equal(t, uint16(7), v)
}

func TestIgnoreSet(t *testing.T) {
	c := New()
	c.Ignore("UserID")
	require.True(t, c.IsIgnored("UserID"))
	require.False(t, c.IsIgnored("OrderID"))
}

func TestCloneIsIndependent(t *testing.T) {
	c := New()
	require.NoError(t, c.Append("A", 1))
	c.Ignore("A")

	clone := c.Clone()
	require.NoError(t, clone.SetValueAt(0, 99))
	clone.Ignore("B")

	original, _ := c.Get("A")
	require.Equal(t, 1, original)
	require.False(t, c.IsIgnored("B"))
	require.True(t, clone.IsIgnored("A"))
}
