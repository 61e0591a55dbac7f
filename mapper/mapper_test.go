package mapper

import (
	"reflect"
	"testing"

	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
	"github.com/stretchr/testify/require"
)

type userRecord struct {
	ID   shardkey.Key1[int] `shard:"key,origin=U,shard=ShardId,record=UserID:user_id"`
	Name string             `shard:"param=Name,column=name,dbtype=nvarchar,required"`
}

func TestInParamsWritesScalarAndKeyRoles(t *testing.T) {
	key, err := shardkey.New1[int]('U', 3, 42)
	require.NoError(t, err)
	model := userRecord{ID: key, Name: "Ada"}

	m, err := For(reflect.TypeOf(userRecord{}))
	require.NoError(t, err)

	params := dbparams.New()
	require.NoError(t, m.InParams(&model, params, shardkey.ID(7)))

	name, ok := params.Get("Name")
	require.True(t, ok)
	require.Equal(t, "Ada", name)

	uid, ok := params.Get("UserID")
	require.True(t, ok)
	require.Equal(t, 42, uid)

	shard, ok := params.Get("ShardId")
	require.True(t, ok)
	require.Equal(t, uint16(7), shard)
}

func TestInParamsWritesNullForEmptyKey(t *testing.T) {
	model := userRecord{Name: "Ada"}
	m, err := For(reflect.TypeOf(userRecord{}))
	require.NoError(t, err)

	params := dbparams.New()
	require.NoError(t, m.InParams(&model, params, shardkey.ID(7)))

	uid, ok := params.Get("UserID")
	require.True(t, ok)
	require.Nil(t, uid)
}

func TestOutParamsReservesOnePerBoundField(t *testing.T) {
	m, err := For(reflect.TypeOf(userRecord{}))
	require.NoError(t, err)

	params := dbparams.New()
	require.NoError(t, m.OutParams(params))
	require.Equal(t, 2, params.Len())
}

func TestReadOutAssemblesModel(t *testing.T) {
	m, err := For(reflect.TypeOf(userRecord{}))
	require.NoError(t, err)

	params := dbparams.New()
	require.NoError(t, params.Append("UserID", 42))
	require.NoError(t, params.Append("Name", "Ada"))

	modelAny, err := m.ReadOut(params, shardkey.ID(7))
	require.NoError(t, err)

	rec, ok := modelAny.(*userRecord)
	require.True(t, ok)
	require.Equal(t, "Ada", rec.Name)
	require.Equal(t, 42, rec.ID.RecordID())
	require.Equal(t, shardkey.ID(7), rec.ID.ShardID())
	require.Equal(t, byte('U'), rec.ID.Origin())
}

type fakeScanner struct {
	values []any
}

func (f *fakeScanner) Scan(dest ...any) error {
	for i, d := range dest {
		ptr := d.(*any)
		*ptr = f.values[i]
	}
	return nil
}

func TestResolveOrdinalsAndDecodeRow(t *testing.T) {
	m, err := For(reflect.TypeOf(userRecord{}))
	require.NoError(t, err)

	columns := []string{"name", "user_id", "extra"}
	ordinals, err := m.ResolveOrdinals(columns)
	require.NoError(t, err)

	scan := &fakeScanner{values: []any{"Ada", int64(42), nil}}
	modelAny, err := m.DecodeRow(scan, ordinals, len(columns), shardkey.ID(7))
	require.NoError(t, err)

	rec, ok := modelAny.(*userRecord)
	require.True(t, ok)
	require.Equal(t, "Ada", rec.Name)
	require.Equal(t, 42, rec.ID.RecordID())
	require.Equal(t, shardkey.ID(7), rec.ID.ShardID())
}

func TestResolveOrdinalsMissingRequiredColumn(t *testing.T) {
	m, err := For(reflect.TypeOf(userRecord{}))
	require.NoError(t, err)
	_, err = m.ResolveOrdinals([]string{"user_id"})
	require.Error(t, err)
}

func TestForCachesSameMapperInstance(t *testing.T) {
	a, err := For(reflect.TypeOf(userRecord{}))
	require.NoError(t, err)
	b, err := For(reflect.TypeOf(userRecord{}))
	require.NoError(t, err)
	require.Same(t, a, b)
}
