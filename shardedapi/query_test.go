package shardedapi

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
)

func TestQueryForwardsToFanOutTagged(t *testing.T) {
	inst1, _ := newMockShard(t, 1)
	inst2, _ := newMockShard(t, 2)
	a, base, ordinal := newTestAPI(inst1, inst2)

	handler := func(ctx context.Context, mgr *connection.Manager, params *dbparams.Collection) (*int, error) {
		v, _ := params.Get("ShardId")
		n := int(v.(uint16))
		return &n, nil
	}

	tagged, err := Query[int](context.Background(), a, base, nil, handler)
	require.NoError(t, err)
	require.Len(t, tagged, 2)
	require.Equal(t, 0, ordinal)
}

func TestBatchForwardsToBatchFanOut(t *testing.T) {
	inst1, mock1 := newMockShard(t, 1)
	a, _, _ := newTestAPI(inst1)

	mock1.ExpectExec("UPDATE widgets").WillReturnResult(sqlmock.NewResult(0, 1))

	err := Batch(context.Background(), a, nil, func(id shardkey.ID) []connection.Statement {
		return []connection.Statement{{Query: "UPDATE widgets SET touched = 1", Params: dbparams.New()}}
	})
	require.NoError(t, err)
	require.NoError(t, mock1.ExpectationsWereMet())
}
