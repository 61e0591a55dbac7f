package connection

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/shardkit/shardkit/dbparams"
)

func TestListScansSingleColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM widgets").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").AddRow("b"))

	m := NewWithDB(db, NoopPolicy{}, NoopPolicy{})
	names, err := List[string](context.Background(), m, "SELECT name FROM widgets", dbparams.New(), true)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunExecutesForEffect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE widgets").WithArgs("Ada", 42).WillReturnResult(sqlmock.NewResult(0, 1))

	params := dbparams.New()
	require.NoError(t, params.Append("Name", "Ada"))
	require.NoError(t, params.Append("ID", 42))

	m := NewWithDB(db, NoopPolicy{}, NoopPolicy{})
	require.NoError(t, Run(context.Background(), m, "UPDATE widgets SET name=? WHERE id=?", params, false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRunsStatementsOnOneConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("SET LOCAL").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO widgets").WillReturnResult(sqlmock.NewResult(1, 1))

	m := NewWithDB(db, NoopPolicy{}, NoopPolicy{})
	err = Batch(context.Background(), m, []Statement{
		{Query: "SET LOCAL lock_timeout = '2s'", Params: dbparams.New()},
		{Query: "INSERT INTO widgets (name) VALUES (?)", Params: func() *dbparams.Collection {
			p := dbparams.New()
			_ = p.Append("Name", "Ada")
			return p
		}()},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArgsFromParamsSkipsOutputPlaceholders(t *testing.T) {
	params := dbparams.New()
	require.NoError(t, params.Append("Name", "Ada"))
	require.NoError(t, params.AppendOut("NewID", "int"))

	args := argsFromParams(params)
	require.Equal(t, []any{"Ada"}, args)
}

type recordingObserver struct {
	shardID   string
	operation string
	err       error
	called    bool
}

func (o *recordingObserver) ObserveQuery(shardID, operation string, err error, _ time.Duration) {
	o.shardID = shardID
	o.operation = operation
	o.err = err
	o.called = true
}

func TestObserveReportsQueryOutcome(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM widgets").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a"))

	obs := &recordingObserver{}
	m := NewWithDB(db, NoopPolicy{}, NoopPolicy{})
	m.Observe(obs, "shard-1")

	_, err = List[string](context.Background(), m, "SELECT name FROM widgets", dbparams.New(), true)
	require.NoError(t, err)

	require.True(t, obs.called)
	require.Equal(t, "shard-1", obs.shardID)
	require.Equal(t, "query", obs.operation)
	require.NoError(t, obs.err)
}

func TestObserveIsNilSafeByDefault(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM widgets").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	m := NewWithDB(db, NoopPolicy{}, NoopPolicy{})
	_, err = List[string](context.Background(), m, "SELECT name FROM widgets", dbparams.New(), true)
	require.NoError(t, err)
}

func TestBreakerStateFalseForNoopPolicy(t *testing.T) {
	m := NewWithDB(nil, NoopPolicy{}, NoopPolicy{})
	_, ok := m.BreakerState()
	require.False(t, ok)
}

func TestBreakerStateReportsWritePolicyBreaker(t *testing.T) {
	breaker := NewBreakerPolicy(BreakerConfig{Name: "test"}, nil)
	m := NewWithDB(nil, NoopPolicy{}, breaker)

	state, ok := m.BreakerState()
	require.True(t, ok)
	require.Equal(t, "closed", state)
}
