package connection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shardkit/shardkit/dbparams"
)

// Observer receives per-query outcome and duration. Manager calls it, when
// set, around every Query/Exec — kept as a minimal interface rather than an
// import of a specific metrics library so connection has no dependency on
// how (or whether) a caller chooses to observe it.
type Observer interface {
	ObserveQuery(shardID, operation string, err error, duration time.Duration)
}

// Manager owns one *sql.DB (one shard instance's connection pool) and the
// read/write resilience policies every operation against it runs through.
// It never knows about models or shard keys — that's mapper and shardset's
// job; Manager only knows query text, a dbparams.Collection, and a policy.
type Manager struct {
	db          *sql.DB
	readPolicy  Policy
	writePolicy Policy

	observer Observer
	shardID  string
}

// Observe attaches obs to m, labeling every subsequent call with shardID.
// Calling it with a nil obs disables observation.
func (m *Manager) Observe(obs Observer, shardID string) {
	m.observer = obs
	m.shardID = shardID
}

func (m *Manager) record(operation string, err error, start time.Time) {
	if m.observer == nil {
		return
	}
	m.observer.ObserveQuery(m.shardID, operation, err, time.Since(start))
}

// Open opens a connection pool with driverName ("postgres", "mysql", ...)
// and pings it once before returning, matching the teacher's
// router.getConnection eager-validation behavior.
func Open(ctx context.Context, driverName, dsn string, readPolicy, writePolicy Policy) (*Manager, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connection: open %s: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connection: ping %s: %w", driverName, err)
	}
	if readPolicy == nil {
		readPolicy = NoopPolicy{}
	}
	if writePolicy == nil {
		writePolicy = NoopPolicy{}
	}
	return &Manager{db: db, readPolicy: readPolicy, writePolicy: writePolicy}, nil
}

// NewWithDB builds a Manager around an already-open *sql.DB, for callers
// (and tests) that construct the pool themselves — e.g. a sqlmock.DB.
func NewWithDB(db *sql.DB, readPolicy, writePolicy Policy) *Manager {
	if readPolicy == nil {
		readPolicy = NoopPolicy{}
	}
	if writePolicy == nil {
		writePolicy = NoopPolicy{}
	}
	return &Manager{db: db, readPolicy: readPolicy, writePolicy: writePolicy}
}

// Close closes the underlying pool.
func (m *Manager) Close() error { return m.db.Close() }

// DB exposes the underlying pool for callers (e.g. Batch's caller building
// a shared *sql.Conn) that need it directly.
func (m *Manager) DB() *sql.DB { return m.db }

func (m *Manager) policyFor(isRead bool) Policy {
	if isRead {
		return m.readPolicy
	}
	return m.writePolicy
}

// stateReporter is satisfied by policies that track a circuit breaker
// state — currently only BreakerPolicy. NoopPolicy and other future
// policies that don't wrap a breaker simply don't implement it.
type stateReporter interface {
	State() string
}

// BreakerState reports the write policy's circuit breaker state, if it has
// one. ok is false when the policy in use carries no breaker (e.g. a
// NoopPolicy), not when the breaker is merely closed.
func (m *Manager) BreakerState() (state string, ok bool) {
	sr, ok := m.writePolicy.(stateReporter)
	if !ok {
		return "", false
	}
	return sr.State(), true
}

// argsFromParams builds driver call args from a Collection's input-bound
// parameters, in append order. Output-only placeholders carry no value to
// send to the driver — the caller's handler reads them back out of the
// result set or row instead, since database/sql has no portable concept of
// a named OUT parameter across postgres/mysql.
func argsFromParams(params *dbparams.Collection) []any {
	all := params.All()
	args := make([]any, 0, len(all))
	for _, p := range all {
		if p.Direction == dbparams.DirectionOut {
			continue
		}
		args = append(args, p.Value)
	}
	return args
}

// ResultHandler converts a live *sql.Rows into a T. The connection manager
// hands the handler the raw rows and is finished — decoding model shape is
// entirely the caller's (mapper's) concern.
type ResultHandler[T any] func(rows *sql.Rows) (T, error)

// Query runs query through the isRead/write policy and passes the resulting
// *sql.Rows to handler, closing rows when handler returns.
func Query[T any](ctx context.Context, m *Manager, query string, params *dbparams.Collection, isRead bool, handler ResultHandler[T]) (T, error) {
	start := time.Now()
	var result T
	err := m.policyFor(isRead).Execute(ctx, func(ctx context.Context) error {
		rows, err := m.db.QueryContext(ctx, query, argsFromParams(params)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		result, err = handler(rows)
		return err
	})
	m.record("query", err, start)
	return result, err
}

// List runs query and scans a single column into a []V.
func List[V any](ctx context.Context, m *Manager, query string, params *dbparams.Collection, isRead bool) ([]V, error) {
	return Query(ctx, m, query, params, isRead, func(rows *sql.Rows) ([]V, error) {
		var out []V
		for rows.Next() {
			var v V
			if err := rows.Scan(&v); err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, rows.Err()
	})
}

// Pair2 is the two-column tuple List2 returns.
type Pair2[A, B any] struct {
	First  A
	Second B
}

// List2 runs query and scans two columns per row into a []Pair2.
func List2[A, B any](ctx context.Context, m *Manager, query string, params *dbparams.Collection, isRead bool) ([]Pair2[A, B], error) {
	return Query(ctx, m, query, params, isRead, func(rows *sql.Rows) ([]Pair2[A, B], error) {
		var out []Pair2[A, B]
		for rows.Next() {
			var pair Pair2[A, B]
			if err := rows.Scan(&pair.First, &pair.Second); err != nil {
				return nil, err
			}
			out = append(out, pair)
		}
		return out, rows.Err()
	})
}

// Pair3 is the three-column tuple List3 returns.
type Pair3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// List3 runs query and scans three columns per row into a []Pair3.
func List3[A, B, C any](ctx context.Context, m *Manager, query string, params *dbparams.Collection, isRead bool) ([]Pair3[A, B, C], error) {
	return Query(ctx, m, query, params, isRead, func(rows *sql.Rows) ([]Pair3[A, B, C], error) {
		var out []Pair3[A, B, C]
		for rows.Next() {
			var t Pair3[A, B, C]
			if err := rows.Scan(&t.First, &t.Second, &t.Third); err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, rows.Err()
	})
}

// Run executes query for effect, discarding any result set.
func Run(ctx context.Context, m *Manager, query string, params *dbparams.Collection, isRead bool) error {
	_, err := Exec(ctx, m, query, params, isRead)
	return err
}

// Exec executes query for effect and returns the driver's sql.Result, for
// callers that need it (e.g. LastInsertId to populate an output parameter
// database/sql itself has no portable way to bind — see argsFromParams).
func Exec(ctx context.Context, m *Manager, query string, params *dbparams.Collection, isRead bool) (sql.Result, error) {
	start := time.Now()
	var result sql.Result
	err := m.policyFor(isRead).Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = m.db.ExecContext(ctx, query, argsFromParams(params)...)
		return err
	})
	m.record("exec", err, start)
	return result, err
}

// Statement is one query in a Batch.
type Statement struct {
	Query  string
	Params *dbparams.Collection
}

// Batch executes statements in order within a single *sql.Conn, so they
// share one connection scope (e.g. session-level settings, temp tables)
// without requiring a transaction. The whole batch runs inside one Execute
// of the write policy.
func Batch(ctx context.Context, m *Manager, statements []Statement) error {
	return m.writePolicy.Execute(ctx, func(ctx context.Context) error {
		conn, err := m.db.Conn(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		for i, st := range statements {
			if _, err := conn.ExecContext(ctx, st.Query, argsFromParams(st.Params)...); err != nil {
				return fmt.Errorf("connection: batch statement %d: %w", i, err)
			}
		}
		return nil
	})
}
