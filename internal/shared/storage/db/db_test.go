package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                   { return nil }
func (nopStmt) NumInput() int                                  { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func resetSingleton() {
	singletonMu.Lock()
	singletonDB = nil
	singletonInFly = false
	singletonMu.Unlock()
}

func TestGetSingletonReturnsSamePointer(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetSingleton()

	db1, err := GetSingleton(context.Background(), "postgres://lambda", DefaultLambdaOptions())
	require.NoError(t, err)
	db2, err := GetSingleton(context.Background(), "postgres://lambda", DefaultLambdaOptions())
	require.NoError(t, err)
	assert.Same(t, db1, db2)
	assert.Equal(t, 2, db1.Stats().MaxOpenConnections)
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	var calls int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		return sql.Open("dbtest", dsn)
	}
	defer func() { openDB = prev }()
	ensureTestDriverRegistered()
	resetSingleton()

	_, err := GetSingleton(context.Background(), "postgres://lambda", DefaultLambdaOptions())
	require.Error(t, err)

	db, err := GetSingleton(context.Background(), "postgres://lambda", DefaultLambdaOptions())
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "postgres://server", opts)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
	assert.Equal(t, 3, opts.MaxIdleConns)
	assert.Equal(t, 20*time.Minute, opts.ConnMaxLifetime)
	assert.Equal(t, 45*time.Second, opts.ConnMaxIdleTime)
	assert.Equal(t, time.Second, opts.PingTimeout)
}

func TestOptionsFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	opts := OptionsFromEnv(DefaultMigrateOptions())
	assert.Equal(t, DefaultMigrateOptions(), opts)
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "  ", DefaultServerOptions())
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestIsLambdaRuntime(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	assert.False(t, IsLambdaRuntime())
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "skillgap-cron")
	assert.True(t, IsLambdaRuntime())
}

func TestMigrationHelpersRequireDatabase(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil))
	assert.Error(t, RollbackMigration(context.Background(), nil))
	_, err := MigrationVersion(context.Background(), nil)
	assert.Error(t, err)
}

func TestEmbeddedSchemaCoversPipelineTables(t *testing.T) {
	raw, err := migrationFiles.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)
	schema := string(raw)

	assert.True(t, strings.HasPrefix(strings.TrimSpace(schema), "-- +goose Up"))
	assert.Contains(t, schema, "-- +goose Down")
	for _, table := range []string{
		"profiles", "user_preferred_roles", "user_api_keys", "admin_api_keys",
		"user_skills", "skill_trends", "fetched_jobs", "fetched_discussions",
		"skill_gap_analyses", "reports", "batch_runs",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}

func TestCloseKeepsSingletonOpen(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetSingleton()

	shared, err := GetSingleton(context.Background(), "postgres://lambda", DefaultLambdaOptions())
	require.NoError(t, err)
	require.NoError(t, Close(shared))
	assert.NoError(t, shared.PingContext(context.Background()))

	own, err := Connect(context.Background(), "postgres://server", DefaultServerOptions())
	require.NoError(t, err)
	require.NoError(t, Close(own))
	assert.Error(t, own.PingContext(context.Background()))
	assert.NoError(t, Close(nil))
	resetSingleton()
}
