package runtime

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), &Config{URL: filepath.Join(t.TempDir(), "runtime.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url        string
		wantDriver Driver
		wantDSN    string
		wantErr    bool
	}{
		{url: "shop.db", wantDriver: DriverSQLite, wantDSN: "shop.db"},
		{url: "./data/../shop.db", wantDriver: DriverSQLite, wantDSN: "shop.db"},
		{url: "sqlite:///tmp/shop.db", wantDriver: DriverSQLite, wantDSN: "/tmp/shop.db"},
		{url: "file:shop.db?mode=rwc", wantDriver: DriverSQLite, wantDSN: "file:shop.db?mode=rwc"},
		{url: "postgres://u:p@localhost:5432/shop", wantDriver: DriverPostgres, wantDSN: "postgres://u:p@localhost:5432/shop"},
		{url: "postgresql://localhost/shop", wantDriver: DriverPostgres, wantDSN: "postgresql://localhost/shop"},
		{url: "   ", wantErr: true},
		{url: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, dsn, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestOpen_SQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	assert.Equal(t, DriverSQLite, db.Driver())
	assert.Equal(t, DriverSQLite, db.Dialect().Name())
	require.NoError(t, db.Ping(ctx))

	_, err := db.Exec(ctx, `CREATE TABLE things (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)

	n, err := db.Exec(ctx, `INSERT INTO things (name) VALUES (?), (?)`, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := db.Query(ctx, `SELECT id, name FROM things ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)

	var names []string
	for rows.Next() {
		var id int64
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestClose_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err := db.Exec(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNoConnection)
	assert.ErrorIs(t, db.Ping(context.Background()), ErrNoConnection)
}

func TestUniqueViolation_SQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, `CREATE TABLE people (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO people (email) VALUES (?)`, "a@example.com")
	require.NoError(t, err)

	_, err = db.Exec(ctx, `INSERT INTO people (email) VALUES (?)`, "a@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	var queryErr *QueryError
	require.True(t, errors.As(err, &queryErr))
	assert.Contains(t, queryErr.Query, "INSERT INTO people")
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestCheckViolation_SQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, `CREATE TABLE people (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL CHECK (name <> ''))`)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `INSERT INTO people (name) VALUES (?)`, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCheckViolation)
	assert.True(t, IsCheckViolation(err))
	assert.False(t, IsUniqueViolation(err))
}

func TestClassify_Postgres(t *testing.T) {
	unique := classify(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	assert.ErrorIs(t, unique, ErrDuplicateKey)
	assert.Contains(t, unique.Error(), "violates unique constraint")

	fk := classify(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})
	assert.ErrorIs(t, fk, ErrForeignKeyViolation)

	check := classify(&pgconn.PgError{Code: "23514", Message: "violates check constraint"})
	assert.ErrorIs(t, check, ErrCheckViolation)

	other := &pgconn.PgError{Code: "42P01"}
	assert.Same(t, error(other), classify(other))
	assert.NoError(t, classify(nil))
}

func TestReferenceError(t *testing.T) {
	err := error(&ReferenceError{Table: "purchases", Column: "customer_id", ReferencedTable: "customers", Value: int64(42)})
	assert.ErrorIs(t, err, ErrForeignKeyViolation)
	assert.Equal(t, "purchases.customer_id = 42 references a missing customers row", err.Error())
}

func TestTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, `CREATE TABLE counters (id INTEGER PRIMARY KEY AUTOINCREMENT, n INTEGER NOT NULL)`)
	require.NoError(t, err)

	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := db.Begin(ctx)
		require.NoError(t, err)
		_, err = tx.Exec(ctx, `INSERT INTO counters (n) VALUES (?)`, 1)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback(ctx))

		assert.Equal(t, 0, countRows(t, db, "counters"))
	})

	t.Run("commit persists writes", func(t *testing.T) {
		tx, err := db.Begin(ctx)
		require.NoError(t, err)
		_, err = tx.Exec(ctx, `INSERT INTO counters (n) VALUES (?)`, 2)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		assert.Equal(t, 1, countRows(t, db, "counters"))
	})

	t.Run("closed transaction", func(t *testing.T) {
		tx, err := db.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		_, err = tx.Exec(ctx, `INSERT INTO counters (n) VALUES (?)`, 3)
		assert.ErrorIs(t, err, ErrTransactionClosed)
		_, err = tx.Query(ctx, `SELECT n FROM counters`)
		assert.ErrorIs(t, err, ErrTransactionClosed)
		assert.ErrorIs(t, tx.Commit(ctx), ErrTransactionClosed)
		assert.NoError(t, tx.Rollback(ctx))
	})
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	rows, err := db.Query(context.Background(), "SELECT COUNT(*) FROM "+table)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	return n
}
