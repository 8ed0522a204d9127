package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

// Driver identifies a storage backend.
type Driver string

const (
	// DriverSQLite stores everything in a single local file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres talks to a PostgreSQL server.
	DriverPostgres Driver = "postgres"
)

// DefaultURL is the storage location used when none is configured.
const DefaultURL = "shop.db"

// Config represents database configuration.
type Config struct {
	// URL is a file path, a sqlite:// or file: URL, or a postgres:// URL.
	URL         string
	MaxConns    int32
	BusyTimeout time.Duration
	Logger      *slog.Logger
}

// DefaultConfig returns a default database configuration.
func DefaultConfig() *Config {
	return &Config{
		URL:         DefaultURL,
		MaxConns:    1,
		BusyTimeout: 5 * time.Second,
	}
}

// Rows is the cursor returned by Query.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}

// Querier executes statements. Both DB and Tx implement it.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Dialect() Dialect
}

// DB represents a database connection.
type DB struct {
	driver  Driver
	dialect Dialect
	sqlDB   *sql.DB
	pool    *pgxpool.Pool
	logger  *slog.Logger
	target  string
}

// ParseURL splits a storage URL into its driver and the DSN handed to it.
func ParseURL(url string) (Driver, string, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return "", "", fmt.Errorf("storage URL is required")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite URL %q has no path", url)
		}
		return DriverSQLite, path, nil
	case strings.HasPrefix(url, "file:"):
		return DriverSQLite, url, nil
	default:
		return DriverSQLite, filepath.Clean(url), nil
	}
}

// Open opens exactly one handle to the configured store and verifies it.
func Open(ctx context.Context, config *Config) (*DB, error) {
	if config == nil {
		config = DefaultConfig()
	}

	driver, dsn, err := ParseURL(config.URL)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch driver {
	case DriverPostgres:
		return openPostgres(ctx, dsn, config, logger)
	default:
		return openSQLite(ctx, dsn, config, logger)
	}
}

func openSQLite(ctx context.Context, path string, config *Config, logger *slog.Logger) (*DB, error) {
	timeout := config.BusyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// Foreign keys stay off: references are checked by the session so that
	// non-cascading parents can be removed without touching their children.
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", path, sep, timeout.Milliseconds())

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps the file single-writer and the session on
	// one handle for the whole run.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	logger.Debug("storage opened", "driver", DriverSQLite, "path", path)
	return &DB{
		driver:  DriverSQLite,
		dialect: DialectFor(DriverSQLite),
		sqlDB:   sqlDB,
		logger:  logger,
		target:  path,
	}, nil
}

func openPostgres(ctx context.Context, url string, config *Config, logger *slog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	poolConfig.MaxConns = 1
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Debug("storage opened", "driver", DriverPostgres, "host", poolConfig.ConnConfig.Host, "database", poolConfig.ConnConfig.Database)
	return &DB{
		driver:  DriverPostgres,
		dialect: DialectFor(DriverPostgres),
		pool:    pool,
		logger:  logger,
		target:  poolConfig.ConnConfig.Database,
	}, nil
}

// Driver returns the backend in use.
func (db *DB) Driver() Driver {
	return db.driver
}

// Dialect returns the SQL dialect of the backend.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Target names what the handle is connected to: the file path for SQLite,
// the database name for PostgreSQL.
func (db *DB) Target() string {
	return db.target
}

// Close closes the database connection. Calling it again is a no-op.
func (db *DB) Close() error {
	var err error
	if db.sqlDB != nil {
		err = db.sqlDB.Close()
		db.sqlDB = nil
	}
	if db.pool != nil {
		db.pool.Close()
		db.pool = nil
	}
	return err
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	switch {
	case db.sqlDB != nil:
		return db.sqlDB.PingContext(ctx)
	case db.pool != nil:
		return db.pool.Ping(ctx)
	default:
		return ErrNoConnection
	}
}

// Begin starts a new transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx := &Tx{dialect: db.dialect, logger: db.logger}
	switch {
	case db.sqlDB != nil:
		sqlTx, err := db.sqlDB.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		tx.sqlTx = sqlTx
	case db.pool != nil:
		pgxTx, err := db.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		tx.pgxTx = pgxTx
	default:
		return nil, ErrNoConnection
	}
	return tx, nil
}

// Exec executes a query without returning any rows.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	db.logger.Debug("exec", "sql", query, "args", args)
	switch {
	case db.sqlDB != nil:
		result, err := db.sqlDB.ExecContext(ctx, query, args...)
		return rowsAffected(query, result, err)
	case db.pool != nil:
		tag, err := db.pool.Exec(ctx, query, args...)
		if err != nil {
			return 0, newQueryError(query, err)
		}
		return tag.RowsAffected(), nil
	default:
		return 0, ErrNoConnection
	}
}

// Query executes a query that returns rows.
func (db *DB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	db.logger.Debug("query", "sql", query, "args", args)
	switch {
	case db.sqlDB != nil:
		rows, err := db.sqlDB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, newQueryError(query, err)
		}
		return sqlRows{Rows: rows, query: query}, nil
	case db.pool != nil:
		rows, err := db.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, newQueryError(query, err)
		}
		return pgxRows{Rows: rows, query: query}, nil
	default:
		return nil, ErrNoConnection
	}
}

// Tx is a transaction on a DB.
type Tx struct {
	dialect Dialect
	logger  *slog.Logger
	sqlTx   *sql.Tx
	pgxTx   pgx.Tx
	closed  bool
}

// Dialect returns the SQL dialect of the backend.
func (tx *Tx) Dialect() Dialect {
	return tx.dialect
}

// Exec executes a query within the transaction.
func (tx *Tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if tx.closed {
		return 0, ErrTransactionClosed
	}
	tx.logger.Debug("exec", "sql", query, "args", args, "tx", true)
	if tx.sqlTx != nil {
		result, err := tx.sqlTx.ExecContext(ctx, query, args...)
		return rowsAffected(query, result, err)
	}
	tag, err := tx.pgxTx.Exec(ctx, query, args...)
	if err != nil {
		return 0, newQueryError(query, err)
	}
	return tag.RowsAffected(), nil
}

// Query executes a query within the transaction.
func (tx *Tx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	if tx.closed {
		return nil, ErrTransactionClosed
	}
	tx.logger.Debug("query", "sql", query, "args", args, "tx", true)
	if tx.sqlTx != nil {
		rows, err := tx.sqlTx.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, newQueryError(query, err)
		}
		return sqlRows{Rows: rows, query: query}, nil
	}
	rows, err := tx.pgxTx.Query(ctx, query, args...)
	if err != nil {
		return nil, newQueryError(query, err)
	}
	return pgxRows{Rows: rows, query: query}, nil
}

// Commit commits the transaction.
func (tx *Tx) Commit(ctx context.Context) error {
	if tx.closed {
		return ErrTransactionClosed
	}
	tx.closed = true
	if tx.sqlTx != nil {
		return classify(tx.sqlTx.Commit())
	}
	return classify(tx.pgxTx.Commit(ctx))
}

// Rollback aborts the transaction. Rolling back a closed transaction is a no-op.
func (tx *Tx) Rollback(ctx context.Context) error {
	if tx.closed {
		return nil
	}
	tx.closed = true
	if tx.sqlTx != nil {
		return tx.sqlTx.Rollback()
	}
	return tx.pgxTx.Rollback(ctx)
}

func rowsAffected(query string, result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, newQueryError(query, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, newQueryError(query, err)
	}
	return n, nil
}

// sqlRows classifies errors raised while stepping through a result set.
type sqlRows struct {
	*sql.Rows
	query string
}

func (r sqlRows) Err() error {
	if err := r.Rows.Err(); err != nil {
		return newQueryError(r.query, err)
	}
	return nil
}

// pgxRows adapts pgx.Rows to Rows. PostgreSQL reports constraint failures
// of INSERT ... RETURNING while reading rows, not from Query.
type pgxRows struct {
	pgx.Rows
	query string
}

func (r pgxRows) Err() error {
	if err := r.Rows.Err(); err != nil {
		return newQueryError(r.query, err)
	}
	return nil
}

func (r pgxRows) Columns() ([]string, error) {
	fields := r.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}
	return columns, nil
}

func (r pgxRows) Close() error {
	r.Rows.Close()
	return nil
}

var (
	_ Querier = (*DB)(nil)
	_ Querier = (*Tx)(nil)
)
