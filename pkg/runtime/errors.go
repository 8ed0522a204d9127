// Package runtime owns the single storage handle and classifies the errors
// the storage engines return.
package runtime

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidModel is returned when an invalid model is provided.
	ErrInvalidModel = errors.New("invalid model")

	// ErrNoPrimaryKey is returned when a table has no primary key.
	ErrNoPrimaryKey = errors.New("no primary key defined")

	// ErrDuplicateKey is returned when a unique constraint is violated.
	ErrDuplicateKey = errors.New("duplicate key value")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrCheckViolation is returned when a row fails a CHECK constraint.
	ErrCheckViolation = errors.New("check constraint violation")

	// ErrTransactionClosed is returned when operating on a closed transaction.
	ErrTransactionClosed = errors.New("transaction already closed")

	// ErrNoConnection is returned when no database connection is available.
	ErrNoConnection = errors.New("no database connection")
)

// PostgreSQL SQLSTATE codes for integrity constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// QueryError represents a query execution error.
type QueryError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// ReferenceError describes a row that points at a parent which does not exist.
type ReferenceError struct {
	Table           string
	Column          string
	ReferencedTable string
	Value           any
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s.%s = %v references a missing %s row", e.Table, e.Column, e.Value, e.ReferencedTable)
}

// Is reports ErrForeignKeyViolation as the error kind.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrForeignKeyViolation
}

func newQueryError(query string, err error) error {
	return &QueryError{Query: query, Err: classify(err)}
}

// classify tags engine constraint errors with the matching sentinel while
// keeping the engine's own message in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	case IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	case IsCheckViolation(err):
		return fmt.Errorf("%w: %w", ErrCheckViolation, err)
	default:
		return err
	}
}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from either backend.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// IsForeignKeyViolation reports whether err is a foreign key constraint
// failure from either backend.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return false
}

// IsCheckViolation reports whether err is a CHECK constraint failure from
// either backend.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_CHECK
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCheckViolation
	}
	return false
}
