package runtime

import (
	"strconv"
	"strings"
)

// Dialect renders the parts of a statement that differ between backends.
type Dialect interface {
	// Name returns the driver name of the dialect.
	Name() Driver
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder(n int) string
	// ColumnType maps a logical schema type to the backend's column type.
	ColumnType(sqlType string) string
	// AutoIncrementPrimaryKey returns the full definition of a surrogate key
	// column whose values are assigned by the store and never reused.
	AutoIncrementPrimaryKey(column string) string
	// BoolLiteral renders a boolean for use in DDL defaults.
	BoolLiteral(v bool) string
}

// DialectFor returns the dialect for a driver.
func DialectFor(driver Driver) Dialect {
	if driver == DriverPostgres {
		return postgresDialect{}
	}
	return sqliteDialect{}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() Driver { return DriverSQLite }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) ColumnType(sqlType string) string {
	lower := strings.ToLower(sqlType)
	switch {
	case lower == "boolean":
		return "BOOLEAN"
	case lower == "smallint", lower == "integer", lower == "bigint":
		return "INTEGER"
	case lower == "real", lower == "double precision", strings.HasPrefix(lower, "numeric"):
		return "REAL"
	case lower == "bytea":
		return "BLOB"
	case lower == "timestamp":
		return "TIMESTAMP"
	default:
		// varchar(n), char(n) and text all have TEXT affinity.
		return "TEXT"
	}
}

func (sqliteDialect) AutoIncrementPrimaryKey(column string) string {
	return column + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (sqliteDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

type postgresDialect struct{}

func (postgresDialect) Name() Driver { return DriverPostgres }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) ColumnType(sqlType string) string {
	return strings.ToUpper(sqlType)
}

func (postgresDialect) AutoIncrementPrimaryKey(column string) string {
	return column + " BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
}

func (postgresDialect) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
