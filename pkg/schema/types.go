package schema

import (
	"database/sql"
	"reflect"
	"time"
)

// Logical column types. Dialects translate these into concrete DDL types.
const (
	TypeBoolean   = "boolean"
	TypeSmallInt  = "smallint"
	TypeInteger   = "integer"
	TypeBigInt    = "bigint"
	TypeReal      = "real"
	TypeDouble    = "double precision"
	TypeText      = "text"
	TypeBlob      = "bytea"
	TypeTimestamp = "timestamp"
)

// GoTypeToSQL maps a Go type to its logical SQL type.
// Returns empty string if the type must be declared via tags.
func GoTypeToSQL(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t {
	case reflect.TypeOf(time.Time{}), reflect.TypeOf(sql.NullTime{}):
		return TypeTimestamp
	case reflect.TypeOf(sql.NullString{}):
		return TypeText
	case reflect.TypeOf(sql.NullInt64{}):
		return TypeBigInt
	case reflect.TypeOf(sql.NullInt32{}):
		return TypeInteger
	case reflect.TypeOf(sql.NullFloat64{}):
		return TypeDouble
	case reflect.TypeOf(sql.NullBool{}):
		return TypeBoolean
	}

	switch t.Kind() {
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return TypeSmallInt
	case reflect.Int32, reflect.Uint16:
		return TypeInteger
	case reflect.Int, reflect.Int64, reflect.Uint32, reflect.Uint64:
		return TypeBigInt
	case reflect.Float32:
		return TypeReal
	case reflect.Float64:
		return TypeDouble
	case reflect.String:
		return TypeText
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeBlob
		}
	}

	return ""
}

// IsNullable checks if a Go type is nullable.
func IsNullable(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		return true
	}

	switch t {
	case reflect.TypeOf(sql.NullString{}),
		reflect.TypeOf(sql.NullInt64{}),
		reflect.TypeOf(sql.NullInt32{}),
		reflect.TypeOf(sql.NullFloat64{}),
		reflect.TypeOf(sql.NullBool{}),
		reflect.TypeOf(sql.NullTime{}):
		return true
	}

	return false
}
