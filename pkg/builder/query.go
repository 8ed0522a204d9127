// Package builder provides a type-safe query builder over the runtime handle.
package builder

import (
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// SelectQuery represents a SELECT query with type safety.
type SelectQuery[T any] struct {
	db       *DB
	table    *schema.TableMetadata
	err      error
	where    []Condition
	orderBy  []string
	limit    *int
	preloads []string // Relationship fields to eagerly load
}

// updateQuery is an UPDATE bound to one table.
type updateQuery struct {
	db    *DB
	table *schema.TableMetadata
	sets  []assignment
	where []Condition
}

// deleteQuery is a DELETE bound to one table.
type deleteQuery struct {
	db    *DB
	table *schema.TableMetadata
	where []Condition
}

// Condition represents a WHERE condition. Conditions are joined with AND.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
}

type assignment struct {
	column string
	value  any
}

// Operator represents a comparison operator.
type Operator string

const (
	// OpEqual represents the = operator.
	OpEqual Operator = "="
	// OpIn represents the IN operator.
	OpIn Operator = "IN"
)
