package builder

import (
	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
)

// DB wraps a runtime.Querier and provides query builder methods.
type DB struct {
	q runtime.Querier
}

// New creates a new query builder DB from a runtime DB or transaction.
func New(q runtime.Querier) *DB {
	return &DB{q: q}
}

// Querier returns the underlying runtime.Querier.
func (d *DB) Querier() runtime.Querier {
	return d.q
}

// dialect falls back to PostgreSQL placeholders when no querier is attached,
// which keeps ToSQL usable without a connection.
func (d *DB) dialect() runtime.Dialect {
	if d == nil || d.q == nil {
		return runtime.DialectFor(runtime.DriverPostgres)
	}
	return d.q.Dialect()
}

func (d *DB) querier() (runtime.Querier, error) {
	if d == nil || d.q == nil {
		return nil, runtime.ErrNoConnection
	}
	return d.q, nil
}

// Select creates a new type-safe SELECT query.
// Usage: builder.Select[Customer](db).Where(...).All(ctx)
func Select[T any](d *DB) *SelectQuery[T] {
	var model T

	table, err := registry.GetOrRegister(model)
	if err != nil {
		return &SelectQuery[T]{db: d, err: err}
	}

	return &SelectQuery[T]{db: d, table: table}
}
