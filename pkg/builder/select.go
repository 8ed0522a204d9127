package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// Where adds a WHERE condition. Conditions are joined with AND.
func (q *SelectQuery[T]) Where(condition Condition) *SelectQuery[T] {
	q.where = append(q.where, condition)
	return q
}

// OrderByPrimaryKey orders by the table's primary key columns, ascending.
func (q *SelectQuery[T]) OrderByPrimaryKey() *SelectQuery[T] {
	if q.table == nil || q.table.PrimaryKey == nil {
		return q
	}
	q.orderBy = append(q.orderBy, q.table.PrimaryKey.Columns...)
	return q
}

// Limit sets the LIMIT clause.
func (q *SelectQuery[T]) Limit(limit int) *SelectQuery[T] {
	q.limit = &limit
	return q
}

// Preload specifies relationships to eagerly load.
// Pass the name of the Go struct field that holds the relationship.
// Example: query.Preload("Customer", "Item")
func (q *SelectQuery[T]) Preload(relationships ...string) *SelectQuery[T] {
	q.preloads = append(q.preloads, relationships...)
	return q
}

// ToSQL generates the SQL query and arguments.
func (q *SelectQuery[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if q.table == nil {
		return "", nil, fmt.Errorf("table metadata not available")
	}

	var sql strings.Builder
	var args []any

	sql.WriteString("SELECT * FROM ")
	sql.WriteString(q.table.Name)

	whereSQL, whereArgs, err := q.buildWhere()
	if err != nil {
		return "", nil, err
	}
	if whereSQL != "" {
		sql.WriteString(" ")
		sql.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}

	if len(q.orderBy) > 0 {
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(q.orderBy, " ASC, "))
		sql.WriteString(" ASC")
	}

	if q.limit != nil {
		fmt.Fprintf(&sql, " LIMIT %d", *q.limit)
	}

	return sql.String(), args, nil
}

func (q *SelectQuery[T]) buildWhere() (string, []any, error) {
	if len(q.where) == 0 {
		return "", nil, nil
	}
	whereSQL, args, err := NewWhereBuilder(q.db.dialect(), 1).Add(q.where...).Build()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build WHERE clause: %w", err)
	}
	return whereSQL, args, nil
}

// All executes the query and returns all results.
func (q *SelectQuery[T]) All(ctx context.Context) ([]T, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	querier, err := q.db.querier()
	if err != nil {
		return nil, err
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	// Rows are drained and closed before preloading: a single-connection
	// handle cannot serve a second query while this cursor is open.
	results := make([]T, 0)
	for rows.Next() {
		var item T
		if err := scanIntoStruct(rows, &item, q.table); err != nil {
			rows.Close()
			return nil, err
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if len(q.preloads) > 0 && len(results) > 0 {
		if err := q.loadRelationships(ctx, &results); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// First executes the query and returns the first result, or
// runtime.ErrNotFound when there is none.
func (q *SelectQuery[T]) First(ctx context.Context) (*T, error) {
	q.Limit(1)

	results, err := q.All(ctx)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%s: %w", q.table.Name, runtime.ErrNotFound)
	}

	return &results[0], nil
}

// Count executes a COUNT query.
func (q *SelectQuery[T]) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if q.table == nil {
		return 0, fmt.Errorf("table metadata not available")
	}
	return CountWhere(ctx, q.db, q.table, q.where...)
}

// CountWhere counts the rows of table matching every condition.
func CountWhere(ctx context.Context, d *DB, table *schema.TableMetadata, where ...Condition) (int64, error) {
	var sql strings.Builder
	sql.WriteString("SELECT COUNT(*) FROM ")
	sql.WriteString(table.Name)

	var args []any
	if len(where) > 0 {
		whereSQL, whereArgs, err := NewWhereBuilder(d.dialect(), 1).Add(where...).Build()
		if err != nil {
			return 0, fmt.Errorf("failed to build WHERE clause: %w", err)
		}
		sql.WriteString(" ")
		sql.WriteString(whereSQL)
		args = whereArgs
	}

	querier, err := d.querier()
	if err != nil {
		return 0, err
	}

	rows, err := querier.Query(ctx, sql.String(), args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}

	return count, rows.Err()
}
