package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

func newDelete(d *DB, table *schema.TableMetadata) *deleteQuery {
	return &deleteQuery{db: d, table: table}
}

// Where adds a WHERE condition to the DELETE query.
func (q *deleteQuery) Where(conditions ...Condition) *deleteQuery {
	q.where = append(q.where, conditions...)
	return q
}

// ToSQL generates the DELETE SQL and arguments. A DELETE without a
// condition is refused.
func (q *deleteQuery) ToSQL() (string, []any, error) {
	if len(q.where) == 0 {
		return "", nil, fmt.Errorf("refusing to delete every row of %s", q.table.Name)
	}

	whereSQL, args, err := NewWhereBuilder(q.db.dialect(), 1).Add(q.where...).Build()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build WHERE clause: %w", err)
	}

	var sql strings.Builder
	sql.WriteString("DELETE FROM ")
	sql.WriteString(q.table.Name)
	sql.WriteString(" ")
	sql.WriteString(whereSQL)

	return sql.String(), args, nil
}

// Exec executes the DELETE query and returns the number of deleted rows.
func (q *deleteQuery) Exec(ctx context.Context) (int64, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}

	querier, err := q.db.querier()
	if err != nil {
		return 0, err
	}

	return querier.Exec(ctx, sql, args...)
}

// DeleteFrom deletes the rows of table matching every condition. It refuses
// to run without a condition.
func DeleteFrom(ctx context.Context, d *DB, table *schema.TableMetadata, where ...Condition) (int64, error) {
	return newDelete(d, table).Where(where...).Exec(ctx)
}
