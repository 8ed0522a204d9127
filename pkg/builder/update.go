package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

func newUpdate(d *DB, table *schema.TableMetadata) *updateQuery {
	return &updateQuery{db: d, table: table}
}

// Set sets a column value for the UPDATE. Columns are written in the order
// they are set; setting a column again replaces its value.
func (q *updateQuery) Set(column string, value any) *updateQuery {
	for i := range q.sets {
		if q.sets[i].column == column {
			q.sets[i].value = value
			return q
		}
	}
	q.sets = append(q.sets, assignment{column: column, value: value})
	return q
}

// Where adds a WHERE condition.
func (q *updateQuery) Where(condition Condition) *updateQuery {
	q.where = append(q.where, condition)
	return q
}

// ToSQL generates the UPDATE SQL and arguments.
func (q *updateQuery) ToSQL() (string, []any, error) {
	if len(q.sets) == 0 {
		return "", nil, fmt.Errorf("no columns to update")
	}
	if len(q.where) == 0 {
		return "", nil, fmt.Errorf("refusing to update every row of %s", q.table.Name)
	}

	dialect := q.db.dialect()

	var sql strings.Builder
	args := make([]any, 0, len(q.sets))

	sql.WriteString("UPDATE ")
	sql.WriteString(q.table.Name)
	sql.WriteString(" SET ")

	setClauses := make([]string, len(q.sets))
	for i, set := range q.sets {
		setClauses[i] = fmt.Sprintf("%s = %s", set.column, dialect.Placeholder(i+1))
		args = append(args, set.value)
	}
	sql.WriteString(strings.Join(setClauses, ", "))

	whereSQL, whereArgs, err := NewWhereBuilder(dialect, len(args)+1).Add(q.where...).Build()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build WHERE clause: %w", err)
	}
	sql.WriteString(" ")
	sql.WriteString(whereSQL)
	args = append(args, whereArgs...)

	return sql.String(), args, nil
}

// Exec executes the UPDATE query and returns the number of affected rows.
func (q *updateQuery) Exec(ctx context.Context) (int64, error) {
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

// UpdateModel writes every non-key column of model to the row with the same
// primary key and returns the number of rows changed.
func UpdateModel(ctx context.Context, d *DB, model any) (int64, error) {
	table, err := registry.GetOrRegister(model)
	if err != nil {
		return 0, err
	}

	pk := table.PrimaryKeyColumn()
	if pk == nil {
		return 0, fmt.Errorf("%s: %w", table.Name, runtime.ErrNoPrimaryKey)
	}

	key, err := ColumnValue(model, table, pk.Name)
	if err != nil {
		return 0, err
	}

	q := newUpdate(d, table).Where(Eq(pk.Name, key))
	for _, col := range table.Columns {
		if table.IsPrimaryKey(col.Name) {
			continue
		}
		value, err := ColumnValue(model, table, col.Name)
		if err != nil {
			return 0, err
		}
		q.Set(col.Name, value)
	}
	if len(q.sets) == 0 {
		return 0, nil
	}

	return q.Exec(ctx)
}
