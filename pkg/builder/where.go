package builder

import (
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-shop/pkg/runtime"
)

// WhereBuilder helps build WHERE clauses.
type WhereBuilder struct {
	dialect    runtime.Dialect
	conditions []Condition
	paramStart int
}

// NewWhereBuilder creates a new WhereBuilder whose first parameter is number
// paramStart in the dialect's placeholder sequence.
func NewWhereBuilder(dialect runtime.Dialect, paramStart int) *WhereBuilder {
	if dialect == nil {
		dialect = runtime.DialectFor(runtime.DriverPostgres)
	}
	if paramStart < 1 {
		paramStart = 1
	}
	return &WhereBuilder{dialect: dialect, paramStart: paramStart}
}

// Add appends conditions.
func (w *WhereBuilder) Add(conditions ...Condition) *WhereBuilder {
	w.conditions = append(w.conditions, conditions...)
	return w
}

// Build returns the WHERE clause and its arguments. No conditions yields an
// empty clause.
func (w *WhereBuilder) Build() (string, []any, error) {
	if len(w.conditions) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(w.conditions))
	var args []any
	paramNum := w.paramStart

	for _, cond := range w.conditions {
		condSQL, condArgs, err := w.buildCondition(cond, paramNum)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, condSQL)
		args = append(args, condArgs...)
		paramNum += len(condArgs)
	}

	return "WHERE " + strings.Join(parts, " AND "), args, nil
}

// buildCondition builds a single condition.
func (w *WhereBuilder) buildCondition(cond Condition, paramNum int) (string, []any, error) {
	column := cond.Column
	if column == "" {
		return "", nil, fmt.Errorf("condition has no column")
	}

	switch cond.Operator {
	case OpEqual:
		return fmt.Sprintf("%s = %s", column, w.dialect.Placeholder(paramNum)), []any{cond.Value}, nil

	case OpIn:
		values, ok := cond.Value.([]any)
		if !ok {
			return "", nil, fmt.Errorf("IN operator requires []any value")
		}
		if len(values) == 0 {
			return "", nil, fmt.Errorf("IN operator requires at least one value")
		}

		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = w.dialect.Placeholder(paramNum + i)
		}

		return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), values, nil

	default:
		return "", nil, fmt.Errorf("unknown operator: %s", cond.Operator)
	}
}

// Eq creates an equality condition.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpEqual, Value: value}
}

// In creates an IN condition.
func In(column string, values ...any) Condition {
	return Condition{Column: column, Operator: OpIn, Value: values}
}
