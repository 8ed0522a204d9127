package builder

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// buildInsert renders a single-row INSERT. Zero-valued columns with a
// default and the auto-increment key are left to the store.
func buildInsert(dialect runtime.Dialect, table *schema.TableMetadata, model any, returning []string) (string, []any, error) {
	columns, values, err := structToValues(model, table, true)
	if err != nil {
		return "", nil, fmt.Errorf("failed to extract values: %w", err)
	}

	var sql strings.Builder

	sql.WriteString("INSERT INTO ")
	sql.WriteString(table.Name)

	if len(columns) == 0 {
		sql.WriteString(" DEFAULT VALUES")
	} else {
		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = dialect.Placeholder(i + 1)
		}

		sql.WriteString(" (")
		sql.WriteString(strings.Join(columns, ", "))
		sql.WriteString(") VALUES (")
		sql.WriteString(strings.Join(placeholders, ", "))
		sql.WriteString(")")
	}

	if len(returning) > 0 {
		sql.WriteString(" RETURNING ")
		sql.WriteString(strings.Join(returning, ", "))
	}

	return sql.String(), values, nil
}

// InsertModel inserts one model and writes the store-assigned primary key
// back into it. model must be a pointer to a registered struct.
func InsertModel(ctx context.Context, d *DB, model any) error {
	modelValue := reflect.ValueOf(model)
	if modelValue.Kind() != reflect.Pointer || modelValue.IsNil() {
		return fmt.Errorf("%w: insert requires a non-nil pointer, got %T", runtime.ErrInvalidModel, model)
	}

	table, err := registry.GetOrRegister(model)
	if err != nil {
		return err
	}

	pk := table.PrimaryKeyColumn()
	if pk == nil {
		return fmt.Errorf("%s: %w", table.Name, runtime.ErrNoPrimaryKey)
	}

	sql, args, err := buildInsert(d.dialect(), table, model, []string{pk.Name})
	if err != nil {
		return err
	}

	querier, err := d.querier()
	if err != nil {
		return err
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return fmt.Errorf("insert into %s returned no %s", table.Name, pk.Name)
	}

	field := modelValue.Elem().FieldByName(pk.GoField)
	if err := rows.Scan(field.Addr().Interface()); err != nil {
		return fmt.Errorf("failed to scan %s.%s: %w", table.Name, pk.Name, err)
	}

	return rows.Err()
}
