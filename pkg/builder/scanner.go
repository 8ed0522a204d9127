package builder

import (
	"fmt"
	"reflect"

	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// scanIntoStruct scans the current row into a struct, matching result
// columns to struct fields by column name. Unknown columns are discarded.
func scanIntoStruct(rows runtime.Rows, dest any, table *schema.TableMetadata) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Pointer {
		return fmt.Errorf("dest must be a pointer to struct")
	}

	destValue = destValue.Elem()
	if destValue.Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct")
	}

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	scanTargets := make([]any, len(columns))
	for i, name := range columns {
		col := table.GetColumnByName(name)
		if col == nil {
			var discard any
			scanTargets[i] = &discard
			continue
		}

		field := destValue.FieldByName(col.GoField)
		if !field.IsValid() || !field.CanSet() {
			var discard any
			scanTargets[i] = &discard
			continue
		}

		scanTargets[i] = field.Addr().Interface()
	}

	if err := rows.Scan(scanTargets...); err != nil {
		return fmt.Errorf("failed to scan %s row: %w", table.Name, err)
	}

	return nil
}

// structToValues converts a struct to column names and values.
// It omits fields from INSERT when:
// 1. the column is an auto-increment primary key and skipPrimaryKey is set
// 2. the column has a database default and the Go value is zero
func structToValues(model any, table *schema.TableMetadata, skipPrimaryKey bool) ([]string, []any, error) {
	modelValue, err := structValue(model)
	if err != nil {
		return nil, nil, err
	}

	var columns []string
	var values []any

	for _, col := range table.Columns {
		if skipPrimaryKey && table.IsPrimaryKey(col.Name) && col.AutoIncrement {
			continue
		}

		field := modelValue.FieldByName(col.GoField)
		if !field.IsValid() {
			continue
		}

		// Zero values defer to the column default, so a bool defaulting to
		// false and an unset counter both come from the store.
		if col.Default != nil && field.IsZero() {
			continue
		}

		columns = append(columns, col.Name)
		values = append(values, field.Interface())
	}

	return columns, values, nil
}

// valuesFor extracts the values of the named columns, in order.
func valuesFor(model any, table *schema.TableMetadata, columns []string) ([]any, error) {
	modelValue, err := structValue(model)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	for i, name := range columns {
		col := table.GetColumnByName(name)
		if col == nil {
			return nil, fmt.Errorf("unknown column %s on %s", name, table.Name)
		}
		values[i] = modelValue.FieldByName(col.GoField).Interface()
	}
	return values, nil
}

// ColumnValue returns the value the model holds for column.
func ColumnValue(model any, table *schema.TableMetadata, column string) (any, error) {
	values, err := valuesFor(model, table, []string{column})
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

// PrimaryKeyValue returns the value of the model's single-column primary key.
func PrimaryKeyValue(model any, table *schema.TableMetadata) (any, error) {
	col := table.PrimaryKeyColumn()
	if col == nil {
		return nil, fmt.Errorf("%s: %w", table.Name, runtime.ErrNoPrimaryKey)
	}
	return ColumnValue(model, table, col.Name)
}

func structValue(model any) (reflect.Value, error) {
	modelValue := reflect.ValueOf(model)
	for modelValue.Kind() == reflect.Pointer {
		if modelValue.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil pointer", runtime.ErrInvalidModel)
		}
		modelValue = modelValue.Elem()
	}

	if modelValue.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: model must be a struct", runtime.ErrInvalidModel)
	}
	return modelValue, nil
}
