package builder

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// loadRelationships loads all preloaded relationships for a set of results.
func (q *SelectQuery[T]) loadRelationships(ctx context.Context, results *[]T) error {
	resultsVal := reflect.ValueOf(results).Elem()

	for _, fieldName := range q.preloads {
		rel := q.table.GetRelationship(fieldName)
		if rel == nil {
			return fmt.Errorf("relationship %s not found on %s", fieldName, q.table.Name)
		}

		if err := loadRelationship(ctx, q.db, q.table, resultsVal, rel); err != nil {
			return fmt.Errorf("failed to load relationship %s: %w", fieldName, err)
		}
	}

	return nil
}

// loadRelationship loads a specific relationship for all results.
func loadRelationship(ctx context.Context, d *DB, source *schema.TableMetadata, results reflect.Value, rel *schema.RelationshipMetadata) error {
	target, err := registry.Get(rel.TargetType)
	if err != nil {
		return fmt.Errorf("target table %s not registered: %w", rel.TargetTable, err)
	}

	switch rel.Type {
	case schema.BelongsTo:
		return loadBelongsTo(ctx, d, source, target, results, rel)
	case schema.HasOne, schema.HasMany:
		return loadHasRelation(ctx, d, source, target, results, rel)
	default:
		return fmt.Errorf("unsupported relationship type: %s", rel.Type)
	}
}

// loadBelongsTo loads belongsTo relationships.
// Example: Purchase belongsTo Customer (purchases.customer_id -> customers.id)
func loadBelongsTo(ctx context.Context, d *DB, source, target *schema.TableMetadata, results reflect.Value, rel *schema.RelationshipMetadata) error {
	fkField := fieldForColumn(source, rel.ForeignKey)
	refField := fieldForColumn(target, rel.References)

	// Map FK value to the indices of the results holding it.
	var keys []any
	indexByKey := make(map[any][]int)

	for i := 0; i < results.Len(); i++ {
		item := reflect.Indirect(results.Index(i))

		fk := item.FieldByName(fkField)
		if !fk.IsValid() || isZeroValue(fk.Interface()) {
			continue
		}
		key := reflect.Indirect(fk).Interface()

		if _, seen := indexByKey[key]; !seen {
			keys = append(keys, key)
		}
		indexByKey[key] = append(indexByKey[key], i)
	}

	if len(keys) == 0 {
		return nil
	}

	related, err := fetchRelated(ctx, d, target, rel.References, keys)
	if err != nil {
		return err
	}

	for _, rec := range related {
		key := rec.Elem().FieldByName(refField).Interface()
		for _, idx := range indexByKey[key] {
			setRelation(reflect.Indirect(results.Index(idx)).FieldByName(rel.SourceField), rec)
		}
	}

	return nil
}

// loadHasRelation loads hasOne and hasMany relationships.
// Example: Customer hasMany Purchases (purchases.customer_id -> customers.id)
func loadHasRelation(ctx context.Context, d *DB, source, target *schema.TableMetadata, results reflect.Value, rel *schema.RelationshipMetadata) error {
	refField := fieldForColumn(source, rel.References)
	fkField := fieldForColumn(target, rel.ForeignKey)

	var keys []any
	indexByKey := make(map[any]int)

	for i := 0; i < results.Len(); i++ {
		item := reflect.Indirect(results.Index(i))

		ref := item.FieldByName(refField)
		if !ref.IsValid() {
			continue
		}
		key := reflect.Indirect(ref).Interface()
		keys = append(keys, key)
		indexByKey[key] = i

		// An empty, non-nil slice marks a loaded relation with no rows.
		relationField := item.FieldByName(rel.SourceField)
		if rel.Type == schema.HasMany && relationField.CanSet() && relationField.IsNil() {
			relationField.Set(reflect.MakeSlice(relationField.Type(), 0, 0))
		}
	}

	if len(keys) == 0 {
		return nil
	}

	related, err := fetchRelated(ctx, d, target, rel.ForeignKey, keys)
	if err != nil {
		return err
	}

	for _, rec := range related {
		key := reflect.Indirect(rec.Elem().FieldByName(fkField)).Interface()
		idx, ok := indexByKey[key]
		if !ok {
			continue
		}

		relationField := reflect.Indirect(results.Index(idx)).FieldByName(rel.SourceField)
		if !relationField.IsValid() || !relationField.CanSet() {
			continue
		}

		if relationField.Kind() == reflect.Slice {
			elem := rec
			if relationField.Type().Elem().Kind() != reflect.Pointer {
				elem = rec.Elem()
			}
			relationField.Set(reflect.Append(relationField, elem))
		} else {
			setRelation(relationField, rec)
		}
	}

	return nil
}

// fetchRelated selects every row of table whose column is one of keys,
// ordered by primary key. Each result is a pointer to a new struct.
func fetchRelated(ctx context.Context, d *DB, table *schema.TableMetadata, column string, keys []any) ([]reflect.Value, error) {
	whereSQL, args, err := NewWhereBuilder(d.dialect(), 1).Add(In(column, keys...)).Build()
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT * FROM %s %s", table.Name, whereSQL)
	if pk := table.PrimaryKeyColumn(); pk != nil {
		sql += " ORDER BY " + pk.Name + " ASC"
	}

	querier, err := d.querier()
	if err != nil {
		return nil, err
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query related records: %w", err)
	}
	defer rows.Close()

	var related []reflect.Value
	for rows.Next() {
		rec := reflect.New(table.GoType)
		if err := scanIntoStruct(rows, rec.Interface(), table); err != nil {
			return nil, fmt.Errorf("failed to scan related record: %w", err)
		}
		related = append(related, rec)
	}

	return related, rows.Err()
}

func setRelation(field reflect.Value, rec reflect.Value) {
	if !field.IsValid() || !field.CanSet() {
		return
	}
	if field.Kind() == reflect.Pointer {
		field.Set(rec)
	} else {
		field.Set(rec.Elem())
	}
}

// fieldForColumn resolves the Go field holding a column, falling back to the
// PascalCase spelling of the column name.
func fieldForColumn(table *schema.TableMetadata, column string) string {
	if col := table.GetColumnByName(column); col != nil {
		return col.GoField
	}
	return toPascalCase(column)
}

// commonInitialisms contains Go initialisms that should be all uppercase.
var commonInitialisms = map[string]bool{
	"API":  true,
	"ID":   true,
	"JSON": true,
	"SKU":  true,
	"SQL":  true,
	"URL":  true,
	"UUID": true,
}

// toPascalCase converts snake_case to PascalCase for field names.
// Handles Go initialisms (e.g., "customer_id" -> "CustomerID").
func toPascalCase(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		upper := strings.ToUpper(part)
		if commonInitialisms[upper] {
			b.WriteString(upper)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// isZeroValue checks if a value is the zero value for its type.
func isZeroValue(v any) bool {
	if v == nil {
		return true
	}

	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return val.IsNil()
	default:
		return val.IsZero()
	}
}
