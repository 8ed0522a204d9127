package builder

import (
	"reflect"

	"github.com/marshallshelly/pebble-shop/pkg/registry"
)

// Col returns the database column name for a given Go field name, so a
// column is spelled once in the struct tags.
//
// Usage:
//
//	builder.Eq(builder.Col[models.CatalogItem]("Name"), "Laptop")
//
// Unregistered models and unknown fields return goFieldName unchanged.
func Col[T any](goFieldName string) string {
	var zero T
	table, err := registry.Get(reflect.TypeOf(zero))
	if err != nil {
		return goFieldName
	}

	column := table.GetColumnByField(goFieldName)
	if column == nil {
		return goFieldName
	}

	return column.Name
}
