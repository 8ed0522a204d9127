package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/marshallshelly/pebble-shop/pkg/builder"
	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// ErrUnknownColumn is returned when a filter names a column the model does
// not have.
var ErrUnknownColumn = errors.New("unknown column")

// QueryAll returns every row of T ordered by primary key. Relations named in
// preload are resolved on each row.
func QueryAll[T any](ctx context.Context, s *Session, preload ...string) ([]T, error) {
	b, err := s.reader()
	if err != nil {
		return nil, err
	}
	return builder.Select[T](b).OrderByPrimaryKey().Preload(preload...).All(ctx)
}

// QueryFiltered returns the rows of T whose column equals value, ordered by
// primary key. No match is an empty slice, not an error.
func QueryFiltered[T any](ctx context.Context, s *Session, column string, value any, preload ...string) ([]T, error) {
	b, err := s.reader()
	if err != nil {
		return nil, err
	}

	table, err := tableOf[T]()
	if err != nil {
		return nil, err
	}
	if table.GetColumnByName(column) == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table.Name, column)
	}

	return builder.Select[T](b).
		Where(builder.Eq(column, value)).
		OrderByPrimaryKey().
		Preload(preload...).
		All(ctx)
}

// Get returns the row of T with the given primary key, or nil when there is
// none.
func Get[T any](ctx context.Context, s *Session, id any, preload ...string) (*T, error) {
	b, err := s.reader()
	if err != nil {
		return nil, err
	}

	table, err := tableOf[T]()
	if err != nil {
		return nil, err
	}
	pk := table.PrimaryKeyColumn()
	if pk == nil {
		return nil, fmt.Errorf("%s: %w", table.Name, runtime.ErrNoPrimaryKey)
	}

	row, err := builder.Select[T](b).Where(builder.Eq(pk.Name, id)).Preload(preload...).First(ctx)
	if errors.Is(err, runtime.ErrNotFound) {
		return nil, nil
	}
	return row, err
}

// Count returns the number of rows of T.
func Count[T any](ctx context.Context, s *Session) (int64, error) {
	b, err := s.reader()
	if err != nil {
		return 0, err
	}
	return builder.Select[T](b).Count(ctx)
}

// Related returns the rows of T reached from owner through its hasMany or
// hasOne field. The rows are looked up by foreign key on every call; nothing
// is cached on owner.
func Related[T any](ctx context.Context, s *Session, owner any, field string) ([]T, error) {
	ownerTable, err := registry.GetOrRegister(owner)
	if err != nil {
		return nil, err
	}

	rel := ownerTable.GetRelationship(field)
	if rel == nil {
		return nil, fmt.Errorf("%s has no relationship %s", ownerTable.Name, field)
	}
	if rel.Type == schema.BelongsTo {
		return nil, fmt.Errorf("%s.%s is a belongsTo relationship, load it with Get", ownerTable.Name, field)
	}

	target, err := tableOf[T]()
	if err != nil {
		return nil, err
	}
	if target.Name != rel.TargetTable {
		return nil, fmt.Errorf("%s.%s holds %s rows, not %s", ownerTable.Name, field, rel.TargetTable, target.Name)
	}

	key, err := builder.ColumnValue(owner, ownerTable, rel.References)
	if err != nil {
		return nil, err
	}

	return QueryFiltered[T](ctx, s, rel.ForeignKey, key)
}

func tableOf[T any]() (*schema.TableMetadata, error) {
	var model T
	return registry.GetOrRegister(model)
}
