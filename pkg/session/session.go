// Package session is a unit of work over one storage handle.
//
// Inserts, updates and deletes are staged in memory and written in a single
// transaction by Commit. Reads go straight to the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/marshallshelly/pebble-shop/pkg/builder"
	"github.com/marshallshelly/pebble-shop/pkg/migration"
	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// ErrClosed is returned by every operation on a closed session.
var ErrClosed = errors.New("session is closed")

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

func (k opKind) String() string {
	switch k {
	case opInsert:
		return "insert"
	case opUpdate:
		return "update"
	default:
		return "delete"
	}
}

type operation struct {
	kind   opKind
	entity any
	table  *schema.TableMetadata
}

// Session owns the storage handle and the queue of uncommitted changes.
type Session struct {
	db      *runtime.DB
	logger  *slog.Logger
	pending []operation
	closed  bool
}

// Open opens the store described by cfg and wraps it in a session.
func Open(ctx context.Context, cfg *runtime.Config) (*Session, error) {
	if cfg == nil {
		cfg = runtime.DefaultConfig()
	}
	db, err := runtime.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(db, cfg.Logger), nil
}

// New wraps an open handle. The session takes ownership of db and closes it
// in Close.
func New(db *runtime.DB, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{db: db, logger: logger}
}

// DB returns the underlying handle.
func (s *Session) DB() *runtime.DB {
	return s.db
}

// Pending returns the number of staged operations.
func (s *Session) Pending() int {
	return len(s.pending)
}

// InitializeSchema creates every registered table that does not exist yet.
func (s *Session) InitializeSchema(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	return migration.NewExecutor(s.db).WithLogger(s.logger).EnsureSchema(ctx, registry.All())
}

// ResetSchema drops every registered table.
func (s *Session) ResetSchema(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	return migration.NewExecutor(s.db).WithLogger(s.logger).DropSchema(ctx, registry.All())
}

// Add stages inserts. Each entity must be a non-nil pointer to a registered
// model; its primary key is filled in by Commit. A pointer that is already
// staged for insert is staged once.
func (s *Session) Add(entities ...any) error {
	for _, e := range entities {
		if err := s.stage(opInsert, e); err != nil {
			return err
		}
	}
	return nil
}

// AddAll stages an insert for every element of entities.
func AddAll[T any](s *Session, entities []*T) error {
	for _, e := range entities {
		if err := s.stage(opInsert, e); err != nil {
			return err
		}
	}
	return nil
}

// Update stages a write of every non-key column of a loaded entity.
func (s *Session) Update(entity any) error {
	return s.stage(opUpdate, entity)
}

// Delete stages the removal of a loaded entity. Rows in tables whose foreign
// key to it is declared onDelete(cascade) are removed with it.
func (s *Session) Delete(entity any) error {
	return s.stage(opDelete, entity)
}

func (s *Session) stage(kind opKind, entity any) error {
	if s.closed {
		return ErrClosed
	}

	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s requires a non-nil struct pointer, got %T", runtime.ErrInvalidModel, kind, entity)
	}

	table, err := registry.GetOrRegister(entity)
	if err != nil {
		return fmt.Errorf("%w: %w", runtime.ErrInvalidModel, err)
	}

	if kind != opInsert {
		pk, err := builder.PrimaryKeyValue(entity, table)
		if err != nil {
			return err
		}
		if reflect.ValueOf(pk).IsZero() {
			return fmt.Errorf("%w: cannot %s a %s row that was never stored", runtime.ErrNoPrimaryKey, kind, table.Name)
		}
	}

	for _, op := range s.pending {
		if op.kind == kind && op.entity == entity {
			return nil
		}
	}

	s.pending = append(s.pending, operation{kind: kind, entity: entity, table: table})
	return nil
}

// Commit writes every staged operation in one transaction, in the order
// they were staged. On failure nothing is written and keys assigned during
// the attempt are cleared again. The queue is emptied either way.
func (s *Session) Commit(ctx context.Context) (err error) {
	if s.closed {
		return ErrClosed
	}

	ops := s.pending
	s.pending = nil
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}

	var inserted []operation
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Warn("rollback failed", "error", rbErr)
		}
		for _, op := range inserted {
			clearPrimaryKey(op.entity, op.table)
		}
	}()

	b := builder.New(tx)
	for _, op := range ops {
		switch op.kind {
		case opInsert:
			if err = s.checkReferences(ctx, b, op); err != nil {
				return err
			}
			inserted = append(inserted, op)
			if err = builder.InsertModel(ctx, b, op.entity); err != nil {
				return fmt.Errorf("insert into %s: %w", op.table.Name, err)
			}
		case opUpdate:
			if err = s.checkReferences(ctx, b, op); err != nil {
				return err
			}
			if err = s.update(ctx, b, op); err != nil {
				return err
			}
		case opDelete:
			var key any
			if key, err = builder.PrimaryKeyValue(op.entity, op.table); err != nil {
				return err
			}
			if err = s.deleteRow(ctx, b, op.table, key); err != nil {
				return err
			}
		}
		s.logger.Debug("operation applied", "op", op.kind.String(), "table", op.table.Name)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("session committed", "operations", len(ops))
	return nil
}

// Rollback discards every staged operation.
func (s *Session) Rollback() {
	s.pending = nil
}

// Close releases the storage handle. Uncommitted operations are discarded.
// Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if n := s.Pending(); n > 0 {
		s.logger.Warn("discarding uncommitted operations", "count", n)
		s.pending = nil
	}
	return s.db.Close()
}

// reader returns a builder bound to the handle for direct reads.
func (s *Session) reader() (*builder.DB, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return builder.New(s.db), nil
}

func (s *Session) update(ctx context.Context, b *builder.DB, op operation) error {
	n, err := builder.UpdateModel(ctx, b, op.entity)
	if err != nil {
		return fmt.Errorf("update %s: %w", op.table.Name, err)
	}
	if n == 0 {
		key, _ := builder.PrimaryKeyValue(op.entity, op.table)
		return fmt.Errorf("update %s id=%v: %w", op.table.Name, key, runtime.ErrNotFound)
	}
	return nil
}

// checkReferences verifies that every non-null foreign key of the entity
// points at an existing row. SQLite runs without foreign key enforcement,
// so this is the only check there.
func (s *Session) checkReferences(ctx context.Context, b *builder.DB, op operation) error {
	for _, fk := range op.table.ForeignKeys {
		if len(fk.Columns) != 1 || len(fk.ReferencedColumns) != 1 {
			continue
		}

		value, err := builder.ColumnValue(op.entity, op.table, fk.Columns[0])
		if err != nil {
			return err
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				continue
			}
			rv = rv.Elem()
		}
		if !rv.IsValid() || (rv.IsZero() && op.table.GetColumnByName(fk.Columns[0]).Nullable) {
			continue
		}
		value = rv.Interface()

		parent, err := registry.GetByName(fk.ReferencedTable)
		if err != nil {
			return err
		}

		n, err := builder.CountWhere(ctx, b, parent, builder.Eq(fk.ReferencedColumns[0], value))
		if err != nil {
			return err
		}
		if n == 0 {
			return &runtime.ReferenceError{
				Table:           op.table.Name,
				Column:          fk.Columns[0],
				ReferencedTable: fk.ReferencedTable,
				Value:           value,
			}
		}
	}
	return nil
}

// deleteRow removes one row after removing the rows that cascade from it.
func (s *Session) deleteRow(ctx context.Context, b *builder.DB, table *schema.TableMetadata, key any) error {
	pk := table.PrimaryKeyColumn()
	if pk == nil {
		return fmt.Errorf("%s: %w", table.Name, runtime.ErrNoPrimaryKey)
	}

	if err := s.cascade(ctx, b, table, key); err != nil {
		return err
	}

	n, err := builder.DeleteFrom(ctx, b, table, builder.Eq(pk.Name, key))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s id=%v: %w", table.Name, key, runtime.ErrNotFound)
	}
	return nil
}

func (s *Session) cascade(ctx context.Context, b *builder.DB, table *schema.TableMetadata, key any) error {
	for _, dep := range registry.Default().Dependents(table.Name) {
		fk := dep.ForeignKey
		if fk.OnDelete != schema.Cascade || len(fk.Columns) != 1 {
			continue
		}

		// Children with cascading children of their own go one row at a time.
		if hasCascadingDependents(dep.Table) && dep.Table.PrimaryKeyColumn() != nil {
			keys, err := selectKeys(ctx, b, dep.Table, fk.Columns[0], key)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if err := s.deleteRow(ctx, b, dep.Table, k); err != nil {
					return err
				}
			}
			continue
		}

		n, err := builder.DeleteFrom(ctx, b, dep.Table, builder.Eq(fk.Columns[0], key))
		if err != nil {
			return fmt.Errorf("cascade delete from %s: %w", dep.Table.Name, err)
		}
		s.logger.Debug("cascaded delete", "table", dep.Table.Name, "parent", table.Name, "rows", n)
	}
	return nil
}

func hasCascadingDependents(table *schema.TableMetadata) bool {
	for _, dep := range registry.Default().Dependents(table.Name) {
		if dep.ForeignKey.OnDelete == schema.Cascade {
			return true
		}
	}
	return false
}

// selectKeys returns the primary keys of the rows of table where column
// equals value. The cursor is drained before returning because SQLite runs
// on a single connection.
func selectKeys(ctx context.Context, b *builder.DB, table *schema.TableMetadata, column string, value any) ([]any, error) {
	q := b.Querier()
	pk := table.PrimaryKeyColumn()
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", pk.Name, table.Name, column, q.Dialect().Placeholder(1))

	rows, err := q.Query(ctx, sql, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []any
	for rows.Next() {
		var k any
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func clearPrimaryKey(entity any, table *schema.TableMetadata) {
	pk := table.PrimaryKeyColumn()
	if pk == nil || !pk.AutoIncrement {
		return
	}
	field := reflect.ValueOf(entity).Elem().FieldByName(pk.GoField)
	if field.IsValid() && field.CanSet() {
		field.SetZero()
	}
}
