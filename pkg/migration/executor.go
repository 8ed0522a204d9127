package migration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// Executor runs planned DDL against a database or transaction.
type Executor struct {
	q       runtime.Querier
	planner *Planner
	logger  *slog.Logger
}

// NewExecutor creates an executor that plans with the querier's dialect.
func NewExecutor(q runtime.Querier) *Executor {
	return &Executor{
		q:       q,
		planner: NewPlanner(q.Dialect()),
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger used to report applied statements.
func (e *Executor) WithLogger(logger *slog.Logger) *Executor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// EnsureSchema creates every table that does not exist yet. Existing tables
// are left untouched, so calling it again is a no-op.
func (e *Executor) EnsureSchema(ctx context.Context, tables []*schema.TableMetadata) error {
	stmts, err := e.planner.PlanCreate(tables)
	if err != nil {
		return fmt.Errorf("failed to plan schema: %w", err)
	}
	return e.apply(ctx, "create", stmts)
}

// DropSchema drops every table, children first. Missing tables are skipped.
func (e *Executor) DropSchema(ctx context.Context, tables []*schema.TableMetadata) error {
	stmts, err := e.planner.PlanDrop(tables)
	if err != nil {
		return fmt.Errorf("failed to plan drop: %w", err)
	}
	return e.apply(ctx, "drop", stmts)
}

func (e *Executor) apply(ctx context.Context, action string, stmts []Statement) error {
	for _, stmt := range stmts {
		if _, err := e.q.Exec(ctx, stmt.SQL); err != nil {
			return fmt.Errorf("failed to %s table %s: %w", action, stmt.Table, err)
		}
		e.logger.Debug("schema statement applied", "action", action, "table", stmt.Table)
	}
	return nil
}
