package migration

import (
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// Planner renders CREATE TABLE and DROP TABLE statements for a dialect.
type Planner struct {
	dialect runtime.Dialect
	options PlannerOptions
}

// PlannerOptions configures statement generation.
type PlannerOptions struct {
	// IfNotExists adds IF NOT EXISTS to CREATE TABLE and IF EXISTS to DROP
	// TABLE, which makes both plans safe to run repeatedly.
	IfNotExists bool
}

// NewPlanner creates a planner with IF NOT EXISTS enabled.
func NewPlanner(dialect runtime.Dialect) *Planner {
	return NewPlannerWithOptions(dialect, PlannerOptions{IfNotExists: true})
}

// NewPlannerWithOptions creates a planner with custom options.
func NewPlannerWithOptions(dialect runtime.Dialect, opts PlannerOptions) *Planner {
	if dialect == nil {
		dialect = runtime.DialectFor(runtime.DriverPostgres)
	}
	return &Planner{dialect: dialect, options: opts}
}

// PlanCreate validates tables and returns one CREATE TABLE statement per
// table, parents before children.
func (p *Planner) PlanCreate(tables []*schema.TableMetadata) ([]Statement, error) {
	sorted, err := SortTables(tables)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*schema.TableMetadata, len(sorted))
	for _, t := range sorted {
		byName[t.Name] = t
	}

	stmts := make([]Statement, 0, len(sorted))
	for _, t := range sorted {
		if err := schema.ValidateTable(t, byName); err != nil {
			return nil, err
		}
		stmts = append(stmts, Statement{Table: t.Name, SQL: p.generateCreateTable(t)})
	}
	return stmts, nil
}

// PlanDrop returns one DROP TABLE statement per table, children before
// parents.
func (p *Planner) PlanDrop(tables []*schema.TableMetadata) ([]Statement, error) {
	sorted, err := SortTables(tables)
	if err != nil {
		return nil, err
	}

	stmts := make([]Statement, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		stmts = append(stmts, Statement{Table: sorted[i].Name, SQL: p.generateDropTable(sorted[i].Name)})
	}
	return stmts, nil
}

// generateCreateTable generates a CREATE TABLE statement.
func (p *Planner) generateCreateTable(table *schema.TableMetadata) string {
	var parts []string

	singlePK := table.PrimaryKeyColumn()
	for _, col := range table.Columns {
		isPK := singlePK != nil && singlePK.Name == col.Name
		parts = append(parts, "    "+p.generateColumnDefinition(col, isPK))
	}

	// Composite keys are a table constraint; single keys are inline.
	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) > 1 {
		pkCols := strings.Join(table.PrimaryKey.Columns, ", ")
		parts = append(parts, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)", table.PrimaryKey.Name, pkCols))
	}

	// Only cascading references become constraints. The rest are checked
	// on write and may dangle once the parent row is gone.
	for _, fk := range table.ForeignKeys {
		if fk.OnDelete != schema.Cascade {
			continue
		}
		parts = append(parts, "    "+p.generateForeignKeyDefinition(fk))
	}

	createClause := "CREATE TABLE"
	if p.options.IfNotExists {
		createClause = "CREATE TABLE IF NOT EXISTS"
	}
	return fmt.Sprintf("%s %s (\n%s\n)", createClause, table.Name, strings.Join(parts, ",\n"))
}

// generateColumnDefinition generates a column definition.
func (p *Planner) generateColumnDefinition(col schema.ColumnMetadata, primaryKey bool) string {
	if primaryKey && col.AutoIncrement {
		return p.dialect.AutoIncrementPrimaryKey(col.Name)
	}

	parts := []string{col.Name, p.dialect.ColumnType(col.SQLType)}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}

	if col.Default != nil {
		parts = append(parts, "DEFAULT", p.defaultLiteral(col))
	}

	if col.Check != "" {
		parts = append(parts, "CHECK ("+col.Check+")")
	}

	if col.Unique && !primaryKey {
		parts = append(parts, "UNIQUE")
	}

	if primaryKey {
		parts = append(parts, "PRIMARY KEY")
	}

	return strings.Join(parts, " ")
}

// defaultLiteral renders a column default. Boolean defaults go through the
// dialect because SQLite has no TRUE/FALSE keywords before 3.23.
func (p *Planner) defaultLiteral(col schema.ColumnMetadata) string {
	val := strings.TrimSpace(*col.Default)
	if strings.EqualFold(col.SQLType, "boolean") {
		switch strings.ToLower(val) {
		case "true", "1":
			return p.dialect.BoolLiteral(true)
		case "false", "0":
			return p.dialect.BoolLiteral(false)
		}
	}
	return val
}

// generateForeignKeyDefinition generates a foreign key constraint.
func (p *Planner) generateForeignKeyDefinition(fk schema.ForeignKeyMetadata) string {
	localCols := strings.Join(fk.Columns, ", ")
	refCols := strings.Join(fk.ReferencedColumns, ", ")

	parts := []string{
		fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s)", fk.Name, localCols),
		fmt.Sprintf("REFERENCES %s (%s)", fk.ReferencedTable, refCols),
	}

	if fk.OnDelete != schema.NoAction && fk.OnDelete != "" {
		parts = append(parts, "ON DELETE "+string(fk.OnDelete))
	}

	if fk.OnUpdate != schema.NoAction && fk.OnUpdate != "" {
		parts = append(parts, "ON UPDATE "+string(fk.OnUpdate))
	}

	return strings.Join(parts, " ")
}

// generateDropTable generates a DROP TABLE statement.
func (p *Planner) generateDropTable(tableName string) string {
	if p.options.IfNotExists {
		return "DROP TABLE IF EXISTS " + tableName
	}
	return "DROP TABLE " + tableName
}
