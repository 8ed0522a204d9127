package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

const (
	// StructTagKey is the key used in struct tags (e.g., `po:"..."`).
	StructTagKey = "po"
)

// Parser parses struct definitions to extract table metadata.
type Parser struct {
	cache map[reflect.Type]*TableMetadata
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{
		cache: make(map[reflect.Type]*TableMetadata),
	}
}

var (
	tableNamesMu     sync.RWMutex
	customTableNames = make(map[string]string) // Struct name → table name
)

// RegisterTableName registers a custom table name for a struct type.
//
//	func init() {
//	    schema.RegisterTableName("Customer", "customers")
//	}
func RegisterTableName(structName, tableName string) {
	tableNamesMu.Lock()
	defer tableNamesMu.Unlock()
	customTableNames[structName] = tableName
}

// Parse extracts TableMetadata from a Go struct type.
func (p *Parser) Parse(modelType reflect.Type) (*TableMetadata, error) {
	for modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", modelType.Kind())
	}
	if cached, ok := p.cache[modelType]; ok {
		return cached, nil
	}
	table := &TableMetadata{
		Name:        p.extractTableName(modelType),
		GoType:      modelType,
		Columns:     make([]ColumnMetadata, 0),
		ForeignKeys: make([]ForeignKeyMetadata, 0),
	}
	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagValue := field.Tag.Get(StructTagKey)
		if tagValue == "" || tagValue == "-" {
			continue
		}
		tagOpts, err := p.parseTag(tagValue)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tag for field %s: %w", field.Name, err)
		}
		// Relationship fields are not columns.
		if p.isRelationshipTag(tagOpts) {
			continue
		}
		column := p.createColumnMetadata(field, tagOpts, i)
		if column.SQLType == "" {
			return nil, fmt.Errorf("field %s: cannot infer SQL type for %s, declare it in the tag", field.Name, field.Type)
		}
		if tagOpts.Has("primaryKey") {
			if table.PrimaryKey == nil {
				table.PrimaryKey = &PrimaryKeyMetadata{
					Columns: []string{column.Name},
					Name:    table.Name + "_pkey",
				}
			} else {
				table.PrimaryKey.Columns = append(table.PrimaryKey.Columns, column.Name)
			}
		}
		if fk, ok, err := p.parseForeignKey(table.Name, column.Name, tagOpts); err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		} else if ok {
			table.ForeignKeys = append(table.ForeignKeys, fk)
		}
		table.Columns = append(table.Columns, column)
	}

	if err := p.ParseRelationships(modelType, table); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}
	p.cache[modelType] = table
	return table, nil
}

// extractTableName returns the registered table name for the struct, or its
// snake_case name.
func (p *Parser) extractTableName(modelType reflect.Type) string {
	structName := modelType.Name()

	tableNamesMu.RLock()
	tableName, ok := customTableNames[structName]
	tableNamesMu.RUnlock()
	if ok {
		return tableName
	}

	return toSnakeCase(structName)
}

// createColumnMetadata creates a ColumnMetadata from a struct field.
func (p *Parser) createColumnMetadata(field reflect.StructField, opts *TagOptions, position int) ColumnMetadata {
	column := ColumnMetadata{
		Name:     opts.Name,
		GoField:  field.Name,
		GoType:   field.Type,
		Position: position,
	}
	if sqlType := opts.GetSQLType(); sqlType != "" {
		column.SQLType = sqlType
	} else {
		column.SQLType = GoTypeToSQL(field.Type)
	}
	column.Nullable = !opts.Has("notNull") && !opts.Has("primaryKey")
	if IsNullable(field.Type) {
		column.Nullable = true
	}
	if defaultVal := opts.Get("default"); defaultVal != "" {
		column.Default = &defaultVal
	}
	column.Check = opts.Get("check")
	column.Unique = opts.Has("unique")
	column.AutoIncrement = opts.Has("autoIncrement") || opts.Has("serial")
	return column
}

// parseForeignKey reads fk(table.column) and onDelete(...) options.
func (p *Parser) parseForeignKey(tableName, columnName string, opts *TagOptions) (ForeignKeyMetadata, bool, error) {
	fkStr := opts.Get("fk")
	if fkStr == "" {
		return ForeignKeyMetadata{}, false, nil
	}

	refTable, refColumn, ok := strings.Cut(fkStr, ".")
	if !ok || refTable == "" || refColumn == "" {
		return ForeignKeyMetadata{}, false, fmt.Errorf("invalid foreign key reference %q, want table.column", fkStr)
	}

	return ForeignKeyMetadata{
		Name:              fmt.Sprintf("fk_%s_%s_%s", tableName, columnName, refTable),
		Columns:           []string{columnName},
		ReferencedTable:   refTable,
		ReferencedColumns: []string{refColumn},
		OnDelete:          parseReferenceAction(opts.Get("onDelete")),
		OnUpdate:          parseReferenceAction(opts.Get("onUpdate")),
	}, true, nil
}

// isRelationshipTag checks if tag options indicate a relationship field.
func (p *Parser) isRelationshipTag(opts *TagOptions) bool {
	return opts.Has("belongsTo") || opts.Has("hasOne") || opts.Has("hasMany")
}

// TagOptions represents parsed tag options.
type TagOptions struct {
	Name    string            // Column name (first element)
	Options map[string]string // Other options
}

// parseTag parses a struct tag value into TagOptions.
// Format: "column_name,option1,option2(value),option3"
func (p *Parser) parseTag(tag string) (*TagOptions, error) {
	parts := splitTag(tag)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty tag value")
	}
	opts := &TagOptions{
		Name:    parts[0],
		Options: make(map[string]string),
	}
	for i := 1; i < len(parts); i++ {
		opt := parts[i]
		if idx := strings.Index(opt, "("); idx != -1 {
			if !strings.HasSuffix(opt, ")") {
				return nil, fmt.Errorf("invalid option format: %s", opt)
			}
			opts.Options[opt[:idx]] = opt[idx+1 : len(opt)-1]
		} else if key, value, ok := strings.Cut(opt, ":"); ok {
			opts.Options[key] = value
		} else {
			opts.Options[opt] = ""
		}
	}
	return opts, nil
}

// Has checks if an option exists.
func (t *TagOptions) Has(key string) bool {
	_, ok := t.Options[key]
	return ok
}

// Get returns the value of an option.
func (t *TagOptions) Get(key string) string {
	return t.Options[key]
}

// GetSQLType returns the SQL type declared in the tag options.
func (t *TagOptions) GetSQLType() string {
	sqlTypes := []string{
		"text", "varchar", "char",
		"smallint", "integer", "bigint",
		"real", "double precision", "numeric",
		"boolean", "bool",
		"timestamp", "bytea",
	}
	for _, sqlType := range sqlTypes {
		if !t.Has(sqlType) {
			continue
		}
		if value := t.Get(sqlType); value != "" {
			return fmt.Sprintf("%s(%s)", sqlType, value)
		}
		if sqlType == "bool" {
			return TypeBoolean
		}
		return sqlType
	}
	return ""
}

// splitTag splits a tag value by commas, handling nested parentheses.
func splitTag(tag string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range tag {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// toSnakeCase converts a string from PascalCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && ch >= 'A' && ch <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(ch)
	}
	return strings.ToLower(result.String())
}

// parseReferenceAction converts a tag value to a ReferenceAction.
func parseReferenceAction(action string) ReferenceAction {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(action), "_", "")) {
	case "CASCADE":
		return Cascade
	case "RESTRICT":
		return Restrict
	case "SETNULL", "SET NULL":
		return SetNull
	case "SETDEFAULT", "SET DEFAULT":
		return SetDefault
	default:
		return NoAction
	}
}
