package schema

import (
	"fmt"
	"strings"
)

// ValidateTable checks a table against the set of tables it will be created
// alongside. It rejects missing primary keys, duplicate column names, and
// foreign keys that point at unknown tables or columns.
func ValidateTable(table *TableMetadata, tables map[string]*TableMetadata) error {
	if table == nil {
		return fmt.Errorf("table metadata is nil")
	}
	if strings.TrimSpace(table.Name) == "" {
		return fmt.Errorf("table name is required")
	}
	if table.PrimaryKey == nil || len(table.PrimaryKey.Columns) == 0 {
		return fmt.Errorf("table %s: no primary key defined", table.Name)
	}

	seen := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		if seen[col.Name] {
			return fmt.Errorf("table %s: duplicate column %s", table.Name, col.Name)
		}
		seen[col.Name] = true
		if col.Default != nil {
			if err := ValidateDefaultValue(*col.Default); err != nil {
				return fmt.Errorf("table %s column %s: %w", table.Name, col.Name, err)
			}
		}
	}

	for _, fk := range table.ForeignKeys {
		target, ok := tables[fk.ReferencedTable]
		if !ok {
			return fmt.Errorf("table %s: foreign key %s references unknown table %s", table.Name, fk.Name, fk.ReferencedTable)
		}
		for _, refCol := range fk.ReferencedColumns {
			if target.GetColumnByName(refCol) == nil {
				return fmt.Errorf("table %s: foreign key %s references unknown column %s.%s", table.Name, fk.Name, fk.ReferencedTable, refCol)
			}
		}
	}

	return nil
}

// ValidateDefaultValue checks that a default value is a literal the store
// can embed in DDL: a number, a quoted string, NULL, TRUE or FALSE.
func ValidateDefaultValue(defaultVal string) error {
	trimmed := strings.TrimSpace(defaultVal)
	if trimmed == "" {
		return fmt.Errorf("invalid DEFAULT value: empty")
	}

	switch strings.ToUpper(trimmed) {
	case "NULL", "TRUE", "FALSE":
		return nil
	}

	if isNumeric(trimmed) {
		return nil
	}

	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		return nil
	}

	return fmt.Errorf("invalid DEFAULT value: '%s' is not a literal\n"+
		"Fix: quote strings as default('%s')", defaultVal, trimmed)
}

// isNumeric checks if a string is a valid number
func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	digits := 0
	for i, c := range s {
		if i == 0 && (c == '-' || c == '+') {
			continue
		}
		if c == '.' {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
		digits++
	}
	return digits > 0
}
