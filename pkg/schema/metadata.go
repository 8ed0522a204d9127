// Package schema extracts table metadata from tagged Go structs.
package schema

import "reflect"

// TableMetadata describes one table derived from a Go struct.
type TableMetadata struct {
	Name          string
	GoType        reflect.Type
	Columns       []ColumnMetadata
	PrimaryKey    *PrimaryKeyMetadata
	ForeignKeys   []ForeignKeyMetadata
	Relationships []RelationshipMetadata
}

// ColumnMetadata describes one column.
type ColumnMetadata struct {
	Name          string
	GoField       string
	GoType        reflect.Type
	SQLType       string
	Nullable      bool
	Default       *string
	Check         string
	Unique        bool
	AutoIncrement bool
	Position      int
}

// PrimaryKeyMetadata describes the primary key of a table.
type PrimaryKeyMetadata struct {
	Name    string
	Columns []string
}

// ForeignKeyMetadata describes a reference from one table to another.
type ForeignKeyMetadata struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ReferenceAction
	OnUpdate          ReferenceAction
}

// ReferenceAction is the action taken on dependent rows when a referenced row changes.
type ReferenceAction string

const (
	NoAction   ReferenceAction = "NO ACTION"
	Restrict   ReferenceAction = "RESTRICT"
	Cascade    ReferenceAction = "CASCADE"
	SetNull    ReferenceAction = "SET NULL"
	SetDefault ReferenceAction = "SET DEFAULT"
)

// RelationType is the kind of relationship between two models.
type RelationType string

const (
	BelongsTo RelationType = "belongsTo"
	HasOne    RelationType = "hasOne"
	HasMany   RelationType = "hasMany"
)

// RelationshipMetadata describes a relation field on a model.
//
// For BelongsTo, ForeignKey is a column of the source table and References a
// column of the target. For HasOne and HasMany it is the other way around.
type RelationshipMetadata struct {
	Type         RelationType
	SourceTable  string
	SourceField  string
	TargetType   reflect.Type
	TargetTable  string
	TargetField  string
	ForeignKey   string
	References   string
	InverseField *string
}

// GetColumnByName returns the column with the given name, or nil.
func (t *TableMetadata) GetColumnByName(name string) *ColumnMetadata {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// GetColumnByField returns the column mapped to the given Go field, or nil.
func (t *TableMetadata) GetColumnByField(field string) *ColumnMetadata {
	for i := range t.Columns {
		if t.Columns[i].GoField == field {
			return &t.Columns[i]
		}
	}
	return nil
}

// IsPrimaryKey reports whether column is part of the primary key.
func (t *TableMetadata) IsPrimaryKey(column string) bool {
	if t.PrimaryKey == nil {
		return false
	}
	for _, c := range t.PrimaryKey.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// PrimaryKeyColumn returns the single primary key column, or nil when the
// key is missing or composite.
func (t *TableMetadata) PrimaryKeyColumn() *ColumnMetadata {
	if t.PrimaryKey == nil || len(t.PrimaryKey.Columns) != 1 {
		return nil
	}
	return t.GetColumnByName(t.PrimaryKey.Columns[0])
}

// ForeignKeyFor returns the foreign key declared on column, or nil.
func (t *TableMetadata) ForeignKeyFor(column string) *ForeignKeyMetadata {
	for i := range t.ForeignKeys {
		for _, c := range t.ForeignKeys[i].Columns {
			if c == column {
				return &t.ForeignKeys[i]
			}
		}
	}
	return nil
}

// ReferencedTables returns the distinct tables this table points at.
func (t *TableMetadata) ReferencedTables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == t.Name || seen[fk.ReferencedTable] {
			continue
		}
		seen[fk.ReferencedTable] = true
		out = append(out, fk.ReferencedTable)
	}
	return out
}
