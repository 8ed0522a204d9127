package schema

import (
	"fmt"
	"reflect"
)

// ParseRelationships extracts relationship metadata from struct fields.
func (p *Parser) ParseRelationships(modelType reflect.Type, table *TableMetadata) error {
	for modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}

	if modelType.Kind() != reflect.Struct {
		return fmt.Errorf("model must be a struct")
	}

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)

		if !field.IsExported() {
			continue
		}

		tagValue := field.Tag.Get(StructTagKey)
		if tagValue == "" {
			continue
		}

		tagOpts, err := p.parseTag(tagValue)
		if err != nil {
			continue
		}

		if !p.isRelationshipTag(tagOpts) {
			continue
		}

		rel, err := p.parseRelationship(field, tagOpts, table)
		if err != nil {
			return fmt.Errorf("failed to parse relationship for field %s: %w", field.Name, err)
		}

		table.Relationships = append(table.Relationships, *rel)
	}

	return nil
}

// parseRelationship parses a relationship from a struct field.
func (p *Parser) parseRelationship(field reflect.StructField, opts *TagOptions, sourceTable *TableMetadata) (*RelationshipMetadata, error) {
	rel := &RelationshipMetadata{
		SourceTable: sourceTable.Name,
		SourceField: field.Name,
	}

	switch {
	case opts.Has("belongsTo"):
		rel.Type = BelongsTo
	case opts.Has("hasOne"):
		rel.Type = HasOne
	case opts.Has("hasMany"):
		rel.Type = HasMany
	default:
		return nil, fmt.Errorf("unknown relationship type")
	}

	rel.ForeignKey = opts.Get("foreignKey")
	rel.References = opts.Get("references")

	fieldType := field.Type
	if fieldType.Kind() == reflect.Slice {
		if rel.Type != HasMany {
			return nil, fmt.Errorf("%s relationship cannot be a slice", rel.Type)
		}
		fieldType = fieldType.Elem()
	} else if rel.Type == HasMany {
		return nil, fmt.Errorf("hasMany relationship must be a slice")
	}
	for fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}
	if fieldType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("relationship target must be a struct, got %s", fieldType.Kind())
	}

	rel.TargetType = fieldType
	rel.TargetTable = p.extractTableName(fieldType)
	rel.TargetField = fieldType.Name()

	if rel.ForeignKey == "" {
		switch rel.Type {
		case BelongsTo:
			// customer_id on the source table
			rel.ForeignKey = toSnakeCase(rel.TargetField) + "_id"
		case HasOne, HasMany:
			// customer_id on the target table
			rel.ForeignKey = toSnakeCase(sourceTable.GoType.Name()) + "_id"
		}
	}

	if rel.References == "" {
		rel.References = "id"
	}

	if inverse := opts.Get("inverse"); inverse != "" {
		rel.InverseField = &inverse
	}

	return rel, nil
}

// GetRelationship returns a relationship by source field name.
func (t *TableMetadata) GetRelationship(fieldName string) *RelationshipMetadata {
	for i := range t.Relationships {
		if t.Relationships[i].SourceField == fieldName {
			return &t.Relationships[i]
		}
	}
	return nil
}
