package metadata

import (
	"context"
	"fmt"

	"smartfilter/internal/core/apperror"
	"smartfilter/internal/domain/filter"
)

// StructIntrospector answers schema questions from registered struct definitions,
// so schema-derived filter descriptors work without a database.
type StructIntrospector struct {
	registry *Registry
}

// NewStructIntrospector creates an introspector over registry.
func NewStructIntrospector(registry *Registry) *StructIntrospector {
	return &StructIntrospector{registry: registry}
}

// ListColumns implements filter.SchemaIntrospector.
func (s *StructIntrospector) ListColumns(_ context.Context, table string) ([]string, error) {
	def, ok := s.registry.Get(table)
	if !ok {
		return nil, apperror.NewNotFound("table", table)
	}
	return def.Columns(), nil
}

// ColumnType implements filter.SchemaIntrospector.
func (s *StructIntrospector) ColumnType(_ context.Context, table, column string) (filter.Type, error) {
	def, ok := s.registry.Get(table)
	if !ok {
		return "", apperror.NewNotFound("table", table)
	}
	f, ok := def.Field(column)
	if !ok {
		return "", apperror.NewNotFound("column", fmt.Sprintf("%s.%s", table, column))
	}
	return f.Type, nil
}
