package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"smartfilter/internal/core/apperror"
	"smartfilter/internal/domain/filter"
)

// SchemaIntrospector reads column metadata from information_schema of the current schema.
type SchemaIntrospector struct {
	txManager *TxManager
}

var _ filter.SchemaIntrospector = (*SchemaIntrospector)(nil)

// NewSchemaIntrospector creates an introspector using txManager's querier.
func NewSchemaIntrospector(txManager *TxManager) *SchemaIntrospector {
	return &SchemaIntrospector{txManager: txManager}
}

func (s *SchemaIntrospector) columnsQuery(table, selectCol string) squirrel.SelectBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(selectCol).
		From("information_schema.columns").
		Where("table_schema = current_schema()").
		Where(squirrel.Eq{"table_name": table}).
		OrderBy("ordinal_position")
}

// ListColumns implements filter.SchemaIntrospector.
func (s *SchemaIntrospector) ListColumns(ctx context.Context, table string) ([]string, error) {
	sql, args, err := s.columnsQuery(table, "column_name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var columns []string
	if err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &columns, sql, args...); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, apperror.NewNotFound("table", table)
	}
	return columns, nil
}

// ColumnType implements filter.SchemaIntrospector.
func (s *SchemaIntrospector) ColumnType(ctx context.Context, table, column string) (filter.Type, error) {
	sql, args, err := s.columnsQuery(table, "data_type").
		Where(squirrel.Eq{"column_name": column}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var dataType string
	if err := pgxscan.Get(ctx, s.txManager.GetQuerier(ctx), &dataType, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return "", apperror.NewNotFound("column", table+"."+column)
		}
		return "", fmt.Errorf("column type of %s.%s: %w", table, column, err)
	}
	return filter.MapColumnType(dataType), nil
}
