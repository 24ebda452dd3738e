// Package filter_repo provides the PostgreSQL list repository driven by the filter compiler.
package filter_repo

import (
	"context"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"smartfilter/internal/domain"
	"smartfilter/internal/domain/filter"
	"smartfilter/internal/infrastructure/storage/postgres"
	"smartfilter/internal/metadata"
	"smartfilter/pkg/logger"
)

var tracer = otel.Tracer("smartfilter/filter_repo")

// Repo lists rows of one model table. T is the model struct scanned by its db tags.
type Repo[T filter.Model] struct {
	txManager *postgres.TxManager
	compiler  *filter.Compiler
	model     T
	columns   []string

	// logQueries emits the compiled SQL at debug level
	logQueries bool
}

// NewRepo creates a repository for T.
func NewRepo[T filter.Model](txManager *postgres.TxManager, compiler *filter.Compiler) *Repo[T] {
	var model T
	return &Repo[T]{
		txManager: txManager,
		compiler:  compiler,
		model:     model,
		columns:   metadata.ExtractDBColumns[T](),
	}
}

// WithQueryLogging enables debug logging of the generated SQL and its arguments.
func (r *Repo[T]) WithQueryLogging(enabled bool) *Repo[T] {
	r.logQueries = enabled
	return r
}

// Model implements domain.ListRepository.
func (r *Repo[T]) Model() filter.Model {
	return r.model
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *Repo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// List implements domain.ListRepository.
func (r *Repo[T]) List(ctx context.Context, req domain.ListRequest) (domain.ListResult[T], error) {
	ctx, span := tracer.Start(ctx, "filter_repo.List",
		trace.WithAttributes(
			attribute.String("db.table", r.model.TableName()),
			attribute.Int("filter.count", len(req.Filters)),
		))
	defer span.End()

	result := domain.ListResult[T]{
		Items:  make([]T, 0),
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	q, err := r.buildSelect(ctx, req)
	if err != nil {
		span.RecordError(err)
		return result, err
	}

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	q, err = r.paginate(q, req)
	if err != nil {
		return result, err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if log := logger.FromContext(ctx); r.logQueries && log.DebugEnabled() {
		log.Debugw("list query",
			"table", r.model.TableName(),
			"sql", sql,
			"args", args,
			"count_sql", countSQL,
		)
	}

	err = r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)
		if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
			return fmt.Errorf("count: %w", err)
		}
		if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
			return fmt.Errorf("list: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return result, err
	}

	span.SetAttributes(attribute.Int64("db.total", result.TotalCount))
	return result, nil
}

// buildSelect compiles the request filters into an unpaginated SELECT.
func (r *Repo[T]) buildSelect(ctx context.Context, req domain.ListRequest) (squirrel.SelectBuilder, error) {
	q := postgres.NewSelectQuery(r.model)
	if err := domain.CompileRequest(ctx, r.compiler, q, req); err != nil {
		return squirrel.SelectBuilder{}, err
	}
	if err := q.Err(); err != nil {
		return squirrel.SelectBuilder{}, fmt.Errorf("compile filters: %w", err)
	}

	b := r.Builder().
		Select(r.columns...).
		From(r.model.TableName())
	return q.Apply(b), nil
}

// paginate applies ordering and pagination. Without orderBy rows are ordered by id when present.
func (r *Repo[T]) paginate(q squirrel.SelectBuilder, req domain.ListRequest) (squirrel.SelectBuilder, error) {
	fallback := ""
	if slices.Contains(r.columns, "id") {
		fallback = "id"
	}
	field, desc, err := domain.ParseOrderBy(req.OrderBy, r.columns, fallback)
	if err != nil {
		return q, err
	}

	if field != "" {
		direction := "ASC"
		if desc {
			direction = "DESC"
		}
		q = q.OrderBy(field + " " + direction + " NULLS LAST")
	}
	if req.Limit > 0 {
		q = q.Limit(uint64(req.Limit))
	}
	if req.Offset > 0 {
		q = q.Offset(uint64(req.Offset))
	}
	return q, nil
}
