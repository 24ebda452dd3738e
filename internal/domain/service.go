package domain

import (
	"context"
	"slices"
	"strings"

	"smartfilter/internal/core/apperror"
	"smartfilter/internal/domain/filter"
)

// ListService provides the listing use case for one entity.
type ListService[T any] struct {
	repo ListRepository[T]

	// entityName for error messages
	entityName string

	// strictOptions rejects unknown option keys instead of ignoring them
	strictOptions bool
}

// ListServiceConfig configures the list service.
type ListServiceConfig[T any] struct {
	Repo          ListRepository[T]
	EntityName    string
	StrictOptions bool
}

// NewListService creates a new list service.
func NewListService[T any](cfg ListServiceConfig[T]) *ListService[T] {
	name := cfg.EntityName
	if name == "" {
		name = cfg.Repo.Model().TableName()
	}
	return &ListService[T]{
		repo:          cfg.Repo,
		entityName:    name,
		strictOptions: cfg.StrictOptions,
	}
}

// EntityName returns the name the service is registered under.
func (s *ListService[T]) EntityName() string {
	return s.entityName
}

// Model returns the model of the underlying repository.
func (s *ListService[T]) Model() filter.Model {
	return s.repo.Model()
}

// List validates the request and delegates to the repository.
func (s *ListService[T]) List(ctx context.Context, req ListRequest) (ListResult[T], error) {
	if s.strictOptions {
		if err := filter.ValidateOptions(req.Options); err != nil {
			return ListResult[T]{}, err
		}
	}

	req = normalizeRequest(req)

	result, err := s.repo.List(ctx, req)
	if err != nil {
		return ListResult[T]{}, s.normalizeErr(err)
	}
	return result, nil
}

// ListItems implements Lister.
func (s *ListService[T]) ListItems(ctx context.Context, req ListRequest) (ListResult[any], error) {
	result, err := s.List(ctx, req)
	if err != nil {
		return ListResult[any]{}, err
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = item
	}
	return ListResult[any]{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}, nil
}

func (s *ListService[T]) normalizeErr(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName)
}

func normalizeRequest(req ListRequest) ListRequest {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return req
}

// CompileRequest applies the request's filters to q: direct-mode filters when
// present, otherwise the request source. The model capability check runs even
// when neither is set.
func CompileRequest(ctx context.Context, c *filter.Compiler, q filter.Queryable, req ListRequest) error {
	var err error
	switch {
	case len(req.Filters) > 0:
		_, err = c.Apply(ctx, q, req.Filters, req.Options)
	case req.Source != nil:
		_, err = c.ApplyFromSource(ctx, q, req.Source, req.Options)
	default:
		_, err = c.Apply(ctx, q, nil, req.Options)
	}
	return err
}

// ParseOrderBy validates orderBy against the allowed columns and supports
// "-field" for DESC. Empty input yields fallback in ascending order.
func ParseOrderBy(orderBy string, allowed []string, fallback string) (field string, desc bool, err error) {
	if orderBy == "" {
		return fallback, false, nil
	}

	field = orderBy
	if strings.HasPrefix(orderBy, "-") {
		desc = true
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" {
		return "", false, apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	if !slices.Contains(allowed, field) {
		return "", false, apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy).WithDetail("field", field)
	}
	return field, desc, nil
}
