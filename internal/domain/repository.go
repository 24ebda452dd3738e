// Package domain provides the listing use case shared by all storage backends.
package domain

import (
	"context"

	"smartfilter/internal/domain/filter"
)

// --- Filter & Pagination ---

// ListRequest contains filtering, ordering and pagination for list operations.
type ListRequest struct {
	// Filters are applied in direct mode (operator and type per filter).
	Filters filter.Filters

	// Source is read in request mode using the model's declared fields.
	// Ignored when Filters is not empty.
	Source filter.Source

	// Options override the resolved filter configuration for this call.
	Options filter.Options

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// DefaultListRequest returns sensible defaults.
func DefaultListRequest() ListRequest {
	return ListRequest{
		Limit: DefaultLimit,
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Repository Interfaces ---

// ListRepository lists entities of one model through the filter compiler.
type ListRepository[T any] interface {
	// Model returns the model the repository selects from.
	Model() filter.Model

	// List retrieves entities with filtering and pagination
	List(ctx context.Context, req ListRequest) (ListResult[T], error)
}

// Lister is the type-erased listing surface used by transport adapters.
type Lister interface {
	Model() filter.Model
	ListItems(ctx context.Context, req ListRequest) (ListResult[any], error)
}
