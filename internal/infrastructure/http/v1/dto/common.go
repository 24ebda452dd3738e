// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"smartfilter/internal/domain"
	"smartfilter/internal/domain/filter"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult creates ListResponse from a list result.
func FromListResult(r domain.ListResult[any]) ListResponse {
	items := r.Items
	if items == nil {
		items = []any{}
	}
	return ListResponse{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// --- Filters ---

// FiltersResponse describes what an entity can be filtered by.
type FiltersResponse struct {
	Entity    string                      `json:"entity"`
	Source    string                      `json:"source"`
	Fields    []filter.FieldDescriptor    `json:"fields"`
	Relations []filter.RelationDescriptor `json:"relations"`
	Config    filter.Config               `json:"config"`
}

// RelationCheckResponse reports a valid relation path.
type RelationCheckResponse struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
