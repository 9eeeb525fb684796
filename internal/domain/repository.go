// Package domain provides shared types for the business layer.
package domain

import (
	"inventra/internal/domain/filter"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
// Owner scoping is implicit: repositories always filter by the
// authenticated user from context.
type ListFilter struct {
	// Search performs case-insensitive substring search on the entity's
	// searchable fields (name, SKU, category for products; number and
	// customer for invoices)
	Search string

	// Filters holds additional structured conditions
	Filters []filter.Item

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
