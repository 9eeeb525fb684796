// Package dto provides Data Transfer Objects for API requests/responses.
// Domain records carry their own JSON shape; DTOs exist for requests and
// for response envelopes.
package dto

import (
	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// --- List parameters ---

// ListRequest contains common list query parameters.
type ListRequest struct {
	Search  string `form:"search"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts query parameters to a domain list filter.
func (r *ListRequest) ToFilter() domain.ListFilter {
	f := domain.DefaultListFilter()
	f.Search = r.Search
	if r.OrderBy != "" {
		f.OrderBy = r.OrderBy
	}
	if r.Limit > 0 {
		f.Limit = r.Limit
	}
	if r.Offset > 0 {
		f.Offset = r.Offset
	}
	return f
}

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse builds the envelope from a domain list result.
func NewListResponse[T any](res domain.ListResult[T]) ListResponse {
	return ListResponse{
		Items:      res.Items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
