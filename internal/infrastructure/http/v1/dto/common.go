// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/domain"
)

// --- Pagination ---

// ListQuery contains the common list parameters.
type ListQuery struct {
	Search  string `form:"search" binding:"max=100"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit" binding:"min=0,max=500"`
	Offset  int    `form:"offset" binding:"min=0"`
}

// ToListFilter converts the query into a domain list filter.
func (q ListQuery) ToListFilter() domain.ListFilter {
	f := domain.DefaultListFilter()
	f.Search = q.Search
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset
	return f.Normalize()
}

// DateRangeQuery limits a list to documents dated within [dateFrom, dateTo].
type DateRangeQuery struct {
	DateFrom *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"dateTo" time_format:"2006-01-02"`
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

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ParseOptionalID parses an optional id filter; field names the query parameter.
func ParseOptionalID(field, value string) (*id.ID, error) {
	v, err := id.ParseOptional(value)
	if err != nil {
		return nil, apperror.NewValidation("invalid id format").WithDetail("field", field)
	}
	return v, nil
}
