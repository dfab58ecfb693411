// Package domain provides the types shared by every domain package:
// listing parameters and domain events.
package domain

import (
	"context"

	"partsflow/internal/core/id"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// ListFilter contains common filtering options for list operations.
// Each document package embeds it into its own explicit filter struct.
type ListFilter struct {
	// Search matches document numbers (substring, case-insensitive)
	Search string

	// OrderBy specifies sorting (e.g., "date", "-number")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   defaultLimit,
		OrderBy: "-date",
	}
}

// Normalize clamps pagination values into the supported range.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogRepository is the read side of a master-data catalog.
// Create exists for seeding and tests; catalogs are maintained elsewhere.
type CatalogRepository[T any] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, id id.ID) (T, error)
	GetByCode(ctx context.Context, code string) (T, error)
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
}
