package taxrate

import (
	"context"

	"partsflow/internal/domain"
)

// Repository defines the interface for TaxRate persistence.
type Repository interface {
	domain.CatalogRepository[*TaxRate]

	// GetDefault returns the active default rate. Returns NotFound if none is set.
	GetDefault(ctx context.Context) (*TaxRate, error)
}

// DefaultRateProvider resolves the currently active default tax rate.
// Implemented by Repository and by the cached provider in the cache package.
type DefaultRateProvider interface {
	GetDefault(ctx context.Context) (*TaxRate, error)
}
