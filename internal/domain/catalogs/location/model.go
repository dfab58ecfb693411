// Package location provides the Location catalog: warehouses, racks and the
// return-receiving area where stock records live.
package location

import (
	"context"

	"partsflow/internal/core/entity"
)

// Location is a place where stock is kept.
type Location struct {
	entity.Catalog

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// Description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewLocation creates a new Location with required fields.
func NewLocation(code, name string) *Location {
	return &Location{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(ctx context.Context) error {
	return l.Catalog.Validate(ctx)
}
