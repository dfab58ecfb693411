package entity

import (
	"context"
	"strings"

	"partsflow/internal/core/apperror"
)

// Catalog is the base type for master data (items, customers, locations, tax rates).
// The core only reads it; rows are created by seeding or by an external admin system.
type Catalog struct {
	BaseEntity

	// Code is the human-readable business key, unique per catalog.
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Active catalogs can be referenced by new documents.
	Active bool `db:"active" json:"active"`
}

// NewCatalog creates a new active Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
		Active:     true,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
