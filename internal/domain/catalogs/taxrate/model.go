// Package taxrate provides the tax rate catalog.
package taxrate

import (
	"context"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/types"
)

// TaxRate is a named percentage (e.g. VAT 11).
type TaxRate struct {
	entity.Catalog

	// Rate in percent
	Rate types.Money `db:"rate" json:"rate"`

	// IsDefault marks the rate applied to taxable customers. At most one active
	// rate is the default.
	IsDefault bool `db:"is_default" json:"isDefault"`
}

// NewTaxRate creates a new TaxRate.
func NewTaxRate(code, name string, rate types.Money, isDefault bool) *TaxRate {
	return &TaxRate{
		Catalog:   entity.NewCatalog(code, name),
		Rate:      rate,
		IsDefault: isDefault,
	}
}

// Validate implements entity.Validatable interface.
func (t *TaxRate) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}
	if t.Rate.IsNegative() || t.Rate.GreaterThan(types.NewMoneyFromInt(100)) {
		return apperror.NewValidation("rate must be between 0 and 100").
			WithDetail("field", "rate")
	}
	return nil
}
