// Package item provides the Item catalog: spare parts that are stocked and sold.
package item

import (
	"context"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/types"
)

// Item is a stocked spare part.
type Item struct {
	entity.Catalog

	// Unit of measure (pcs, set, liter)
	Unit string `db:"unit" json:"unit"`

	// BasePrice is the reference purchase price
	BasePrice types.Money `db:"base_price" json:"basePrice"`

	// SellingPrice is the default unit price on sales documents
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// MinStock is the low-stock threshold used by the stock summary
	MinStock int64 `db:"min_stock" json:"minStock"`
}

// NewItem creates a new Item with required fields.
func NewItem(code, name, unit string, sellingPrice types.Money) *Item {
	return &Item{
		Catalog:      entity.NewCatalog(code, name),
		Unit:         unit,
		BasePrice:    types.Zero(),
		SellingPrice: sellingPrice,
	}
}

// Validate implements entity.Validatable interface.
func (i *Item) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}
	if i.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	if i.SellingPrice.IsNegative() || i.BasePrice.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "sellingPrice")
	}
	if i.MinStock < 0 {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("field", "minStock")
	}
	return nil
}

// IsLowStock reports whether onHand is at or below the threshold.
// Items without a threshold are never low.
func (i *Item) IsLowStock(onHand int64) bool {
	return i.MinStock > 0 && onHand <= i.MinStock
}
