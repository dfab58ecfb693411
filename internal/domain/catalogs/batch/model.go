// Package batch provides cost lots. A batch is created once at goods receipt
// and never changes; its purchase date drives FIFO allocation.
package batch

import (
	"context"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
)

// Batch is a lot of one item bought at one price on one date.
type Batch struct {
	entity.BaseEntity

	// Number follows the YYYYMMDD-NNN scheme
	Number string `db:"number" json:"number"`

	ItemID        id.ID       `db:"item_id" json:"itemId"`
	PurchaseDate  time.Time   `db:"purchase_date" json:"purchaseDate"`
	PurchasePrice types.Money `db:"purchase_price" json:"purchasePrice"`
	Supplier      string      `db:"supplier" json:"supplier,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewBatch creates a new Batch.
func NewBatch(number string, itemID id.ID, purchaseDate time.Time, price types.Money, supplier string) *Batch {
	return &Batch{
		BaseEntity:    entity.NewBaseEntity(),
		Number:        number,
		ItemID:        itemID,
		PurchaseDate:  purchaseDate,
		PurchasePrice: price,
		Supplier:      supplier,
		CreatedAt:     time.Now().UTC(),
	}
}

// Validate implements entity.Validatable interface.
func (b *Batch) Validate(ctx context.Context) error {
	if b.Number == "" {
		return apperror.NewValidation("batch number is required").
			WithDetail("field", "number")
	}
	if id.IsNil(b.ItemID) {
		return apperror.NewValidation("item is required").
			WithDetail("field", "itemId")
	}
	if b.PurchaseDate.IsZero() {
		return apperror.NewValidation("purchase date is required").
			WithDetail("field", "purchaseDate")
	}
	if b.PurchasePrice.IsNegative() {
		return apperror.NewValidation("purchase price cannot be negative").
			WithDetail("field", "purchasePrice")
	}
	return nil
}
