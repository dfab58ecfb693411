package entity

import (
	"context"
	"time"

	"partsflow/internal/core/apperror"
	appctx "partsflow/internal/core/context"
)

// Document is the base type for business transactions.
// Examples: SalesOrder, DeliveryOrder, Invoice, Payment.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document dated now.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// StampCreated records the caller from ctx as creator.
func (d *Document) StampCreated(ctx context.Context) {
	actor := appctx.Actor(ctx)
	d.CreatedBy = actor
	d.UpdatedBy = actor
}

// StampUpdated records the caller from ctx as last editor.
func (d *Document) StampUpdated(ctx context.Context) {
	d.UpdatedBy = appctx.Actor(ctx)
	d.UpdatedAt = time.Now().UTC()
}
