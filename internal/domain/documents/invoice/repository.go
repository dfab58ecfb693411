package invoice

import (
	"context"
	"time"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/delivery_order"
)

// Repository defines persistence for invoices. Header and lines are stored
// and loaded together.
type Repository interface {
	Create(ctx context.Context, doc *Invoice) error
	GetByID(ctx context.Context, docID id.ID) (*Invoice, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Invoice, error)

	// GetBySalesOrder returns the invoice of a sales order, or NotFound.
	GetBySalesOrder(ctx context.Context, salesOrderID id.ID) (*Invoice, error)

	// Update writes the mutable header fields (status and paid amounts).
	Update(ctx context.Context, doc *Invoice) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
}

// DeliveryLookup returns the delivery orders of a sales order.
type DeliveryLookup interface {
	ListBySalesOrder(ctx context.Context, salesOrderID id.ID) ([]*delivery_order.DeliveryOrder, error)
}
