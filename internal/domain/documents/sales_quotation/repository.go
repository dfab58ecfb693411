package sales_quotation

import (
	"context"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/sales_order"
)

// Repository defines persistence for quotations. Header and lines are
// stored and loaded together.
type Repository interface {
	Create(ctx context.Context, doc *SalesQuotation) error
	GetByID(ctx context.Context, docID id.ID) (*SalesQuotation, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*SalesQuotation, error)
	Update(ctx context.Context, doc *SalesQuotation) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesQuotation], error)
}

// ListFilter for filtering quotations.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Status     *Status
}

// OrderCreator opens a sales order from a quotation within the caller's
// transaction.
type OrderCreator interface {
	Open(ctx context.Context, in sales_order.CreateInput) (*sales_order.SalesOrder, error)
}
