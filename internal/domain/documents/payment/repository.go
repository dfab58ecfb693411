package payment

import (
	"context"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
)

// Repository defines persistence for payments. There is no update or delete.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentID id.ID) (*Payment, error)
	ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Payment], error)
}
