package sales_return

import (
	"context"
	"time"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/delivery_order"
)

// Repository defines persistence for returns. Header and lines are stored
// and loaded together.
type Repository interface {
	Create(ctx context.Context, doc *SalesReturn) error
	GetByID(ctx context.Context, docID id.ID) (*SalesReturn, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*SalesReturn, error)
	Update(ctx context.Context, doc *SalesReturn) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesReturn], error)

	// ListBySalesOrder returns every return of a sales order with lines.
	ListBySalesOrder(ctx context.Context, salesOrderID id.ID) ([]*SalesReturn, error)
}

// ListFilter for filtering returns.
type ListFilter struct {
	domain.ListFilter

	SalesOrderID *id.ID
	CustomerID   *id.ID
	Status       *Status
	DateFrom     *time.Time
	DateTo       *time.Time
}

// Ledger is the part of the stock ledger returns use.
type Ledger interface {
	Restock(ctx context.Context, itemID, locationID id.ID, batchID *id.ID, qty int64) error
}

// Shipments lists the delivery orders a return is checked against.
type Shipments interface {
	ListBySalesOrder(ctx context.Context, salesOrderID id.ID) ([]*delivery_order.DeliveryOrder, error)
}
