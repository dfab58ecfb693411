package delivery_order

import (
	"context"
	"time"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/registers/stock"
)

// Repository defines persistence for delivery orders. Header and lines are
// stored and loaded together.
type Repository interface {
	Create(ctx context.Context, doc *DeliveryOrder) error
	GetByID(ctx context.Context, docID id.ID) (*DeliveryOrder, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*DeliveryOrder, error)
	Update(ctx context.Context, doc *DeliveryOrder) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*DeliveryOrder], error)

	// ListBySalesOrder returns every delivery order of a sales order with lines.
	ListBySalesOrder(ctx context.Context, salesOrderID id.ID) ([]*DeliveryOrder, error)

	// HasPicking reports whether a delivery order of the sales order is in picking.
	HasPicking(ctx context.Context, salesOrderID id.ID) (bool, error)
}

// ListFilter for filtering delivery orders.
type ListFilter struct {
	domain.ListFilter

	SalesOrderID *id.ID
	Status       *Status
	DateFrom     *time.Time
	DateTo       *time.Time
}

// Ledger is the part of the stock ledger the picker uses.
type Ledger interface {
	PlanPick(ctx context.Context, ref stock.Reference, itemID id.ID, qty int64) ([]stock.Allocation, error)
	Consume(ctx context.Context, ref stock.Reference, key stock.Key, qty int64) error
}
