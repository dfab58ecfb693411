package sales_order

import (
	"context"
	"time"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/registers/stock"
)

// Repository defines persistence for sales orders. Header and lines are
// stored and loaded together.
type Repository interface {
	Create(ctx context.Context, doc *SalesOrder) error
	GetByID(ctx context.Context, docID id.ID) (*SalesOrder, error)

	// GetForUpdate loads the order and locks its header row.
	GetForUpdate(ctx context.Context, docID id.ID) (*SalesOrder, error)

	// Update writes header and lines. Fails with ConcurrentModification if
	// the stored version differs from doc.Version; bumps doc.Version.
	Update(ctx context.Context, doc *SalesOrder) error

	// List returns headers without lines.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesOrder], error)
}

// ListFilter for filtering sales orders.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
}

// PickingLookup reports whether an order has a delivery order still being picked.
type PickingLookup interface {
	HasPicking(ctx context.Context, salesOrderID id.ID) (bool, error)
}

// Ledger is the part of the stock ledger the order service uses.
type Ledger interface {
	Reserve(ctx context.Context, ref stock.Reference, itemID id.ID, qty int64) ([]stock.Allocation, error)
	ReleaseOrder(ctx context.Context, orderID id.ID) error
}
