package goods_receipt

import (
	"context"
	"time"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/registers/stock"
)

// Repository defines operations for goods receipt documents.
type Repository interface {
	Create(ctx context.Context, doc *GoodsReceipt) error
	GetByID(ctx context.Context, docID id.ID) (*GoodsReceipt, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*GoodsReceipt], error)
}

// ListFilter for filtering goods receipts.
type ListFilter struct {
	domain.ListFilter

	LocationID *id.ID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Ledger is the part of the stock ledger receipts use.
type Ledger interface {
	Receive(ctx context.Context, key stock.Key, qty int64) error
}
