package batch

import (
	"context"

	"partsflow/internal/core/id"
)

// Repository defines the interface for Batch persistence.
type Repository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id id.ID) (*Batch, error)
	GetByNumber(ctx context.Context, number string) (*Batch, error)

	// GetByIDs retrieves several batches at once, keyed by id.
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*Batch, error)

	// LatestForItem returns the item's batch with the newest purchase date.
	// Returns NotFound if the item was never received.
	LatestForItem(ctx context.Context, itemID id.ID) (*Batch, error)

	// ListByItem returns the item's batches, oldest first.
	ListByItem(ctx context.Context, itemID id.ID) ([]*Batch, error)
}
