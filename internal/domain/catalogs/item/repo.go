package item

import (
	"context"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
)

// Repository defines the interface for Item persistence.
type Repository interface {
	domain.CatalogRepository[*Item]

	// GetByIDs retrieves several items at once, keyed by id.
	// Missing ids are absent from the map.
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*Item, error)
}
