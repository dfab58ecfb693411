package catalog_repo

import (
	"context"

	"partsflow/internal/core/id"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/infrastructure/storage/postgres"
)

const itemTable = "cat_items"

// ItemRepo implements item.Repository.
type ItemRepo struct {
	*BaseCatalogRepo[*item.Item]
}

var _ item.Repository = (*ItemRepo)(nil)

// NewItemRepo creates a new item repository.
func NewItemRepo(txm *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*item.Item](
			txm,
			itemTable,
			"item",
			postgres.ExtractDBColumns[item.Item](),
			func() *item.Item { return &item.Item{} },
		),
	}
}

// GetByIDs implements item.Repository.
func (r *ItemRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*item.Item, error) {
	return r.BaseCatalogRepo.GetByIDs(ctx, ids, func(it *item.Item) id.ID { return it.ID })
}
