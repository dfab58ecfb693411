package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsflow/internal/core/id"
	"partsflow/internal/domain/catalogs/batch"
	"partsflow/internal/infrastructure/storage/postgres"
)

const batchTable = "cat_batches"

// BatchRepo implements batch.Repository. Batches are insert-only.
type BatchRepo struct {
	base *BaseCatalogRepo[*batch.Batch]
}

var _ batch.Repository = (*BatchRepo)(nil)

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txm *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		base: NewBaseCatalogRepo[*batch.Batch](
			txm,
			batchTable,
			"batch",
			postgres.ExtractDBColumns[batch.Batch](),
			func() *batch.Batch { return &batch.Batch{} },
		),
	}
}

// Create implements batch.Repository.
func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	return r.base.Create(ctx, b)
}

// GetByID implements batch.Repository.
func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.base.GetByID(ctx, batchID)
}

// GetByNumber implements batch.Repository.
func (r *BatchRepo) GetByNumber(ctx context.Context, number string) (*batch.Batch, error) {
	return r.base.FindOne(ctx, r.base.baseSelect().Where(squirrel.Eq{"number": number}), number)
}

// GetByIDs implements batch.Repository.
func (r *BatchRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*batch.Batch, error) {
	return r.base.GetByIDs(ctx, ids, func(b *batch.Batch) id.ID { return b.ID })
}

// LatestForItem implements batch.Repository.
func (r *BatchRepo) LatestForItem(ctx context.Context, itemID id.ID) (*batch.Batch, error) {
	q := r.base.baseSelect().
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("purchase_date DESC", "created_at DESC")
	return r.base.FindOne(ctx, q, itemID.String())
}

// ListByItem implements batch.Repository.
func (r *BatchRepo) ListByItem(ctx context.Context, itemID id.ID) ([]*batch.Batch, error) {
	sql, args, err := r.base.baseSelect().
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("purchase_date", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*batch.Batch
	if err := pgxscan.Select(ctx, r.base.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}
