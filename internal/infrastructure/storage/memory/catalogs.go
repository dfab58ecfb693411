package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/catalogs/batch"
	"partsflow/internal/domain/catalogs/customer"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/domain/catalogs/location"
	"partsflow/internal/domain/catalogs/taxrate"
)

// catalogRepo implements domain.CatalogRepository over one table.
type catalogRepo[T any] struct {
	store   *Store
	name    string
	table   func(*state) map[id.ID]T
	catalog func(*T) *entity.Catalog
}

func (r *catalogRepo[T]) Create(ctx context.Context, e *T) error {
	return r.store.do(ctx, func(st *state) error {
		c := r.catalog(e)
		tbl := r.table(st)
		for _, existing := range tbl {
			if r.catalog(&existing).Code == c.Code {
				return apperror.NewDuplicate(r.name, "code", c.Code)
			}
		}
		tbl[c.ID] = *e
		return nil
	})
}

func (r *catalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (*T, error) {
	var out *T
	err := r.store.do(ctx, func(st *state) error {
		v, ok := r.table(st)[entityID]
		if !ok {
			return apperror.NewNotFound(r.name, entityID)
		}
		out = &v
		return nil
	})
	return out, err
}

func (r *catalogRepo[T]) GetByCode(ctx context.Context, code string) (*T, error) {
	var out *T
	err := r.store.do(ctx, func(st *state) error {
		for _, v := range r.table(st) {
			if r.catalog(&v).Code == code {
				out = &v
				return nil
			}
		}
		return apperror.NewNotFound(r.name, code)
	})
	return out, err
}

func (r *catalogRepo[T]) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*T, error) {
	out := make(map[id.ID]*T, len(ids))
	err := r.store.do(ctx, func(st *state) error {
		tbl := r.table(st)
		for _, entityID := range ids {
			if v, ok := tbl[entityID]; ok {
				out[entityID] = &v
			}
		}
		return nil
	})
	return out, err
}

func (r *catalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*T], error) {
	filter = filter.Normalize()
	var rows []*T
	err := r.store.do(ctx, func(st *state) error {
		search := strings.ToLower(filter.Search)
		for _, v := range r.table(st) {
			c := r.catalog(&v)
			if search != "" &&
				!strings.Contains(strings.ToLower(c.Code), search) &&
				!strings.Contains(strings.ToLower(c.Name), search) {
				continue
			}
			rows = append(rows, &v)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*T]{}, err
	}

	slices.SortFunc(rows, func(a, b *T) int {
		return cmp.Compare(r.catalog(a).Code, r.catalog(b).Code)
	})
	return paginate(rows, filter), nil
}

func paginate[T any](rows []T, filter domain.ListFilter) domain.ListResult[T] {
	total := len(rows)
	start := min(filter.Offset, total)
	end := min(start+filter.Limit, total)
	return domain.ListResult[T]{
		Items:      rows[start:end],
		TotalCount: int64(total),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
}

// ItemRepo implements item.Repository.
type ItemRepo struct {
	*catalogRepo[item.Item]
}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*catalogRepo[customer.Customer]
}

// LocationRepo implements location.Repository.
type LocationRepo struct {
	*catalogRepo[location.Location]
}

// TaxRateRepo implements taxrate.Repository.
type TaxRateRepo struct {
	*catalogRepo[taxrate.TaxRate]
}

// GetDefault implements taxrate.Repository.
func (r *TaxRateRepo) GetDefault(ctx context.Context) (*taxrate.TaxRate, error) {
	var out *taxrate.TaxRate
	err := r.store.do(ctx, func(st *state) error {
		for _, t := range st.taxRates {
			if t.Active && t.IsDefault {
				out = &t
				return nil
			}
		}
		return apperror.NewNotFound("default tax rate", nil)
	})
	return out, err
}

// Items returns the item repository.
func (s *Store) Items() *ItemRepo {
	return &ItemRepo{&catalogRepo[item.Item]{
		store:   s,
		name:    "item",
		table:   func(st *state) map[id.ID]item.Item { return st.items },
		catalog: func(v *item.Item) *entity.Catalog { return &v.Catalog },
	}}
}

// Customers returns the customer repository.
func (s *Store) Customers() *CustomerRepo {
	return &CustomerRepo{&catalogRepo[customer.Customer]{
		store:   s,
		name:    "customer",
		table:   func(st *state) map[id.ID]customer.Customer { return st.customers },
		catalog: func(v *customer.Customer) *entity.Catalog { return &v.Catalog },
	}}
}

// Locations returns the location repository.
func (s *Store) Locations() *LocationRepo {
	return &LocationRepo{&catalogRepo[location.Location]{
		store:   s,
		name:    "location",
		table:   func(st *state) map[id.ID]location.Location { return st.locations },
		catalog: func(v *location.Location) *entity.Catalog { return &v.Catalog },
	}}
}

// TaxRates returns the tax rate repository.
func (s *Store) TaxRates() *TaxRateRepo {
	return &TaxRateRepo{&catalogRepo[taxrate.TaxRate]{
		store:   s,
		name:    "tax rate",
		table:   func(st *state) map[id.ID]taxrate.TaxRate { return st.taxRates },
		catalog: func(v *taxrate.TaxRate) *entity.Catalog { return &v.Catalog },
	}}
}

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	store *Store
}

// Batches returns the batch repository.
func (s *Store) Batches() *BatchRepo {
	return &BatchRepo{store: s}
}

// Create implements batch.Repository.
func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	return r.store.do(ctx, func(st *state) error {
		for _, existing := range st.batches {
			if existing.Number == b.Number {
				return apperror.NewDuplicate("batch", "number", b.Number)
			}
		}
		st.batches[b.ID] = *b
		return nil
	})
}

// GetByID implements batch.Repository.
func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	var out *batch.Batch
	err := r.store.do(ctx, func(st *state) error {
		b, ok := st.batches[batchID]
		if !ok {
			return apperror.NewNotFound("batch", batchID)
		}
		out = &b
		return nil
	})
	return out, err
}

// GetByNumber implements batch.Repository.
func (r *BatchRepo) GetByNumber(ctx context.Context, number string) (*batch.Batch, error) {
	var out *batch.Batch
	err := r.store.do(ctx, func(st *state) error {
		for _, b := range st.batches {
			if b.Number == number {
				out = &b
				return nil
			}
		}
		return apperror.NewNotFound("batch", number)
	})
	return out, err
}

// GetByIDs implements batch.Repository.
func (r *BatchRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*batch.Batch, error) {
	out := make(map[id.ID]*batch.Batch, len(ids))
	err := r.store.do(ctx, func(st *state) error {
		for _, batchID := range ids {
			if b, ok := st.batches[batchID]; ok {
				out[batchID] = &b
			}
		}
		return nil
	})
	return out, err
}

// ListByItem implements batch.Repository.
func (r *BatchRepo) ListByItem(ctx context.Context, itemID id.ID) ([]*batch.Batch, error) {
	var out []*batch.Batch
	err := r.store.do(ctx, func(st *state) error {
		for _, b := range st.batches {
			if b.ItemID == itemID {
				out = append(out, &b)
			}
		}
		return nil
	})
	slices.SortFunc(out, compareBatches)
	return out, err
}

// LatestForItem implements batch.Repository.
func (r *BatchRepo) LatestForItem(ctx context.Context, itemID id.ID) (*batch.Batch, error) {
	all, err := r.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, apperror.NewNotFound("batch", itemID).WithDetail("itemId", itemID)
	}
	return all[len(all)-1], nil
}

func compareBatches(a, b *batch.Batch) int {
	if c := a.PurchaseDate.Compare(b.PurchaseDate); c != 0 {
		return c
	}
	return cmp.Compare(a.Number, b.Number)
}

var (
	_ item.Repository     = (*ItemRepo)(nil)
	_ customer.Repository = (*CustomerRepo)(nil)
	_ location.Repository = (*LocationRepo)(nil)
	_ taxrate.Repository  = (*TaxRateRepo)(nil)
	_ batch.Repository    = (*BatchRepo)(nil)
)
