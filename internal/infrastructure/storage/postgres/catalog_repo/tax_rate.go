package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsflow/internal/domain/catalogs/taxrate"
	"partsflow/internal/infrastructure/storage/postgres"
)

const taxRateTable = "cat_tax_rates"

// TaxRateRepo implements taxrate.Repository.
type TaxRateRepo struct {
	*BaseCatalogRepo[*taxrate.TaxRate]
}

var _ taxrate.Repository = (*TaxRateRepo)(nil)

// NewTaxRateRepo creates a new tax rate repository.
func NewTaxRateRepo(txm *postgres.TxManager) *TaxRateRepo {
	return &TaxRateRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*taxrate.TaxRate](
			txm,
			taxRateTable,
			"tax rate",
			postgres.ExtractDBColumns[taxrate.TaxRate](),
			func() *taxrate.TaxRate { return &taxrate.TaxRate{} },
		),
	}
}

// GetDefault implements taxrate.Repository.
func (r *TaxRateRepo) GetDefault(ctx context.Context) (*taxrate.TaxRate, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"is_default": true, "active": true})
	return r.FindOne(ctx, q, "default")
}
