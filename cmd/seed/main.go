// Package main provides a CLI tool for seeding the database with master data
// and opening stock for local development.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"partsflow/internal/app"
	"partsflow/internal/config"
	"partsflow/internal/core/apperror"
	appctx "partsflow/internal/core/context"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
	"partsflow/internal/domain"
	"partsflow/internal/domain/auth"
	"partsflow/internal/domain/catalogs/customer"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/domain/catalogs/location"
	"partsflow/internal/domain/catalogs/taxrate"
	"partsflow/internal/domain/documents/goods_receipt"
	"partsflow/pkg/logger"
)

type seedItem struct {
	code, name, unit string
	price, cost      string
	minStock         int64
	opening          int64
}

var items = []seedItem{
	{code: "BP-0001", name: "Brake pad set, front", unit: "set", price: "100000", cost: "80000", minStock: 20, opening: 150},
	{code: "OF-0002", name: "Oil filter", unit: "pcs", price: "45000", cost: "30000", minStock: 50, opening: 300},
	{code: "SP-0003", name: "Spark plug, iridium", unit: "pcs", price: "85000", cost: "60000", minStock: 40, opening: 200},
	{code: "CH-0004", name: "Drive chain kit", unit: "kit", price: "650000", cost: "480000", minStock: 5, opening: 25},
	{code: "TR-0005", name: "Rear tyre 90/90-17", unit: "pcs", price: "420000", cost: "310000", minStock: 10, opening: 0},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := appctx.WithSystemUser(context.Background(), "seed")

	rt, err := app.NewRuntime(ctx, cfg, "partsflow-seed")
	if err != nil {
		log.Fatalw("failed to initialize runtime", "error", err)
	}
	defer rt.Close()

	if err := seed(ctx, rt.Repos, rt.Services, log); err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	if cfg.AuthEnabled() {
		jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
		jwtConfig.Issuer = cfg.JWTIssuer
		token, expiresAt, err := auth.NewJWTService(jwtConfig).
			GenerateAccessToken(id.New().String(), "dev@partsflow.local", []string{"admin"})
		if err != nil {
			log.Fatalw("failed to issue dev token", "error", err)
		}
		fmt.Printf("dev token (expires %s):\n%s\n", expiresAt.Format(time.RFC3339), token)
	}

	log.Info("seeding completed successfully")
}

func seed(ctx context.Context, repos app.Repositories, services *app.Services, log *logger.Logger) error {
	warehouse, err := ensure[*location.Location](ctx, repos.Locations, "WH-MAIN", func() *location.Location {
		return location.NewLocation("WH-MAIN", "Main warehouse")
	})
	if err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if _, err := ensure[*location.Location](ctx, repos.Locations, "WH-SHOP", func() *location.Location {
		return location.NewLocation("WH-SHOP", "Shop floor")
	}); err != nil {
		return fmt.Errorf("location: %w", err)
	}

	if _, err := ensure[*taxrate.TaxRate](ctx, repos.TaxRates, "VAT", func() *taxrate.TaxRate {
		return taxrate.NewTaxRate("VAT", "Value added tax", types.MustMoney("11"), true)
	}); err != nil {
		return fmt.Errorf("tax rate: %w", err)
	}

	customers := []*customer.Customer{
		customer.NewCustomer("CUST-001", "Jaya Motor Workshop", true, 30),
		customer.NewCustomer("CUST-002", "Walk-in customer", false, 0),
		customer.NewCustomer("CUST-003", "Sinar Fleet Services", true, 45),
	}
	for _, c := range customers {
		if _, err := ensure[*customer.Customer](ctx, repos.Customers, c.Code, func() *customer.Customer { return c }); err != nil {
			return fmt.Errorf("customer %s: %w", c.Code, err)
		}
	}

	var opening []goods_receipt.LineInput
	for _, si := range items {
		created := false
		it, err := ensure[*item.Item](ctx, repos.Items, si.code, func() *item.Item {
			created = true
			it := item.NewItem(si.code, si.name, si.unit, types.MustMoney(si.price))
			it.MinStock = si.minStock
			return it
		})
		if err != nil {
			return fmt.Errorf("item %s: %w", si.code, err)
		}
		if created && si.opening > 0 {
			opening = append(opening, goods_receipt.LineInput{
				ItemID:   it.ID,
				Quantity: si.opening,
				UnitCost: types.MustMoney(si.cost),
			})
		}
	}

	if len(opening) == 0 {
		log.Info("opening stock already present")
		return nil
	}

	gr, err := services.GoodsReceipts.Create(ctx, goods_receipt.CreateInput{
		Supplier:   "Opening balance",
		LocationID: warehouse.ID,
		Comment:    "Opening stock",
		Lines:      opening,
	})
	if err != nil {
		return fmt.Errorf("opening stock: %w", err)
	}
	log.Infow("opening stock received", "number", gr.Number, "lines", len(opening))
	return nil
}

// ensure returns the catalog entry with the given code, creating it when missing.
func ensure[T any](ctx context.Context, repo domain.CatalogRepository[T], code string, build func() T) (T, error) {
	existing, err := repo.GetByCode(ctx, code)
	if err == nil {
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		var zero T
		return zero, err
	}

	entry := build()
	if err := repo.Create(ctx, entry); err != nil {
		var zero T
		return zero, err
	}
	logger.Info(ctx, "catalog entry created", "code", code)
	return entry, nil
}
