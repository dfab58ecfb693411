// Package apptest builds a fully wired application over the memory store
// for service-level tests.
package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partsflow/internal/app"
	"partsflow/internal/core/id"
	"partsflow/internal/core/numerator"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/catalogs/batch"
	"partsflow/internal/domain/catalogs/customer"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/domain/catalogs/location"
	"partsflow/internal/domain/catalogs/taxrate"
	"partsflow/internal/domain/registers/stock"
	"partsflow/internal/infrastructure/storage/memory"
)

// ReceivingLocation is the default restock location code of a Fixture.
const ReceivingLocation = "WH-MAIN"

// Fixture is an application over an empty memory store.
type Fixture struct {
	Store     *memory.Store
	Repos     app.Repositories
	Services  *app.Services
	Events    *memory.EventLog
	Numerator *numerator.SequenceGenerator
}

// New creates a Fixture.
func New(t testing.TB) *Fixture {
	t.Helper()

	store := memory.New()
	f := &Fixture{
		Store:     store,
		Repos:     app.MemoryRepositories(store),
		Events:    store.EventLog(),
		Numerator: numerator.NewSequenceGenerator(),
	}
	f.Services = app.NewServices(f.Repos, app.Options{
		TxManager:         memory.NewTxManager(store),
		Numerator:         f.Numerator,
		Events:            f.Events,
		ReceivingLocation: ReceivingLocation,
	})
	return f
}

// Item creates an active item with the given selling price.
func (f *Fixture) Item(t testing.TB, code, sellingPrice string) *item.Item {
	t.Helper()
	it := item.NewItem(code, "Item "+code, "pcs", types.MustMoney(sellingPrice))
	require.NoError(t, f.Repos.Items.Create(context.Background(), it))
	return it
}

// Customer creates an active customer.
func (f *Fixture) Customer(t testing.TB, code string, taxable bool, creditTermDays int) *customer.Customer {
	t.Helper()
	c := customer.NewCustomer(code, "Customer "+code, taxable, creditTermDays)
	require.NoError(t, f.Repos.Customers.Create(context.Background(), c))
	return c
}

// Location creates an active location.
func (f *Fixture) Location(t testing.TB, code string) *location.Location {
	t.Helper()
	l := location.NewLocation(code, "Location "+code)
	require.NoError(t, f.Repos.Locations.Create(context.Background(), l))
	return l
}

// DefaultTaxRate creates the default tax rate.
func (f *Fixture) DefaultTaxRate(t testing.TB, rate string) *taxrate.TaxRate {
	t.Helper()
	r := taxrate.NewTaxRate("VAT", "Value added tax", types.MustMoney(rate), true)
	require.NoError(t, f.Repos.TaxRates.Create(context.Background(), r))
	return r
}

// Stock creates a batch and puts qty units of it on hand at locationID.
func (f *Fixture) Stock(t testing.TB, itemID, locationID id.ID, batchNumber string, purchased time.Time, unitCost string, qty int64) *batch.Batch {
	t.Helper()
	ctx := context.Background()

	b := batch.NewBatch(batchNumber, itemID, purchased, types.MustMoney(unitCost), "Supplier")
	require.NoError(t, f.Repos.Batches.Create(ctx, b))
	require.NoError(t, f.Services.Stock.Receive(ctx, stock.Key{
		ItemID:     itemID,
		LocationID: locationID,
		BatchID:    b.ID,
	}, qty))
	return b
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
