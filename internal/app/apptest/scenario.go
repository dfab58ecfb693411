package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partsflow/internal/domain/catalogs/customer"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/domain/catalogs/location"
	"partsflow/internal/domain/documents/delivery_order"
	"partsflow/internal/domain/documents/sales_order"
)

// Brakes is the reference scenario: BRK-001 sells at 100000 and is stocked
// with 100 units of batch B1 (January, cost 85000) and 50 units of batch B2
// (February, cost 90000) at the receiving location.
type Brakes struct {
	*Fixture
	Location *location.Location
	Item     *item.Item
	Customer *customer.Customer
}

// NewBrakes builds the reference scenario for a customer with a 30 day term.
func NewBrakes(t testing.TB, taxable bool) *Brakes {
	t.Helper()
	f := New(t)
	b := &Brakes{
		Fixture:  f,
		Location: f.Location(t, ReceivingLocation),
		Item:     f.Item(t, "BRK-001", "100000"),
		Customer: f.Customer(t, "CUST-001", taxable, 30),
	}
	f.Stock(t, b.Item.ID, b.Location.ID, "B1", Date(2025, time.January, 1), "85000", 100)
	f.Stock(t, b.Item.ID, b.Location.ID, "B2", Date(2025, time.February, 1), "90000", 50)
	return b
}

// Order reserves qty units of BRK-001.
func (b *Brakes) Order(t testing.TB, qty int64) *sales_order.SalesOrder {
	t.Helper()
	order, err := b.Services.SalesOrders.Create(context.Background(), sales_order.CreateInput{
		CustomerID: b.Customer.ID,
		Lines:      []sales_order.LineInput{{ItemID: b.Item.ID, Quantity: qty}},
	})
	require.NoError(t, err)
	return order
}

// Pick picks qty units of the order's first line and returns the updated order.
func (b *Brakes) Pick(t testing.TB, order *sales_order.SalesOrder, qty int64) *sales_order.SalesOrder {
	t.Helper()
	ctx := context.Background()

	do, err := b.Services.DeliveryOrders.Create(ctx, delivery_order.CreateInput{
		SalesOrderID: order.ID,
		Lines:        []delivery_order.LineInput{{SalesOrderLineID: order.Lines[0].LineID, Quantity: qty}},
	})
	require.NoError(t, err)
	_, err = b.Services.DeliveryOrders.CompletePicking(ctx, do.ID)
	require.NoError(t, err)

	updated, err := b.Services.SalesOrders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	return updated
}
