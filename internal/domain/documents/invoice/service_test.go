package invoice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/app/apptest"
	"partsflow/internal/core/apperror"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/domain/documents/sales_order"
)

func money(s string) types.Money { return types.MustMoney(s) }

func TestService_Create_FIFOCosting(t *testing.T) {
	ctx := context.Background()
	b := apptest.NewBrakes(t, false)
	order := b.Pick(t, b.Order(t, 120), 120)

	date := apptest.Date(2025, time.March, 10)
	inv, err := b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID, Date: &date})
	require.NoError(t, err)

	assert.Regexp(t, `^INV-202503-\d{4}$`, inv.Number)
	assert.Equal(t, invoice.StatusUnpaid, inv.Status)
	assert.Equal(t, date.AddDate(0, 0, 30), inv.DueDate)

	assert.True(t, money("12000000").Equal(inv.Subtotal), inv.Subtotal.String())
	assert.True(t, money("10300000").Equal(inv.HPP), inv.HPP.String())
	assert.True(t, money("1700000").Equal(inv.Profit), inv.Profit.String())
	assert.True(t, money("14.17").Equal(inv.ProfitMargin), inv.ProfitMargin.String())
	assert.True(t, inv.TaxAmount.IsZero())
	assert.True(t, money("12000000").Equal(inv.GrandTotal))
	assert.True(t, inv.RemainingAmount.Equal(inv.GrandTotal))

	require.Len(t, inv.Lines, 1)
	assert.Equal(t, int64(120), inv.Lines[0].Quantity)
	assert.True(t, money("85833.33").Equal(inv.Lines[0].UnitCost), inv.Lines[0].UnitCost.String())

	t.Run("one invoice per order", func(t *testing.T) {
		_, err := b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID})
		assert.True(t, apperror.IsDuplicateInvoice(err))
	})

	t.Run("overdue once past due", func(t *testing.T) {
		assert.Equal(t, invoice.StatusUnpaid, inv.EffectiveStatus(date.AddDate(0, 0, 30)))
		assert.Equal(t, invoice.StatusOverdue, inv.EffectiveStatus(date.AddDate(0, 0, 31)))
	})
}

func TestService_Create_PartialFulfilment(t *testing.T) {
	ctx := context.Background()
	b := apptest.NewBrakes(t, false)
	order := b.Pick(t, b.Order(t, 120), 50)

	term := 7
	inv, err := b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID, CreditTermDays: &term})
	require.NoError(t, err)

	assert.True(t, money("5000000").Equal(inv.Subtotal))
	assert.True(t, money("4250000").Equal(inv.HPP))
	assert.True(t, money("750000").Equal(inv.Profit))
	assert.Equal(t, inv.Date.AddDate(0, 0, 7), inv.DueDate)
}

func TestService_Create_OrderDiscount(t *testing.T) {
	ctx := context.Background()

	discounted := func(t *testing.T, b *apptest.Brakes) *sales_order.SalesOrder {
		order, err := b.Services.SalesOrders.Create(ctx, sales_order.CreateInput{
			CustomerID:     b.Customer.ID,
			DiscountAmount: money("1000000"),
			Lines:          []sales_order.LineInput{{ItemID: b.Item.ID, Quantity: 100}},
		})
		require.NoError(t, err)
		return order
	}

	t.Run("partial invoice takes its share", func(t *testing.T) {
		b := apptest.NewBrakes(t, false)
		order := b.Pick(t, discounted(t, b), 10)

		inv, err := b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID})
		require.NoError(t, err)

		assert.True(t, money("1000000").Equal(inv.Subtotal), inv.Subtotal.String())
		assert.True(t, money("100000").Equal(inv.DiscountAmount), inv.DiscountAmount.String())
		assert.True(t, money("900000").Equal(inv.GrandTotal), inv.GrandTotal.String())
		assert.True(t, money("850000").Equal(inv.HPP), inv.HPP.String())
		assert.True(t, money("50000").Equal(inv.Profit), inv.Profit.String())
		assert.Equal(t, invoice.StatusUnpaid, inv.Status)
	})

	t.Run("full invoice takes all of it", func(t *testing.T) {
		b := apptest.NewBrakes(t, false)
		order := b.Pick(t, discounted(t, b), 100)

		inv, err := b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID})
		require.NoError(t, err)

		assert.True(t, money("1000000").Equal(inv.DiscountAmount), inv.DiscountAmount.String())
		assert.True(t, money("9000000").Equal(inv.GrandTotal), inv.GrandTotal.String())
	})
}

func TestService_Create_Taxable(t *testing.T) {
	ctx := context.Background()
	b := apptest.NewBrakes(t, true)
	b.DefaultTaxRate(t, "11")
	order := b.Pick(t, b.Order(t, 10), 10)

	inv, err := b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID})
	require.NoError(t, err)

	assert.True(t, money("11").Equal(inv.TaxRate))
	assert.True(t, money("110000").Equal(inv.TaxAmount), inv.TaxAmount.String())
	assert.True(t, money("1110000").Equal(inv.GrandTotal), inv.GrandTotal.String())
	assert.True(t, money("150000").Equal(inv.Profit), inv.Profit.String())
}

func TestService_Create_NotInvoiceable(t *testing.T) {
	ctx := context.Background()
	b := apptest.NewBrakes(t, false)
	order := b.Order(t, 10)

	_, err := b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()
	b := apptest.NewBrakes(t, false)
	order := b.Pick(t, b.Order(t, 10), 10)

	inv, err := b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID})
	require.NoError(t, err)

	cancelled, err := b.Services.Invoices.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusCancelled, cancelled.Status)

	_, err = b.Services.Invoices.Cancel(ctx, inv.ID)
	assert.True(t, apperror.IsInvalidState(err))

	_, err = b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID})
	assert.True(t, apperror.IsDuplicateInvoice(err))
}
