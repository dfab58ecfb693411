package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/app/apptest"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/domain/reports"
)

func TestService_GetStockSummary(t *testing.T) {
	ctx := context.Background()
	b := apptest.NewBrakes(t, false)

	oil := item.NewItem("OIL-001", "Engine oil", "ltr", types.MustMoney("60000"))
	oil.MinStock = 10
	require.NoError(t, b.Repos.Items.Create(ctx, oil))
	b.Stock(t, oil.ID, b.Location.ID, "O1", apptest.Date(2025, time.March, 1), "45000", 8)

	b.Order(t, 20)

	summary, err := b.Services.Reports.GetStockSummary(ctx, reports.StockSummaryFilter{})
	require.NoError(t, err)
	require.Len(t, summary.Rows, 2)

	brake := summary.Rows[0]
	assert.Equal(t, "BRK-001", brake.ItemCode)
	assert.Equal(t, int64(150), brake.Quantity)
	assert.Equal(t, int64(20), brake.ReservedQty)
	assert.Equal(t, int64(130), brake.AvailableQty)
	assert.True(t, types.MustMoney("13000000").Equal(brake.InventoryValue), brake.InventoryValue.String())
	assert.False(t, brake.LowStock)

	assert.True(t, summary.Rows[1].LowStock)
	assert.Equal(t, 1, summary.LowStockItems)
	assert.Equal(t, int64(158), summary.TotalQuantity)
	assert.True(t, types.MustMoney("13360000").Equal(summary.TotalValue), summary.TotalValue.String())

	t.Run("low stock only", func(t *testing.T) {
		low, err := b.Services.Reports.GetStockSummary(ctx, reports.StockSummaryFilter{LowStockOnly: true})
		require.NoError(t, err)
		require.Len(t, low.Rows, 1)
		assert.Equal(t, "OIL-001", low.Rows[0].ItemCode)
	})
}

func TestService_GetReceivables(t *testing.T) {
	ctx := context.Background()
	b := apptest.NewBrakes(t, false)
	order := b.Pick(t, b.Order(t, 10), 10)

	date := apptest.Date(2025, time.March, 1)
	inv, err := b.Services.Invoices.Create(ctx, invoice.CreateInput{SalesOrderID: order.ID, Date: &date})
	require.NoError(t, err)

	t.Run("before due date", func(t *testing.T) {
		asOf := apptest.Date(2025, time.March, 15)
		rep, err := b.Services.Reports.GetReceivables(ctx, reports.ReceivablesFilter{AsOf: &asOf})
		require.NoError(t, err)
		require.Len(t, rep.Rows, 1)
		assert.Equal(t, inv.Number, rep.Rows[0].Number)
		assert.Equal(t, invoice.StatusUnpaid, rep.Rows[0].Status)
		assert.Equal(t, "Customer CUST-001", rep.Rows[0].CustomerName)
		assert.True(t, types.MustMoney("1000000").Equal(rep.TotalOutstanding))
		assert.True(t, rep.TotalOverdue.IsZero())

		overdue, err := b.Services.Reports.GetReceivables(ctx, reports.ReceivablesFilter{AsOf: &asOf, OverdueOnly: true})
		require.NoError(t, err)
		assert.Empty(t, overdue.Rows)
	})

	t.Run("after due date", func(t *testing.T) {
		asOf := apptest.Date(2025, time.April, 10)
		rep, err := b.Services.Reports.GetReceivables(ctx, reports.ReceivablesFilter{AsOf: &asOf, OverdueOnly: true})
		require.NoError(t, err)
		require.Len(t, rep.Rows, 1)
		assert.Equal(t, invoice.StatusOverdue, rep.Rows[0].Status)
		assert.Equal(t, 10, rep.Rows[0].DaysOverdue)
		assert.True(t, types.MustMoney("1000000").Equal(rep.TotalOverdue))
	})
}
