package sales_return_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/app/apptest"
	"partsflow/internal/core/apperror"
	"partsflow/internal/domain/catalogs/batch"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/internal/domain/documents/sales_return"
	"partsflow/internal/domain/registers/stock"
)

func setup(t *testing.T) (*apptest.Brakes, *sales_order.SalesOrder) {
	t.Helper()
	b := apptest.NewBrakes(t, false)
	return b, b.Pick(t, b.Order(t, 120), 120)
}

func onHand(t *testing.T, b *apptest.Brakes) int64 {
	t.Helper()
	avail, err := b.Services.Stock.GetAvailability(context.Background(), b.Item.ID)
	require.NoError(t, err)
	return avail.Quantity
}

func batchOf(t *testing.T, b *apptest.Brakes, number string) *batch.Batch {
	t.Helper()
	found, err := b.Repos.Batches.GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return found
}

func TestService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("good units go back on the shelf", func(t *testing.T) {
		b, order := setup(t)
		b1 := batchOf(t, b, "B1")

		ret, err := b.Services.SalesReturns.Create(ctx, sales_return.CreateInput{
			SalesOrderID: order.ID,
			Reason:       "wrong size",
			Lines: []sales_return.LineInput{
				{ItemID: b.Item.ID, BatchID: &b1.ID, Quantity: 5, Condition: sales_return.ConditionGood},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, sales_return.StatusPending, ret.Status)
		assert.Equal(t, int64(30), onHand(t, b), "pending returns do not restock")

		approved, err := b.Services.SalesReturns.Approve(ctx, ret.ID)
		require.NoError(t, err)
		assert.Equal(t, sales_return.StatusApproved, approved.Status)
		assert.NotNil(t, approved.DecidedAt)
		assert.Equal(t, int64(35), onHand(t, b))

		rows, err := b.Services.Stock.ListRecords(ctx, stock.RecordFilter{BatchID: &b1.ID})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(5), rows[0].AvailableQty)

		_, err = b.Services.SalesReturns.Approve(ctx, ret.ID)
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("damaged units are not restocked", func(t *testing.T) {
		b, order := setup(t)

		ret, err := b.Services.SalesReturns.Create(ctx, sales_return.CreateInput{
			SalesOrderID: order.ID,
			Lines: []sales_return.LineInput{
				{ItemID: b.Item.ID, Quantity: 3, Condition: sales_return.ConditionDamaged},
				{ItemID: b.Item.ID, Quantity: 2, Condition: sales_return.ConditionGood},
			},
		})
		require.NoError(t, err)

		_, err = b.Services.SalesReturns.Approve(ctx, ret.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(32), onHand(t, b))

		b2 := batchOf(t, b, "B2")
		rows, err := b.Services.Stock.ListRecords(ctx, stock.RecordFilter{BatchID: &b2.ID})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(32), rows[0].Quantity, "lines without a batch restock the batch last shipped")
	})
}

func TestService_Create_DefaultsBatchToShipment(t *testing.T) {
	ctx := context.Background()
	b := apptest.NewBrakes(t, false)
	order := b.Pick(t, b.Order(t, 10), 10)
	b1, b2 := batchOf(t, b, "B1"), batchOf(t, b, "B2")

	ret, err := b.Services.SalesReturns.Create(ctx, sales_return.CreateInput{
		SalesOrderID: order.ID,
		Lines:        []sales_return.LineInput{{ItemID: b.Item.ID, Quantity: 2, Condition: sales_return.ConditionGood}},
	})
	require.NoError(t, err)
	require.Len(t, ret.Lines, 1)
	require.NotNil(t, ret.Lines[0].BatchID)
	assert.Equal(t, b1.ID, *ret.Lines[0].BatchID)

	_, err = b.Services.SalesReturns.Approve(ctx, ret.ID)
	require.NoError(t, err)

	t.Run("restocks the shipped batch", func(t *testing.T) {
		rows, err := b.Services.Stock.ListRecords(ctx, stock.RecordFilter{BatchID: &b1.ID})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(92), rows[0].Quantity)
	})

	t.Run("leaves the newer batch alone", func(t *testing.T) {
		rows, err := b.Services.Stock.ListRecords(ctx, stock.RecordFilter{BatchID: &b2.ID})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(50), rows[0].Quantity)
	})
}

func TestService_Reject(t *testing.T) {
	ctx := context.Background()
	b, order := setup(t)

	ret, err := b.Services.SalesReturns.Create(ctx, sales_return.CreateInput{
		SalesOrderID: order.ID,
		Lines:        []sales_return.LineInput{{ItemID: b.Item.ID, Quantity: 120, Condition: sales_return.ConditionGood}},
	})
	require.NoError(t, err)

	rejected, err := b.Services.SalesReturns.Reject(ctx, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, sales_return.StatusRejected, rejected.Status)
	assert.Equal(t, int64(30), onHand(t, b))

	t.Run("rejected returns free the quantity", func(t *testing.T) {
		_, err := b.Services.SalesReturns.Create(ctx, sales_return.CreateInput{
			SalesOrderID: order.ID,
			Lines:        []sales_return.LineInput{{ItemID: b.Item.ID, Quantity: 120, Condition: sales_return.ConditionGood}},
		})
		assert.NoError(t, err)
	})
}

func TestService_Create_Limits(t *testing.T) {
	ctx := context.Background()
	b, order := setup(t)

	_, err := b.Services.SalesReturns.Create(ctx, sales_return.CreateInput{
		SalesOrderID: order.ID,
		Lines:        []sales_return.LineInput{{ItemID: b.Item.ID, Quantity: 100, Condition: sales_return.ConditionGood}},
	})
	require.NoError(t, err)

	t.Run("cannot return more than fulfilled", func(t *testing.T) {
		_, err := b.Services.SalesReturns.Create(ctx, sales_return.CreateInput{
			SalesOrderID: order.ID,
			Lines:        []sales_return.LineInput{{ItemID: b.Item.ID, Quantity: 21, Condition: sales_return.ConditionGood}},
		})
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("unknown condition", func(t *testing.T) {
		_, err := b.Services.SalesReturns.Create(ctx, sales_return.CreateInput{
			SalesOrderID: order.ID,
			Lines:        []sales_return.LineInput{{ItemID: b.Item.ID, Quantity: 1, Condition: "lost"}},
		})
		assert.True(t, apperror.IsValidation(err))
	})
}
