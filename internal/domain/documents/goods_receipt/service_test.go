package goods_receipt_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/app/apptest"
	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/goods_receipt"
	"partsflow/internal/domain/registers/stock"
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	f := apptest.New(t)
	loc := f.Location(t, apptest.ReceivingLocation)
	brake := f.Item(t, "BRK-001", "100000")
	pad := f.Item(t, "PAD-001", "40000")

	date := apptest.Date(2025, time.April, 2)
	doc, err := f.Services.GoodsReceipts.Create(ctx, goods_receipt.CreateInput{
		Supplier:   "PT Sumber Rem",
		LocationID: loc.ID,
		Date:       &date,
		Lines: []goods_receipt.LineInput{
			{ItemID: brake.ID, Quantity: 40, UnitCost: types.MustMoney("86000")},
			{ItemID: pad.ID, Quantity: 10, UnitCost: types.MustMoney("22500")},
		},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^GR-202504-\d{4}$`, doc.Number)
	assert.Equal(t, int64(50), doc.TotalQuantity)
	assert.True(t, types.MustMoney("3665000").Equal(doc.TotalAmount), doc.TotalAmount.String())
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "20250402-001", doc.Lines[0].BatchNumber)
	assert.Equal(t, "20250402-002", doc.Lines[1].BatchNumber)

	b, err := f.Repos.Batches.GetByID(ctx, doc.Lines[0].BatchID)
	require.NoError(t, err)
	assert.True(t, types.MustMoney("86000").Equal(b.PurchasePrice))
	assert.Equal(t, date, b.PurchaseDate)

	rows, err := f.Services.Stock.ListRecords(ctx, stock.RecordFilter{ItemID: &brake.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(40), rows[0].AvailableQty)

	events := f.Events.Events(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventGoodsReceived, events[0].EventType)
}

func TestService_Create_UnknownItem(t *testing.T) {
	ctx := context.Background()
	f := apptest.New(t)
	loc := f.Location(t, apptest.ReceivingLocation)
	brake := f.Item(t, "BRK-001", "100000")

	_, err := f.Services.GoodsReceipts.Create(ctx, goods_receipt.CreateInput{
		Supplier:   "PT Sumber Rem",
		LocationID: loc.ID,
		Lines: []goods_receipt.LineInput{
			{ItemID: brake.ID, Quantity: 5, UnitCost: types.MustMoney("86000")},
			{ItemID: id.New(), Quantity: 1, UnitCost: types.MustMoney("1")},
		},
	})
	assert.True(t, apperror.IsNotFound(err))

	avail, err := f.Services.Stock.GetAvailability(ctx, brake.ID)
	require.NoError(t, err)
	assert.Zero(t, avail.Quantity)

	list, err := f.Services.GoodsReceipts.List(ctx, goods_receipt.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}
