package stock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/app/apptest"
	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/domain/catalogs/batch"
	"partsflow/internal/domain/registers/stock"
)

type ledgerFixture struct {
	*apptest.Fixture
	itemID     id.ID
	locationID id.ID
	b1, b2     *batch.Batch
}

// newLedger stocks BRK-001 with 100 units of B1 (January, 85000) and
// 50 units of B2 (February, 90000).
func newLedger(t *testing.T) *ledgerFixture {
	f := apptest.New(t)
	it := f.Item(t, "BRK-001", "100000")
	loc := f.Location(t, apptest.ReceivingLocation)
	return &ledgerFixture{
		Fixture:    f,
		itemID:     it.ID,
		locationID: loc.ID,
		b1:         f.Stock(t, it.ID, loc.ID, "B1", apptest.Date(2025, time.January, 1), "85000", 100),
		b2:         f.Stock(t, it.ID, loc.ID, "B2", apptest.Date(2025, time.February, 1), "90000", 50),
	}
}

func (l *ledgerFixture) key(b *batch.Batch) stock.Key {
	return stock.Key{ItemID: l.itemID, LocationID: l.locationID, BatchID: b.ID}
}

func (l *ledgerFixture) record(t *testing.T, b *batch.Batch) stock.Record {
	t.Helper()
	batchID := b.ID
	rows, err := l.Services.Stock.ListRecords(context.Background(), stock.RecordFilter{BatchID: &batchID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

func newRef() stock.Reference {
	return stock.Reference{OrderID: id.New(), LineID: id.New()}
}

func TestService_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("draws oldest batch first", func(t *testing.T) {
		l := newLedger(t)

		plan, err := l.Services.Stock.Reserve(ctx, newRef(), l.itemID, 120)
		require.NoError(t, err)
		require.Len(t, plan, 2)
		assert.Equal(t, "B1", plan[0].BatchNumber)
		assert.Equal(t, int64(100), plan[0].Quantity)
		assert.Equal(t, "B2", plan[1].BatchNumber)
		assert.Equal(t, int64(20), plan[1].Quantity)

		avail, err := l.Services.Stock.GetAvailability(ctx, l.itemID)
		require.NoError(t, err)
		assert.Equal(t, int64(150), avail.Quantity)
		assert.Equal(t, int64(120), avail.ReservedQty)
		assert.Equal(t, int64(30), avail.AvailableQty)

		b1 := l.record(t, l.b1)
		assert.Equal(t, int64(0), b1.AvailableQty)
		assert.Equal(t, int64(100), b1.ReservedQty)
	})

	t.Run("shortage changes nothing", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.Services.Stock.Reserve(ctx, newRef(), l.itemID, 120)
		require.NoError(t, err)

		_, err = l.Services.Stock.Reserve(ctx, newRef(), l.itemID, 40)
		require.Error(t, err)
		assert.True(t, apperror.IsInsufficientStock(err))

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "BRK-001", appErr.Details["itemCode"])
		assert.Equal(t, int64(10), appErr.Details["shortfall"])

		b2 := l.record(t, l.b2)
		assert.Equal(t, int64(20), b2.ReservedQty)
		assert.Equal(t, int64(30), b2.AvailableQty)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.Services.Stock.Reserve(ctx, newRef(), l.itemID, 0)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("unknown item has nothing available", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.Services.Stock.Reserve(ctx, newRef(), id.New(), 1)
		assert.True(t, apperror.IsInsufficientStock(err))
	})
}

func TestService_Reserve_Concurrent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	const workers, each = 25, 7
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		shortages atomic.Int64
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Services.Stock.Reserve(ctx, newRef(), l.itemID, each)
			switch {
			case err == nil:
				succeeded.Add(1)
			case apperror.IsInsufficientStock(err):
				shortages.Add(1)
			default:
				t.Errorf("reserve: %v", err)
			}
		}()
	}
	wg.Wait()

	// 150 units fit 21 reservations of 7; the rest must fail whole.
	assert.Equal(t, int64(21), succeeded.Load())
	assert.Equal(t, int64(workers-21), shortages.Load())

	avail, err := l.Services.Stock.GetAvailability(ctx, l.itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), avail.Quantity)
	assert.Equal(t, succeeded.Load()*each, avail.ReservedQty)
	assert.LessOrEqual(t, avail.ReservedQty, avail.Quantity)
	assert.Equal(t, avail.Quantity-avail.ReservedQty, avail.AvailableQty)

	for _, b := range []*batch.Batch{l.b1, l.b2} {
		rec := l.record(t, b)
		assert.LessOrEqual(t, rec.ReservedQty, rec.Quantity, b.Number)
		assert.GreaterOrEqual(t, rec.ReservedQty, int64(0), b.Number)
		assert.Equal(t, rec.Quantity-rec.ReservedQty, rec.AvailableQty, b.Number)
	}
}

func TestService_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("releases newest batch first", func(t *testing.T) {
		l := newLedger(t)
		ref := newRef()
		_, err := l.Services.Stock.Reserve(ctx, ref, l.itemID, 120)
		require.NoError(t, err)

		require.NoError(t, l.Services.Stock.Release(ctx, ref, l.itemID, 30))

		assert.Equal(t, int64(0), l.record(t, l.b2).ReservedQty)
		assert.Equal(t, int64(90), l.record(t, l.b1).ReservedQty)

		held, err := l.Services.Stock.Reservations(ctx, ref.OrderID)
		require.NoError(t, err)
		require.Len(t, held, 1)
		assert.Equal(t, int64(90), held[0].Quantity)
	})

	t.Run("cannot release more than held", func(t *testing.T) {
		l := newLedger(t)
		ref := newRef()
		_, err := l.Services.Stock.Reserve(ctx, ref, l.itemID, 10)
		require.NoError(t, err)

		err = l.Services.Stock.Release(ctx, ref, l.itemID, 11)
		assert.True(t, apperror.IsInvalidState(err))
		assert.Equal(t, int64(10), l.record(t, l.b1).ReservedQty)
	})

	t.Run("release order frees every line", func(t *testing.T) {
		l := newLedger(t)
		orderID := id.New()
		_, err := l.Services.Stock.Reserve(ctx, stock.Reference{OrderID: orderID, LineID: id.New()}, l.itemID, 60)
		require.NoError(t, err)
		_, err = l.Services.Stock.Reserve(ctx, stock.Reference{OrderID: orderID, LineID: id.New()}, l.itemID, 60)
		require.NoError(t, err)

		require.NoError(t, l.Services.Stock.ReleaseOrder(ctx, orderID))

		avail, err := l.Services.Stock.GetAvailability(ctx, l.itemID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), avail.ReservedQty)
		assert.Equal(t, int64(150), avail.AvailableQty)

		held, err := l.Services.Stock.Reservations(ctx, orderID)
		require.NoError(t, err)
		assert.Empty(t, held)
	})
}

func TestService_PickAndConsume(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	ref := newRef()
	_, err := l.Services.Stock.Reserve(ctx, ref, l.itemID, 120)
	require.NoError(t, err)

	plan, err := l.Services.Stock.PlanPick(ctx, ref, l.itemID, 110)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, int64(100), plan[0].Quantity)
	assert.Equal(t, int64(10), plan[1].Quantity)

	for _, a := range plan {
		require.NoError(t, l.Services.Stock.Consume(ctx, ref, a.Key, a.Quantity))
	}

	b1 := l.record(t, l.b1)
	assert.Equal(t, int64(0), b1.Quantity)
	assert.Equal(t, int64(0), b1.ReservedQty)

	b2 := l.record(t, l.b2)
	assert.Equal(t, int64(40), b2.Quantity)
	assert.Equal(t, int64(10), b2.ReservedQty)
	assert.Equal(t, int64(30), b2.AvailableQty)

	t.Run("cannot pick beyond reservation", func(t *testing.T) {
		_, err := l.Services.Stock.PlanPick(ctx, ref, l.itemID, 11)
		assert.True(t, apperror.IsInsufficientStock(err))
	})

	t.Run("cannot consume unreserved record", func(t *testing.T) {
		err := l.Services.Stock.Consume(ctx, ref, l.key(l.b1), 1)
		assert.True(t, apperror.IsInvalidState(err))
	})
}

func TestService_Restock(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit batch", func(t *testing.T) {
		l := newLedger(t)
		batchID := l.b1.ID

		require.NoError(t, l.Services.Stock.Restock(ctx, l.itemID, l.locationID, &batchID, 5))
		assert.Equal(t, int64(105), l.record(t, l.b1).Quantity)
	})

	t.Run("defaults to latest batch", func(t *testing.T) {
		l := newLedger(t)

		require.NoError(t, l.Services.Stock.Restock(ctx, l.itemID, l.locationID, nil, 5))
		assert.Equal(t, int64(55), l.record(t, l.b2).Quantity)
	})

	t.Run("new location creates a record", func(t *testing.T) {
		l := newLedger(t)
		other := l.Location(t, "WH-2")

		require.NoError(t, l.Services.Stock.Restock(ctx, l.itemID, other.ID, nil, 3))

		rows, err := l.Services.Stock.ListRecords(ctx, stock.RecordFilter{LocationID: &other.ID})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, l.b2.ID, rows[0].BatchID)
		assert.Equal(t, int64(3), rows[0].AvailableQty)
	})
}
