package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
	"partsflow/internal/domain"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/domain/documents/sales_order"
)

func newOrder() *sales_order.SalesOrder {
	o := sales_order.NewSalesOrder(id.New())
	o.Number = "SO-202501-0001"
	o.AddLine(id.New(), 2, types.MustMoney("10"), types.Zero())
	o.Recalculate()
	return o
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := New()
	txm := NewTxManager(store)
	boom := errors.New("boom")

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, store.Items().Create(ctx, item.NewItem("A", "A", "pcs", types.Zero())))
		require.NoError(t, store.EventLog().Publish(ctx, domain.Event{EventType: "x"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Items().GetByCode(ctx, "A")
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, store.EventLog().Events(ctx))
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := New()
	txm := NewTxManager(store)

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
			return store.Items().Create(ctx, item.NewItem("A", "A", "pcs", types.Zero()))
		}))
		return errors.New("outer fails")
	})
	require.Error(t, err)

	_, err = store.Items().GetByCode(ctx, "A")
	assert.True(t, apperror.IsNotFound(err), "inner work rolls back with the outer transaction")
}

func TestTxManager_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := New()
	txm := NewTxManager(store)

	assert.Panics(t, func() {
		_ = txm.RunInTransaction(ctx, func(ctx context.Context) error {
			_ = store.Items().Create(ctx, item.NewItem("A", "A", "pcs", types.Zero()))
			panic("boom")
		})
	})

	_, err := store.Items().GetByCode(ctx, "A")
	assert.True(t, apperror.IsNotFound(err))
}

func TestDocRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("reads are copies", func(t *testing.T) {
		repo := New().SalesOrders()
		o := newOrder()
		require.NoError(t, repo.Create(ctx, o))

		o.Lines[0].Quantity = 99
		got, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Lines[0].Quantity)

		got.Lines[0].Quantity = 77
		again, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), again.Lines[0].Quantity)
	})

	t.Run("update checks and bumps version", func(t *testing.T) {
		repo := New().SalesOrders()
		o := newOrder()
		require.NoError(t, repo.Create(ctx, o))

		stale, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)

		require.NoError(t, repo.Update(ctx, o))
		assert.Equal(t, 2, o.Version)

		err = repo.Update(ctx, stale)
		assert.True(t, apperror.IsConcurrentModification(err))
	})

	t.Run("duplicate number", func(t *testing.T) {
		repo := New().SalesOrders()
		require.NoError(t, repo.Create(ctx, newOrder()))

		err := repo.Create(ctx, newOrder())
		assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
	})

	t.Run("list pages newest first", func(t *testing.T) {
		repo := New().SalesOrders()
		first := newOrder()
		second := newOrder()
		second.Number = "SO-202501-0002"
		second.Date = first.Date.AddDate(0, 0, 1)
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		res, err := repo.List(ctx, sales_order.ListFilter{ListFilter: domain.ListFilter{Limit: 1}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.TotalCount)
		require.Len(t, res.Items, 1)
		assert.Equal(t, second.ID, res.Items[0].ID)

		res, err = repo.List(ctx, sales_order.ListFilter{ListFilter: domain.ListFilter{Search: "0001"}})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, first.ID, res.Items[0].ID)
	})
}
