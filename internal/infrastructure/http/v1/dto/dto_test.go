package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/domain/documents/sales_order"
)

func TestListQuery_ToListFilter(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := ListQuery{}.ToListFilter()
		assert.Equal(t, 50, f.Limit)
		assert.Equal(t, "-date", f.OrderBy)
	})

	t.Run("overrides", func(t *testing.T) {
		f := ListQuery{Search: "SO-2025", OrderBy: "number", Limit: 10, Offset: 20}.ToListFilter()
		assert.Equal(t, "SO-2025", f.Search)
		assert.Equal(t, "number", f.OrderBy)
		assert.Equal(t, 10, f.Limit)
		assert.Equal(t, 20, f.Offset)
	})
}

func TestSalesOrderListQuery_ToFilter(t *testing.T) {
	customerID := id.New()

	t.Run("parses ids and status", func(t *testing.T) {
		f, err := SalesOrderListQuery{CustomerID: customerID.String(), Status: "processing"}.ToFilter()
		require.NoError(t, err)
		require.NotNil(t, f.CustomerID)
		assert.Equal(t, customerID, *f.CustomerID)
		require.NotNil(t, f.Status)
		assert.Equal(t, sales_order.StatusProcessing, *f.Status)
	})

	t.Run("empty filters stay nil", func(t *testing.T) {
		f, err := SalesOrderListQuery{}.ToFilter()
		require.NoError(t, err)
		assert.Nil(t, f.CustomerID)
		assert.Nil(t, f.Status)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := SalesOrderListQuery{CustomerID: "not-a-uuid"}.ToFilter()
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestStockSummaryQuery_ToFilter(t *testing.T) {
	a, b := id.New(), id.New()

	f, err := StockSummaryQuery{ItemIDs: []string{a.String(), "", b.String()}, LowStockOnly: true}.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, []id.ID{a, b}, f.ItemIDs)
	assert.True(t, f.LowStockOnly)
	assert.Nil(t, f.LocationID)
}

func TestStockRecordsQuery_DefaultLimit(t *testing.T) {
	f, err := StockRecordsQuery{}.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, 100, f.Limit)
}
