package report_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/core/id"
	"partsflow/internal/domain/reports"
)

func TestStockSummaryQuery(t *testing.T) {
	repo := NewReportRepo(nil)

	t.Run("low stock uses having", func(t *testing.T) {
		sql, args, err := repo.stockSummaryQuery(reports.StockSummaryFilter{LowStockOnly: true, Limit: 10}).ToSql()
		require.NoError(t, err)

		assert.Contains(t, sql, "GROUP BY i.id, i.code, i.name, i.unit, i.min_stock")
		assert.Contains(t, sql, "HAVING i.min_stock > 0 AND SUM(s.quantity) <= i.min_stock")
		assert.Contains(t, sql, "ORDER BY i.code LIMIT 10")
		assert.Empty(t, args)
	})

	t.Run("item and location filters", func(t *testing.T) {
		loc := id.New()
		items := []id.ID{id.New(), id.New()}

		sql, args, err := repo.stockSummaryQuery(reports.StockSummaryFilter{ItemIDs: items, LocationID: &loc}).ToSql()
		require.NoError(t, err)

		assert.Contains(t, sql, "WHERE s.item_id IN ($1,$2) AND s.location_id = $3")
		assert.NotContains(t, sql, "HAVING")
		assert.Len(t, args, 3)
	})
}

func TestReceivablesQuery(t *testing.T) {
	repo := NewReportRepo(nil)

	t.Run("outstanding statuses only", func(t *testing.T) {
		sql, args, err := repo.receivablesQuery(reports.ReceivablesFilter{}).ToSql()
		require.NoError(t, err)

		assert.Contains(t, sql, "WHERE inv.status IN ($1,$2)")
		assert.Contains(t, sql, "ORDER BY inv.due_date, inv.number")
		require.Len(t, args, 2)
		assert.EqualValues(t, "unpaid", args[0])
		assert.EqualValues(t, "partial_paid", args[1])
	})

	t.Run("overdue only compares due date", func(t *testing.T) {
		asOf := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
		sql, args, err := repo.receivablesQuery(reports.ReceivablesFilter{OverdueOnly: true, AsOf: &asOf}).ToSql()
		require.NoError(t, err)

		assert.Contains(t, sql, "inv.due_date < $3")
		assert.Equal(t, asOf, args[2])
	})
}
