package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/core/types"
)

func candidate(recordID int64, purchased string, free int64, cost string) Candidate {
	d, _ := time.Parse("2006-01-02", purchased)
	return Candidate{
		Record:       Record{ID: recordID, Quantity: free, AvailableQty: free},
		BatchNumber:  d.Format("20060102") + "-001",
		PurchaseDate: d,
		UnitCost:     types.MustMoney(cost),
		Free:         free,
	}
}

func TestPlanFIFO(t *testing.T) {
	t.Run("oldest batch first", func(t *testing.T) {
		b2 := candidate(2, "2025-01-15", 50, "90000")
		b1 := candidate(1, "2025-01-01", 100, "85000")

		plan, total := PlanFIFO([]Candidate{b2, b1}, 120)

		require.Len(t, plan, 2)
		assert.Equal(t, int64(150), total)
		assert.Equal(t, int64(1), plan[0].RecordID)
		assert.Equal(t, int64(100), plan[0].Quantity)
		assert.Equal(t, int64(2), plan[1].RecordID)
		assert.Equal(t, int64(20), plan[1].Quantity)
	})

	t.Run("same purchase date breaks ties by record id", func(t *testing.T) {
		later := candidate(7, "2025-02-01", 5, "1000")
		earlier := candidate(3, "2025-02-01", 5, "1200")

		plan, _ := PlanFIFO([]Candidate{later, earlier}, 6)

		require.Len(t, plan, 2)
		assert.Equal(t, int64(3), plan[0].RecordID)
		assert.Equal(t, int64(5), plan[0].Quantity)
		assert.Equal(t, int64(7), plan[1].RecordID)
		assert.Equal(t, int64(1), plan[1].Quantity)
	})

	t.Run("shortage returns no plan", func(t *testing.T) {
		plan, total := PlanFIFO([]Candidate{
			candidate(1, "2025-01-01", 100, "85000"),
			candidate(2, "2025-01-15", 50, "90000"),
		}, 151)

		assert.Nil(t, plan)
		assert.Equal(t, int64(150), total)
	})

	t.Run("skips records with nothing free", func(t *testing.T) {
		plan, _ := PlanFIFO([]Candidate{
			candidate(1, "2025-01-01", 0, "85000"),
			candidate(2, "2025-01-15", 10, "90000"),
		}, 4)

		require.Len(t, plan, 1)
		assert.Equal(t, int64(2), plan[0].RecordID)
	})

	t.Run("input order is preserved", func(t *testing.T) {
		in := []Candidate{
			candidate(2, "2025-01-15", 50, "90000"),
			candidate(1, "2025-01-01", 100, "85000"),
		}
		PlanFIFO(in, 10)
		assert.Equal(t, int64(2), in[0].ID)
	})
}

func TestRecord_CheckInvariant(t *testing.T) {
	rec := Record{ID: 1, Quantity: 10, ReservedQty: 4, AvailableQty: 6}
	assert.NoError(t, rec.CheckInvariant())

	rec.reserve(6)
	assert.NoError(t, rec.CheckInvariant())
	assert.Equal(t, int64(0), rec.AvailableQty)

	rec.reserve(1)
	assert.Error(t, rec.CheckInvariant(), "available below zero")

	broken := Record{ID: 2, Quantity: 10, ReservedQty: 4, AvailableQty: 5}
	assert.Error(t, broken.CheckInvariant())
}
