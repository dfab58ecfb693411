package stock

import (
	"slices"
)

// SortFIFO orders candidates by batch purchase date, then by record id.
func SortFIFO(candidates []Candidate) {
	slices.SortStableFunc(candidates, CompareFIFO)
}

// CompareFIFO orders by purchase date, then record id.
func CompareFIFO(a, b Candidate) int {
	if c := a.PurchaseDate.Compare(b.PurchaseDate); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// PlanFIFO draws qty units from candidates, oldest batch first, taking
// min(Free, remaining) from each. It returns the plan and the total free
// quantity. When total < qty the plan is nil and nothing should be applied.
// The input slice is not modified.
func PlanFIFO(candidates []Candidate, qty int64) ([]Allocation, int64) {
	ordered := slices.Clone(candidates)
	SortFIFO(ordered)

	var total int64
	for _, c := range ordered {
		if c.Free > 0 {
			total += c.Free
		}
	}
	if total < qty {
		return nil, total
	}

	plan := make([]Allocation, 0, len(ordered))
	remaining := qty
	for _, c := range ordered {
		if remaining == 0 {
			break
		}
		if c.Free <= 0 {
			continue
		}
		take := min(c.Free, remaining)
		plan = append(plan, Allocation{
			RecordID:     c.ID,
			Key:          c.Key,
			BatchNumber:  c.BatchNumber,
			PurchaseDate: c.PurchaseDate,
			UnitCost:     c.UnitCost,
			Quantity:     take,
		})
		remaining -= take
	}
	return plan, total
}
