package invoice

import (
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/documents/delivery_order"
)

// ItemCost is the picked quantity and total batch cost of one item.
type ItemCost struct {
	Quantity  int64
	TotalCost types.Money
}

// UnitCost returns the weighted-average unit cost, rounded to cents.
func (c ItemCost) UnitCost() types.Money {
	if c.Quantity == 0 {
		return types.Zero()
	}
	return types.Round(c.TotalCost.Div(types.NewMoneyFromInt(c.Quantity)))
}

// CostOf returns the cost of qty units at the weighted average. The total is
// scaled before dividing so that costing every picked unit reproduces the
// exact batch cost.
func (c ItemCost) CostOf(qty int64) types.Money {
	if c.Quantity == 0 || qty == 0 {
		return types.Zero()
	}
	return types.Round(c.TotalCost.Mul(types.NewMoneyFromInt(qty)).Div(types.NewMoneyFromInt(c.Quantity)))
}

// ComputeCosting aggregates sum(qty x batch cost) and sum(qty) per item
// across delivery order lines.
func ComputeCosting(lines []delivery_order.Line) map[id.ID]ItemCost {
	out := make(map[id.ID]ItemCost)
	for _, l := range lines {
		c := out[l.ItemID]
		c.Quantity += l.Quantity
		c.TotalCost = c.TotalCost.Add(types.Extend(l.UnitCost, l.Quantity))
		out[l.ItemID] = c
	}
	return out
}
