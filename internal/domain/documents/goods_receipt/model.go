// Package goods_receipt provides the GoodsReceipt document (incoming stock
// from suppliers). Every line opens a new batch.
package goods_receipt

import (
	"context"
	"fmt"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
)

// GoodsReceipt records goods received from a supplier into a location.
type GoodsReceipt struct {
	entity.Document

	// Supplier name as printed on the supplier's document
	Supplier string `db:"supplier" json:"supplier"`

	// Location where goods are received
	LocationID id.ID `db:"location_id" json:"locationId"`

	// Supplier's document reference
	SupplierDocNumber string `db:"supplier_doc_number" json:"supplierDocNumber,omitempty"`

	// Totals (calculated from lines)
	TotalQuantity int64       `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.Money `db:"total_amount" json:"totalAmount"`

	// Table part: received goods
	Lines []Line `db:"-" json:"lines"`
}

// Line represents a line in the goods receipt.
type Line struct {
	// Line identification
	LineID    id.ID `db:"line_id" json:"lineId"`
	ReceiptID id.ID `db:"receipt_id" json:"-"`
	LineNo    int   `db:"line_no" json:"lineNo"`

	ItemID id.ID `db:"item_id" json:"itemId"`

	// Batch opened by this line
	BatchID     id.ID  `db:"batch_id" json:"batchId"`
	BatchNumber string `db:"batch_number" json:"batchNumber"`

	// Quantity and pricing
	Quantity int64       `db:"quantity" json:"quantity"`
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
	Amount   types.Money `db:"amount" json:"amount"`
}

// NewGoodsReceipt creates a new goods receipt document.
func NewGoodsReceipt(supplier string, locationID id.ID) *GoodsReceipt {
	return &GoodsReceipt{
		Document:    entity.NewDocument(),
		Supplier:    supplier,
		LocationID:  locationID,
		TotalAmount: types.Zero(),
		Lines:       make([]Line, 0),
	}
}

// AddLine adds a line to the goods receipt and recalculates totals.
func (g *GoodsReceipt) AddLine(itemID id.ID, quantity int64, unitCost types.Money) *Line {
	g.Lines = append(g.Lines, Line{
		LineID:    id.New(),
		ReceiptID: g.ID,
		LineNo:    len(g.Lines) + 1,
		ItemID:    itemID,
		Quantity:  quantity,
		UnitCost:  unitCost,
		Amount:    types.Round(types.Extend(unitCost, quantity)),
	})
	g.recalculateTotals()
	return &g.Lines[len(g.Lines)-1]
}

// recalculateTotals updates document totals from lines.
func (g *GoodsReceipt) recalculateTotals() {
	g.TotalQuantity = 0
	g.TotalAmount = types.Zero()

	for _, line := range g.Lines {
		g.TotalQuantity += line.Quantity
		g.TotalAmount = g.TotalAmount.Add(line.Amount)
	}
}

// Validate implements entity.Validatable.
func (g *GoodsReceipt) Validate(ctx context.Context) error {
	if err := g.Document.Validate(ctx); err != nil {
		return err
	}

	if g.Supplier == "" {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplier")
	}

	if id.IsNil(g.LocationID) {
		return apperror.NewValidation("location is required").
			WithDetail("field", "locationId")
	}

	if len(g.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range g.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if id.IsNil(line.ItemID) {
			return apperror.NewValidation("item is required").
				WithDetail("field", field+".itemId")
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", field+".quantity")
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", field+".unitCost")
		}
	}

	return nil
}
