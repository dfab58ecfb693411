// Package sales_order provides the SalesOrder document and the reservation
// service that promises stock to it.
package sales_order

import (
	"context"
	"fmt"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
)

// SalesOrder is a confirmed customer order. Stock for every line is
// reserved for as long as the line is unfulfilled.
type SalesOrder struct {
	entity.Document

	CustomerID id.ID `db:"customer_id" json:"customerId"`

	// QuotationID is set when the order was converted from a quotation
	QuotationID *id.ID `db:"quotation_id" json:"quotationId,omitempty"`

	Status Status `db:"status" json:"status"`

	// CreditTermDays overrides the customer's default payment term
	CreditTermDays *int `db:"credit_term_days" json:"creditTermDays,omitempty"`

	// Totals (calculated from lines)
	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TaxRate        types.Money `db:"tax_rate" json:"taxRate"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	GrandTotal     types.Money `db:"grand_total" json:"grandTotal"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one ordered item.
type Line struct {
	LineID       id.ID `db:"line_id" json:"lineId"`
	SalesOrderID id.ID `db:"sales_order_id" json:"-"`
	LineNo       int   `db:"line_no" json:"lineNo"`

	ItemID id.ID `db:"item_id" json:"itemId"`

	Quantity        int64       `db:"quantity" json:"quantity"`
	UnitPrice       types.Money `db:"unit_price" json:"unitPrice"`
	DiscountPercent types.Money `db:"discount_percent" json:"discountPercent"`
	Subtotal        types.Money `db:"subtotal" json:"subtotal"`

	// ReservedQty is what the ledger currently holds for this line
	ReservedQty int64 `db:"reserved_qty" json:"reservedQty"`

	// FulfilledQty is what has been picked so far
	FulfilledQty int64 `db:"fulfilled_qty" json:"fulfilledQty"`
}

// Outstanding returns the quantity still to be picked.
func (l *Line) Outstanding() int64 {
	return max(l.Quantity-l.FulfilledQty, 0)
}

// LineSubtotal returns qty x price less the line discount, rounded to cents.
func LineSubtotal(qty int64, unitPrice, discountPercent types.Money) types.Money {
	gross := types.Extend(unitPrice, qty)
	return types.Round(gross.Sub(types.Percent(gross, discountPercent)))
}

// NewSalesOrder creates an empty confirmed order.
func NewSalesOrder(customerID id.ID) *SalesOrder {
	return &SalesOrder{
		Document:       entity.NewDocument(),
		CustomerID:     customerID,
		Status:         StatusConfirmed,
		Subtotal:       types.Zero(),
		DiscountAmount: types.Zero(),
		TaxRate:        types.Zero(),
		TaxAmount:      types.Zero(),
		GrandTotal:     types.Zero(),
		Lines:          make([]Line, 0),
	}
}

// AddLine appends a line priced at unitPrice less discountPercent.
func (o *SalesOrder) AddLine(itemID id.ID, qty int64, unitPrice, discountPercent types.Money) {
	o.Lines = append(o.Lines, Line{
		LineID:          id.New(),
		SalesOrderID:    o.ID,
		LineNo:          len(o.Lines) + 1,
		ItemID:          itemID,
		Quantity:        qty,
		UnitPrice:       unitPrice,
		DiscountPercent: discountPercent,
		Subtotal:        LineSubtotal(qty, unitPrice, discountPercent),
	})
}

// Recalculate updates totals from lines. Tax is charged on the subtotal net
// of the order discount.
func (o *SalesOrder) Recalculate() {
	subtotal := types.Zero()
	for _, l := range o.Lines {
		subtotal = subtotal.Add(l.Subtotal)
	}
	o.Subtotal = subtotal

	base := types.MaxZero(subtotal.Sub(o.DiscountAmount))
	o.TaxAmount = types.Percent(base, o.TaxRate)
	o.GrandTotal = types.Round(base.Add(o.TaxAmount))
}

// Line returns the line with lineID.
func (o *SalesOrder) Line(lineID id.ID) (*Line, bool) {
	for i := range o.Lines {
		if o.Lines[i].LineID == lineID {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// StartProcessing marks a confirmed order as being picked.
// Orders already past confirmed are left as they are.
func (o *SalesOrder) StartProcessing() error {
	if o.Status == StatusConfirmed {
		return o.transition(StatusProcessing, "start picking")
	}
	if !o.Status.IsOpen() {
		return apperror.NewInvalidState("sales order", string(o.Status), "start picking")
	}
	return nil
}

// ApplyPick records qty picked units on a line: fulfilled goes up and the
// reservation the line holds goes down by the same amount.
func (o *SalesOrder) ApplyPick(lineID id.ID, qty int64) error {
	l, ok := o.Line(lineID)
	if !ok {
		return apperror.NewNotFound("sales order line", lineID)
	}
	if qty > l.ReservedQty {
		return apperror.NewExceedsReservation(qty, l.ReservedQty).
			WithDetail("lineId", lineID)
	}
	l.FulfilledQty += qty
	l.ReservedQty -= qty
	return nil
}

// RefreshStatus re-derives the status from line fulfilment.
func (o *SalesOrder) RefreshStatus() error {
	next := DeriveStatus(o.Lines)
	if next == o.Status {
		return nil
	}
	return o.transition(next, "update fulfilment of")
}

// Cancel moves the order to cancelled and clears line reservations.
// The caller releases the ledger reservation in the same transaction.
func (o *SalesOrder) Cancel() error {
	if err := o.transition(StatusCancelled, "cancel"); err != nil {
		return err
	}
	for i := range o.Lines {
		o.Lines[i].ReservedQty = 0
	}
	return nil
}

// Validate implements entity.Validatable.
func (o *SalesOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if !o.Status.IsValid() {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(o.Status))
	}
	if o.CreditTermDays != nil && *o.CreditTermDays < 0 {
		return apperror.NewValidation("credit term cannot be negative").
			WithDetail("field", "creditTermDays")
	}
	if o.DiscountAmount.IsNegative() || o.DiscountAmount.GreaterThan(o.Subtotal) {
		return apperror.NewValidation("discount must be between zero and the subtotal").
			WithDetail("field", "discountAmount")
	}
	if len(o.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for _, l := range o.Lines {
		field := fmt.Sprintf("lines[%d]", l.LineNo-1)
		if id.IsNil(l.ItemID) {
			return apperror.NewValidation("item is required").
				WithDetail("field", field+".itemId")
		}
		if l.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", field+".quantity")
		}
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", field+".unitPrice")
		}
		if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(types.NewMoneyFromInt(100)) {
			return apperror.NewValidation("discount must be between 0 and 100 percent").
				WithDetail("field", field+".discountPercent")
		}
	}
	return nil
}
