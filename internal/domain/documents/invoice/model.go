// Package invoice provides the Invoice document and the costing engine that
// prices goods sold at the cost of the batches actually picked.
package invoice

import (
	"context"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
)

// Invoice bills the fulfilled part of a sales order.
// Invariant: PaidAmount + RemainingAmount = GrandTotal.
type Invoice struct {
	entity.Document

	SalesOrderID id.ID     `db:"sales_order_id" json:"salesOrderId"`
	CustomerID   id.ID     `db:"customer_id" json:"customerId"`
	DueDate      time.Time `db:"due_date" json:"dueDate"`
	Status       Status    `db:"status" json:"status"`

	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TaxRate        types.Money `db:"tax_rate" json:"taxRate"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	GrandTotal     types.Money `db:"grand_total" json:"grandTotal"`

	// Costing, computed once at creation
	HPP          types.Money `db:"hpp" json:"hpp"`
	Profit       types.Money `db:"profit" json:"profit"`
	ProfitMargin types.Money `db:"profit_margin" json:"profitMargin"`

	PaidAmount      types.Money `db:"paid_amount" json:"paidAmount"`
	RemainingAmount types.Money `db:"remaining_amount" json:"remainingAmount"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line bills the fulfilled quantity of one sales order line.
type Line struct {
	LineID    id.ID `db:"line_id" json:"lineId"`
	InvoiceID id.ID `db:"invoice_id" json:"-"`
	LineNo    int   `db:"line_no" json:"lineNo"`

	SalesOrderLineID id.ID `db:"sales_order_line_id" json:"salesOrderLineId"`
	ItemID           id.ID `db:"item_id" json:"itemId"`

	Quantity        int64       `db:"quantity" json:"quantity"`
	UnitPrice       types.Money `db:"unit_price" json:"unitPrice"`
	DiscountPercent types.Money `db:"discount_percent" json:"discountPercent"`
	Subtotal        types.Money `db:"subtotal" json:"subtotal"`

	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
	Cost     types.Money `db:"cost" json:"cost"`
	Profit   types.Money `db:"profit" json:"profit"`
}

// NewInvoice creates an empty unpaid invoice.
func NewInvoice(salesOrderID, customerID id.ID) *Invoice {
	return &Invoice{
		Document:        entity.NewDocument(),
		SalesOrderID:    salesOrderID,
		CustomerID:      customerID,
		Status:          StatusUnpaid,
		Subtotal:        types.Zero(),
		DiscountAmount:  types.Zero(),
		TaxRate:         types.Zero(),
		TaxAmount:       types.Zero(),
		GrandTotal:      types.Zero(),
		HPP:             types.Zero(),
		Profit:          types.Zero(),
		ProfitMargin:    types.Zero(),
		PaidAmount:      types.Zero(),
		RemainingAmount: types.Zero(),
		Lines:           make([]Line, 0),
	}
}

// Recalculate derives header totals from lines. requestedDiscount is capped
// at the subtotal.
func (inv *Invoice) Recalculate(requestedDiscount types.Money) {
	subtotal, hpp, lineProfit := types.Zero(), types.Zero(), types.Zero()
	for _, l := range inv.Lines {
		subtotal = subtotal.Add(l.Subtotal)
		hpp = hpp.Add(l.Cost)
		lineProfit = lineProfit.Add(l.Profit)
	}

	discount := types.MaxZero(requestedDiscount)
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	base := subtotal.Sub(discount)

	inv.Subtotal = subtotal
	inv.DiscountAmount = discount
	inv.TaxAmount = types.Percent(base, inv.TaxRate)
	inv.GrandTotal = types.Round(base.Add(inv.TaxAmount))
	inv.HPP = types.Round(hpp)
	inv.Profit = types.Round(lineProfit.Sub(discount))
	inv.ProfitMargin = types.Ratio(inv.Profit, base)

	inv.PaidAmount = types.Zero()
	inv.RemainingAmount = inv.GrandTotal
	if inv.GrandTotal.IsZero() {
		inv.Status = StatusPaid
	}
}

// ApplyPayment adds amount to the paid total. The amount may not exceed
// the remaining balance.
func (inv *Invoice) ApplyPayment(amount types.Money) error {
	if !inv.Status.IsSettleable() {
		return apperror.NewInvalidState("invoice", string(inv.Status), "record payment for")
	}
	if !amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if amount.GreaterThan(inv.RemainingAmount) {
		return apperror.NewValidation("amount exceeds remaining balance").
			WithDetail("field", "amount").
			WithDetail("remainingAmount", inv.RemainingAmount.String())
	}

	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.RemainingAmount = types.MaxZero(inv.GrandTotal.Sub(inv.PaidAmount))

	switch {
	case !inv.RemainingAmount.IsPositive():
		inv.Status = StatusPaid
	case inv.PaidAmount.IsPositive():
		inv.Status = StatusPartialPaid
	}
	return nil
}

// Cancel voids an invoice nothing has been paid on.
func (inv *Invoice) Cancel() error {
	if !inv.Status.IsSettleable() || inv.PaidAmount.IsPositive() {
		return apperror.NewInvalidState("invoice", string(inv.Status), "cancel")
	}
	inv.Status = StatusCancelled
	return nil
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(inv.SalesOrderID) {
		return apperror.NewValidation("sales order is required").
			WithDetail("field", "salesOrderId")
	}
	if len(inv.Lines) == 0 {
		return apperror.NewValidation("nothing has been fulfilled").
			WithDetail("field", "lines")
	}
	if inv.DueDate.Before(inv.Date) {
		return apperror.NewValidation("due date precedes invoice date").
			WithDetail("field", "dueDate")
	}
	if !inv.PaidAmount.Add(inv.RemainingAmount).Equal(inv.GrandTotal) {
		return apperror.NewInternal(nil).WithDetail("reason", "paid and remaining do not add up to grand total")
	}
	return nil
}
