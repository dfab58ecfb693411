// Package sales_quotation provides quotations: priced offers that reserve
// nothing until converted into a sales order.
package sales_quotation

import (
	"context"
	"fmt"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/documents/sales_order"
)

// Status of a quotation.
type Status string

const (
	StatusOpen      Status = "open"
	StatusConverted Status = "converted"
	StatusCancelled Status = "cancelled"
)

// SalesQuotation is an offer to a customer.
type SalesQuotation struct {
	entity.Document

	CustomerID id.ID      `db:"customer_id" json:"customerId"`
	Status     Status     `db:"status" json:"status"`
	ValidUntil *time.Time `db:"valid_until" json:"validUntil,omitempty"`

	// SalesOrderID is set once converted
	SalesOrderID *id.ID `db:"sales_order_id" json:"salesOrderId,omitempty"`

	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TaxRate        types.Money `db:"tax_rate" json:"taxRate"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	GrandTotal     types.Money `db:"grand_total" json:"grandTotal"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one quoted item.
type Line struct {
	LineID      id.ID `db:"line_id" json:"lineId"`
	QuotationID id.ID `db:"quotation_id" json:"-"`
	LineNo      int   `db:"line_no" json:"lineNo"`

	ItemID          id.ID       `db:"item_id" json:"itemId"`
	Quantity        int64       `db:"quantity" json:"quantity"`
	UnitPrice       types.Money `db:"unit_price" json:"unitPrice"`
	DiscountPercent types.Money `db:"discount_percent" json:"discountPercent"`
	Subtotal        types.Money `db:"subtotal" json:"subtotal"`
}

// NewSalesQuotation creates an open quotation.
func NewSalesQuotation(customerID id.ID) *SalesQuotation {
	return &SalesQuotation{
		Document:       entity.NewDocument(),
		CustomerID:     customerID,
		Status:         StatusOpen,
		Subtotal:       types.Zero(),
		DiscountAmount: types.Zero(),
		TaxRate:        types.Zero(),
		TaxAmount:      types.Zero(),
		GrandTotal:     types.Zero(),
		Lines:          make([]Line, 0),
	}
}

// AddLine appends a quoted line.
func (q *SalesQuotation) AddLine(itemID id.ID, qty int64, unitPrice, discountPercent types.Money) {
	q.Lines = append(q.Lines, Line{
		LineID:          id.New(),
		QuotationID:     q.ID,
		LineNo:          len(q.Lines) + 1,
		ItemID:          itemID,
		Quantity:        qty,
		UnitPrice:       unitPrice,
		DiscountPercent: discountPercent,
		Subtotal:        sales_order.LineSubtotal(qty, unitPrice, discountPercent),
	})
}

// Recalculate updates totals from lines the same way a sales order does.
func (q *SalesQuotation) Recalculate() {
	subtotal := types.Zero()
	for _, l := range q.Lines {
		subtotal = subtotal.Add(l.Subtotal)
	}
	q.Subtotal = subtotal
	base := types.MaxZero(subtotal.Sub(q.DiscountAmount))
	q.TaxAmount = types.Percent(base, q.TaxRate)
	q.GrandTotal = types.Round(base.Add(q.TaxAmount))
}

// IsExpired reports whether the offer lapsed before now.
func (q *SalesQuotation) IsExpired(now time.Time) bool {
	return q.ValidUntil != nil && now.After(*q.ValidUntil)
}

// MarkConverted links the quotation to the order created from it.
func (q *SalesQuotation) MarkConverted(orderID id.ID) error {
	if q.Status != StatusOpen {
		return apperror.NewInvalidState("sales quotation", string(q.Status), "convert")
	}
	q.Status = StatusConverted
	q.SalesOrderID = &orderID
	return nil
}

// Cancel withdraws an open quotation.
func (q *SalesQuotation) Cancel() error {
	if q.Status != StatusOpen {
		return apperror.NewInvalidState("sales quotation", string(q.Status), "cancel")
	}
	q.Status = StatusCancelled
	return nil
}

// Validate implements entity.Validatable.
func (q *SalesQuotation) Validate(ctx context.Context) error {
	if err := q.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(q.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if q.ValidUntil != nil && q.ValidUntil.Before(q.Date) {
		return apperror.NewValidation("valid-until precedes quotation date").
			WithDetail("field", "validUntil")
	}
	if q.DiscountAmount.IsNegative() || q.DiscountAmount.GreaterThan(q.Subtotal) {
		return apperror.NewValidation("discount must be between zero and the subtotal").
			WithDetail("field", "discountAmount")
	}
	if len(q.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, l := range q.Lines {
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", fmt.Sprintf("lines[%d].unitPrice", i))
		}
		if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(types.NewMoneyFromInt(100)) {
			return apperror.NewValidation("discount must be between 0 and 100 percent").
				WithDetail("field", fmt.Sprintf("lines[%d].discountPercent", i))
		}
	}
	return nil
}
