// Package payment provides the append-only payment ledger. Recording a
// payment is the only operation that changes what an invoice has been paid.
package payment

import (
	"context"
	"slices"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
)

// Method of payment.
type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
	MethodCard         Method = "card"
	MethodGiro         Method = "giro"
)

var methods = []Method{MethodCash, MethodBankTransfer, MethodCard, MethodGiro}

// IsValid reports whether m is a known method.
func (m Method) IsValid() bool {
	return slices.Contains(methods, m)
}

// Payment is one receipt of money against an invoice. Never updated.
type Payment struct {
	entity.Document

	InvoiceID id.ID       `db:"invoice_id" json:"invoiceId"`
	Amount    types.Money `db:"amount" json:"amount"`
	Method    Method      `db:"method" json:"method"`

	// Reference is the bank or giro reference
	Reference string `db:"reference" json:"reference,omitempty"`
}

// NewPayment creates a new payment.
func NewPayment(invoiceID id.ID, amount types.Money, method Method) *Payment {
	return &Payment{
		Document:  entity.NewDocument(),
		InvoiceID: invoiceID,
		Amount:    amount,
		Method:    method,
	}
}

// Validate implements entity.Validatable.
func (p *Payment) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.InvoiceID) {
		return apperror.NewValidation("invoice is required").
			WithDetail("field", "invoiceId")
	}
	if !p.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if !p.Method.IsValid() {
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "method").
			WithDetail("value", string(p.Method))
	}
	return nil
}
