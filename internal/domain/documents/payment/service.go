package payment

import (
	"context"
	"fmt"
	"time"

	"partsflow/internal/core/id"
	"partsflow/internal/core/numerator"
	"partsflow/internal/core/tx"
	"partsflow/internal/core/types"
	"partsflow/internal/core/validation"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/pkg/logger"
)

// Input records a payment.
type Input struct {
	InvoiceID id.ID       `json:"invoiceId" validate:"required"`
	Amount    types.Money `json:"amount"`
	Method    Method      `json:"method" validate:"required"`
	Date      *time.Time  `json:"date,omitempty"`
	Reference string      `json:"reference" validate:"max=100"`
	Comment   string      `json:"comment" validate:"max=1000"`
}

// Service is the payment ledger.
type Service struct {
	repo      Repository
	invoices  invoice.Repository
	numerator numerator.Generator
	events    domain.EventPublisher
	txManager tx.Manager
}

// NewService creates a new payment service.
func NewService(
	repo Repository,
	invoices invoice.Repository,
	numerator numerator.Generator,
	events domain.EventPublisher,
	txManager tx.Manager,
) *Service {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		invoices:  invoices,
		numerator: numerator,
		events:    events,
		txManager: txManager,
	}
}

// RecordPayment applies a payment to an invoice and stores it.
// Returns the payment and the updated invoice.
func (s *Service) RecordPayment(ctx context.Context, in Input) (*Payment, *invoice.Invoice, error) {
	if err := validation.Struct(in); err != nil {
		return nil, nil, err
	}

	p := NewPayment(in.InvoiceID, in.Amount, in.Method)
	p.Reference = in.Reference
	p.Comment = in.Comment
	if in.Date != nil {
		p.Date = in.Date.UTC()
	}
	p.StampCreated(ctx)
	if err := p.Validate(ctx); err != nil {
		return nil, nil, err
	}

	var inv *invoice.Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.GetForUpdate(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if err := inv.ApplyPayment(p.Amount); err != nil {
			return err
		}
		inv.StampUpdated(ctx)
		if err := s.invoices.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DocumentConfig(numerator.PrefixPayment),
			&numerator.Options{Strategy: NumeratorStrategy}, p.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		p.Number = number

		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return s.events.Publish(ctx, domain.Event{
			AggregateType: domain.AggregatePayment,
			AggregateID:   p.ID,
			EventType:     domain.EventPaymentRecorded,
			Payload: map[string]any{
				"number":          p.Number,
				"invoiceId":       inv.ID,
				"amount":          p.Amount,
				"invoiceStatus":   inv.Status,
				"remainingAmount": inv.RemainingAmount,
			},
		})
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "payment recorded",
		"id", p.ID,
		"number", p.Number,
		"invoice_id", inv.ID,
		"amount", p.Amount.String(),
		"invoice_status", inv.Status)

	return p, inv, nil
}

// GetByID retrieves a payment.
func (s *Service) GetByID(ctx context.Context, paymentID id.ID) (*Payment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

// ListByInvoice retrieves the payments of an invoice, oldest first.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}

// List retrieves payments.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Payment], error) {
	return s.repo.List(ctx, filter.Normalize())
}
