package invoice

import (
	"context"
	"fmt"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/core/numerator"
	"partsflow/internal/core/tx"
	"partsflow/internal/core/types"
	"partsflow/internal/core/validation"
	"partsflow/internal/domain"
	"partsflow/internal/domain/catalogs/customer"
	"partsflow/internal/domain/catalogs/taxrate"
	"partsflow/internal/domain/documents/delivery_order"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/pkg/logger"
)

// CreateInput requests an invoice for a sales order.
type CreateInput struct {
	SalesOrderID   id.ID      `json:"salesOrderId" validate:"required"`
	Date           *time.Time `json:"date,omitempty"`
	CreditTermDays *int       `json:"creditTermDays,omitempty" validate:"omitempty,gte=0"`
	Comment        string     `json:"comment" validate:"max=1000"`
}

// Service is the costing and invoice engine.
type Service struct {
	repo       Repository
	orders     sales_order.Repository
	deliveries DeliveryLookup
	customers  customer.Repository
	taxRates   taxrate.DefaultRateProvider
	numerator  numerator.Generator
	events     domain.EventPublisher
	txManager  tx.Manager
	now        func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo       Repository
	Orders     sales_order.Repository
	Deliveries DeliveryLookup
	Customers  customer.Repository
	TaxRates   taxrate.DefaultRateProvider
	Numerator  numerator.Generator
	Events     domain.EventPublisher
	TxManager  tx.Manager
}

// NewService creates a new invoice service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:       d.Repo,
		orders:     d.Orders,
		deliveries: d.Deliveries,
		customers:  d.Customers,
		taxRates:   d.TaxRates,
		numerator:  d.Numerator,
		events:     events,
		txManager:  d.TxManager,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create invoices the fulfilled part of a sales order. Cost of goods is the
// weighted average of the batches picked for each item. An order can be
// invoiced once.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetForUpdate(ctx, in.SalesOrderID)
		if err != nil {
			return err
		}
		if !order.Status.IsInvoiceable() {
			return apperror.NewInvalidState("sales order", string(order.Status), "invoice")
		}

		existing, err := s.repo.GetBySalesOrder(ctx, order.ID)
		switch {
		case err == nil:
			return apperror.NewDuplicateInvoice(order.ID, existing.Number)
		case !apperror.IsNotFound(err):
			return fmt.Errorf("check existing invoice: %w", err)
		}

		cust, err := s.customers.GetByID(ctx, order.CustomerID)
		if err != nil {
			return err
		}

		deliveries, err := s.deliveries.ListBySalesOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("load delivery orders: %w", err)
		}
		var picked []delivery_order.Line
		for _, d := range deliveries {
			if d.Status.IsConsumed() {
				picked = append(picked, d.Lines...)
			}
		}

		inv = NewInvoice(order.ID, order.CustomerID)
		inv.Comment = in.Comment
		if in.Date != nil {
			inv.Date = in.Date.UTC()
		}
		inv.DueDate = inv.Date.AddDate(0, 0, creditTerm(in.CreditTermDays, order.CreditTermDays, cust.CreditTermDays))
		inv.StampCreated(ctx)

		if cust.Taxable {
			rate, err := s.taxRates.GetDefault(ctx)
			switch {
			case err == nil:
				inv.TaxRate = rate.Rate
			case !apperror.IsNotFound(err):
				return fmt.Errorf("default tax rate: %w", err)
			}
		}

		buildLines(inv, order, ComputeCosting(picked))
		inv.Recalculate(proratedDiscount(order, inv))
		if err := inv.Validate(ctx); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DocumentConfig(numerator.PrefixInvoice),
			&numerator.Options{Strategy: NumeratorStrategy}, inv.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		inv.Number = number

		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return s.publish(ctx, domain.EventInvoiceCreated, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"grand_total", inv.GrandTotal.String(),
		"hpp", inv.HPP.String(),
		"profit", inv.Profit.String())

	return inv, nil
}

func creditTerm(override, orderTerm *int, customerTerm int) int {
	if override != nil {
		return *override
	}
	if orderTerm != nil {
		return *orderTerm
	}
	return customerTerm
}

func buildLines(inv *Invoice, order *sales_order.SalesOrder, costs map[id.ID]ItemCost) {
	for _, l := range order.Lines {
		if l.FulfilledQty == 0 {
			continue
		}
		c := costs[l.ItemID]
		subtotal := sales_order.LineSubtotal(l.FulfilledQty, l.UnitPrice, l.DiscountPercent)
		cost := c.CostOf(l.FulfilledQty)
		inv.Lines = append(inv.Lines, Line{
			LineID:           id.New(),
			InvoiceID:        inv.ID,
			LineNo:           len(inv.Lines) + 1,
			SalesOrderLineID: l.LineID,
			ItemID:           l.ItemID,
			Quantity:         l.FulfilledQty,
			UnitPrice:        l.UnitPrice,
			DiscountPercent:  l.DiscountPercent,
			Subtotal:         subtotal,
			UnitCost:         c.UnitCost(),
			Cost:             cost,
			Profit:           subtotal.Sub(cost),
		})
	}
}

// proratedDiscount scales the order-level discount by the share of the
// order subtotal this invoice bills.
func proratedDiscount(order *sales_order.SalesOrder, inv *Invoice) types.Money {
	if !order.DiscountAmount.IsPositive() || !order.Subtotal.IsPositive() {
		return types.Zero()
	}
	billed := types.Zero()
	for _, l := range inv.Lines {
		billed = billed.Add(l.Subtotal)
	}
	if billed.GreaterThanOrEqual(order.Subtotal) {
		return order.DiscountAmount
	}
	return types.Round(order.DiscountAmount.Mul(billed).Div(order.Subtotal))
}

// Cancel voids an invoice nothing has been paid on.
func (s *Service) Cancel(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := inv.Cancel(); err != nil {
			return err
		}
		inv.StampUpdated(ctx)
		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		return s.publish(ctx, domain.EventInvoiceCancelled, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice cancelled", "id", inv.ID, "number", inv.Number)
	return inv, nil
}

// GetByID retrieves an invoice with lines.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, invoiceID)
}

// GetBySalesOrder retrieves the invoice of a sales order.
func (s *Service) GetBySalesOrder(ctx context.Context, salesOrderID id.ID) (*Invoice, error) {
	return s.repo.GetBySalesOrder(ctx, salesOrderID)
}

// List retrieves invoice headers.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

// Now returns the service clock; handlers use it for EffectiveStatus.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) publish(ctx context.Context, eventType string, inv *Invoice) error {
	return s.events.Publish(ctx, domain.Event{
		AggregateType: domain.AggregateInvoice,
		AggregateID:   inv.ID,
		EventType:     eventType,
		Payload: map[string]any{
			"number":       inv.Number,
			"status":       inv.Status,
			"salesOrderId": inv.SalesOrderID,
			"grandTotal":   inv.GrandTotal,
			"hpp":          inv.HPP,
		},
	})
}

