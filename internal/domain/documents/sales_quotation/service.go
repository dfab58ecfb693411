package sales_quotation

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
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/domain/catalogs/taxrate"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/pkg/logger"
)

// CreateInput describes a quotation. Lines share the sales order shape.
type CreateInput struct {
	CustomerID     id.ID                   `json:"customerId" validate:"required"`
	Date           *time.Time              `json:"date,omitempty"`
	ValidUntil     *time.Time              `json:"validUntil,omitempty"`
	DiscountAmount types.Money             `json:"discountAmount"`
	Comment        string                  `json:"comment" validate:"max=1000"`
	Lines          []sales_order.LineInput `json:"lines" validate:"required,min=1,dive"`
}

// ConvertInput carries order-only fields set at conversion.
type ConvertInput struct {
	Date           *time.Time `json:"date,omitempty"`
	CreditTermDays *int       `json:"creditTermDays,omitempty" validate:"omitempty,gte=0"`
}

// Service handles quotations.
type Service struct {
	repo      Repository
	orders    OrderCreator
	customers customer.Repository
	items     item.Repository
	taxRates  taxrate.DefaultRateProvider
	numerator numerator.Generator
	events    domain.EventPublisher
	txManager tx.Manager
	now       func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	Orders    OrderCreator
	Customers customer.Repository
	Items     item.Repository
	TaxRates  taxrate.DefaultRateProvider
	Numerator numerator.Generator
	Events    domain.EventPublisher
	TxManager tx.Manager
}

// NewService creates a new quotation service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:      d.Repo,
		orders:    d.Orders,
		customers: d.Customers,
		items:     d.Items,
		taxRates:  d.TaxRates,
		numerator: d.Numerator,
		events:    events,
		txManager: d.TxManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create prices and stores a quotation. No stock is reserved.
func (s *Service) Create(ctx context.Context, in CreateInput) (*SalesQuotation, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	q := NewSalesQuotation(in.CustomerID)
	q.DiscountAmount = in.DiscountAmount
	q.Comment = in.Comment
	q.ValidUntil = in.ValidUntil
	if in.Date != nil {
		q.Date = in.Date.UTC()
	}
	q.StampCreated(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.price(ctx, q, in.Lines); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DocumentConfig(numerator.PrefixSalesQuotation),
			&numerator.Options{Strategy: NumeratorStrategy}, q.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		q.Number = number

		if err := s.repo.Create(ctx, q); err != nil {
			return fmt.Errorf("create sales quotation: %w", err)
		}
		return s.publish(ctx, domain.EventSalesQuotationCreated, q)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales quotation created", "id", q.ID, "number", q.Number)
	return q, nil
}

func (s *Service) price(ctx context.Context, q *SalesQuotation, lines []sales_order.LineInput) error {
	cust, err := s.customers.GetByID(ctx, q.CustomerID)
	if err != nil {
		return err
	}

	ids := make([]id.ID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	items, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}

	for i, l := range lines {
		it, ok := items[l.ItemID]
		if !ok {
			return apperror.NewNotFound("item", l.ItemID).
				WithDetail("field", fmt.Sprintf("lines[%d].itemId", i))
		}
		price := it.SellingPrice
		if l.UnitPrice != nil {
			price = *l.UnitPrice
		}
		q.AddLine(l.ItemID, l.Quantity, price, l.DiscountPercent)
	}

	if cust.Taxable {
		rate, err := s.taxRates.GetDefault(ctx)
		switch {
		case err == nil:
			q.TaxRate = rate.Rate
		case !apperror.IsNotFound(err):
			return fmt.Errorf("default tax rate: %w", err)
		}
	}

	q.Recalculate()
	return q.Validate(ctx)
}

// Convert opens a sales order at the quoted prices and marks the quotation
// converted, in one transaction. Stock is reserved by the order; a shortage
// leaves the quotation open.
func (s *Service) Convert(ctx context.Context, quotationID id.ID, in ConvertInput) (*sales_order.SalesOrder, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var order *sales_order.SalesOrder
	var q *SalesQuotation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		q, err = s.repo.GetForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if q.Status != StatusOpen {
			return apperror.NewInvalidState("sales quotation", string(q.Status), "convert")
		}
		if q.IsExpired(s.now()) {
			return apperror.NewInvalidState("sales quotation", "expired", "convert")
		}

		lines := make([]sales_order.LineInput, 0, len(q.Lines))
		for _, l := range q.Lines {
			price := l.UnitPrice
			lines = append(lines, sales_order.LineInput{
				ItemID:          l.ItemID,
				Quantity:        l.Quantity,
				UnitPrice:       &price,
				DiscountPercent: l.DiscountPercent,
			})
		}

		order, err = s.orders.Open(ctx, sales_order.CreateInput{
			CustomerID:     q.CustomerID,
			QuotationID:    &q.ID,
			Date:           in.Date,
			CreditTermDays: in.CreditTermDays,
			DiscountAmount: q.DiscountAmount,
			Comment:        q.Comment,
			Lines:          lines,
		})
		if err != nil {
			return err
		}

		if err := q.MarkConverted(order.ID); err != nil {
			return err
		}
		q.StampUpdated(ctx)
		if err := s.repo.Update(ctx, q); err != nil {
			return fmt.Errorf("update sales quotation: %w", err)
		}
		return s.publish(ctx, domain.EventSalesQuotationConverted, q)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales order created",
		"id", order.ID,
		"number", order.Number,
		"grand_total", order.GrandTotal.String(),
		"quotation_id", q.ID)
	logger.Info(ctx, "sales quotation converted",
		"id", q.ID,
		"number", q.Number,
		"sales_order", order.Number)

	return order, nil
}

// Cancel withdraws an open quotation.
func (s *Service) Cancel(ctx context.Context, quotationID id.ID) (*SalesQuotation, error) {
	var q *SalesQuotation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		q, err = s.repo.GetForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if err := q.Cancel(); err != nil {
			return err
		}
		q.StampUpdated(ctx)
		if err := s.repo.Update(ctx, q); err != nil {
			return fmt.Errorf("update sales quotation: %w", err)
		}
		return s.publish(ctx, domain.EventSalesQuotationCancelled, q)
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a quotation with lines.
func (s *Service) GetByID(ctx context.Context, quotationID id.ID) (*SalesQuotation, error) {
	return s.repo.GetByID(ctx, quotationID)
}

// List retrieves quotation headers.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesQuotation], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) publish(ctx context.Context, eventType string, q *SalesQuotation) error {
	return s.events.Publish(ctx, domain.Event{
		AggregateType: domain.AggregateSalesQuotation,
		AggregateID:   q.ID,
		EventType:     eventType,
		Payload: map[string]any{
			"number":       q.Number,
			"status":       q.Status,
			"customerId":   q.CustomerID,
			"salesOrderId": q.SalesOrderID,
		},
	})
}
