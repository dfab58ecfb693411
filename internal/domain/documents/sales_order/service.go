package sales_order

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
	"partsflow/internal/domain/registers/stock"
	"partsflow/pkg/logger"
)

// LineInput is one requested line. UnitPrice defaults to the item's selling price.
type LineInput struct {
	ItemID          id.ID        `json:"itemId" validate:"required"`
	Quantity        int64        `json:"quantity" validate:"gt=0"`
	UnitPrice       *types.Money `json:"unitPrice,omitempty"`
	DiscountPercent types.Money  `json:"discountPercent"`
}

// CreateInput carries everything needed to open an order.
type CreateInput struct {
	CustomerID     id.ID       `json:"customerId" validate:"required"`
	QuotationID    *id.ID      `json:"quotationId,omitempty"`
	Date           *time.Time  `json:"date,omitempty"`
	CreditTermDays *int        `json:"creditTermDays,omitempty" validate:"omitempty,gte=0"`
	DiscountAmount types.Money `json:"discountAmount"`
	Comment        string      `json:"comment" validate:"max=1000"`
	Lines          []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// UpdateInput replaces the editable part of a confirmed order.
type UpdateInput struct {
	Version        int         `json:"version" validate:"gt=0"`
	Date           *time.Time  `json:"date,omitempty"`
	CreditTermDays *int        `json:"creditTermDays,omitempty" validate:"omitempty,gte=0"`
	DiscountAmount types.Money `json:"discountAmount"`
	Comment        string      `json:"comment" validate:"max=1000"`
	Lines          []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// Service is the order reservation service.
type Service struct {
	repo      Repository
	ledger    Ledger
	picking   PickingLookup
	customers customer.Repository
	items     item.Repository
	taxRates  taxrate.DefaultRateProvider
	numerator numerator.Generator
	events    domain.EventPublisher
	txManager tx.Manager
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	Ledger    Ledger
	Picking   PickingLookup
	Customers customer.Repository
	Items     item.Repository
	TaxRates  taxrate.DefaultRateProvider
	Numerator numerator.Generator
	Events    domain.EventPublisher
	TxManager tx.Manager
}

// NewService creates a new sales order service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:      d.Repo,
		ledger:    d.Ledger,
		picking:   d.Picking,
		customers: d.Customers,
		items:     d.Items,
		taxRates:  d.TaxRates,
		numerator: d.Numerator,
		events:    events,
		txManager: d.TxManager,
	}
}

// Create prices the order, reserves stock for every line and stores it, all
// in one transaction. If any line cannot be reserved nothing is kept.
func (s *Service) Create(ctx context.Context, in CreateInput) (*SalesOrder, error) {
	order, err := s.Open(ctx, in)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales order created",
		"id", order.ID,
		"number", order.Number,
		"grand_total", order.GrandTotal.String())

	return order, nil
}

// Open does the work of Create without logging. Callers that open an order
// inside their own transaction log it once that transaction commits.
func (s *Service) Open(ctx context.Context, in CreateInput) (*SalesOrder, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	order := NewSalesOrder(in.CustomerID)
	order.QuotationID = in.QuotationID
	order.CreditTermDays = in.CreditTermDays
	order.DiscountAmount = in.DiscountAmount
	order.Comment = in.Comment
	if in.Date != nil {
		order.Date = in.Date.UTC()
	}
	order.StampCreated(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.price(ctx, order, in.Lines); err != nil {
			return err
		}
		if err := s.reserve(ctx, order); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DocumentConfig(numerator.PrefixSalesOrder),
			&numerator.Options{Strategy: NumeratorStrategy}, order.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		order.Number = number

		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create sales order: %w", err)
		}
		return s.publish(ctx, domain.EventSalesOrderCreated, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Update replaces the lines of a confirmed order. The old reservation is
// released and the new one taken in the same transaction, so a failed
// re-reservation leaves the old reservation in place.
func (s *Service) Update(ctx context.Context, orderID id.ID, in UpdateInput) (*SalesOrder, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var order *SalesOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Version != in.Version {
			return apperror.NewConcurrentModification("sales order", orderID)
		}
		if order.Status != StatusConfirmed {
			return apperror.NewInvalidState("sales order", string(order.Status), "update")
		}

		if err := s.ledger.ReleaseOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("release reservation: %w", err)
		}

		order.Lines = make([]Line, 0, len(in.Lines))
		order.CreditTermDays = in.CreditTermDays
		order.DiscountAmount = in.DiscountAmount
		order.Comment = in.Comment
		if in.Date != nil {
			order.Date = in.Date.UTC()
		}
		order.StampUpdated(ctx)

		if err := s.price(ctx, order, in.Lines); err != nil {
			return err
		}
		if err := s.reserve(ctx, order); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update sales order: %w", err)
		}
		return s.publish(ctx, domain.EventSalesOrderUpdated, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales order updated",
		"id", order.ID,
		"number", order.Number,
		"version", order.Version)

	return order, nil
}

// Cancel releases whatever the order still holds and marks it cancelled.
// Fulfilled and cancelled orders, and orders with a delivery order still
// being picked, cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) (*SalesOrder, error) {
	var order *SalesOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		picking, err := s.picking.HasPicking(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("check delivery orders: %w", err)
		}
		if picking {
			return apperror.NewInvalidState("sales order", string(order.Status), "cancel").
				WithDetail("reason", "a delivery order is being picked")
		}

		if err := order.Cancel(); err != nil {
			return err
		}
		if err := s.ledger.ReleaseOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("release reservation: %w", err)
		}
		order.StampUpdated(ctx)

		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update sales order: %w", err)
		}
		return s.publish(ctx, domain.EventSalesOrderCancelled, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales order cancelled",
		"id", order.ID,
		"number", order.Number)

	return order, nil
}

// GetByID retrieves an order with lines.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*SalesOrder, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List retrieves order headers.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesOrder], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

// price loads the customer and items, builds lines and computes totals.
func (s *Service) price(ctx context.Context, order *SalesOrder, lines []LineInput) error {
	cust, err := s.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return err
	}
	if !cust.Active {
		return apperror.NewValidation("customer is inactive").
			WithDetail("field", "customerId")
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
		if !it.Active {
			return apperror.NewValidation("item is inactive").
				WithDetail("field", fmt.Sprintf("lines[%d].itemId", i))
		}
		price := it.SellingPrice
		if l.UnitPrice != nil {
			price = *l.UnitPrice
		}
		order.AddLine(l.ItemID, l.Quantity, price, l.DiscountPercent)
	}

	order.TaxRate = types.Zero()
	if cust.Taxable {
		rate, err := s.taxRates.GetDefault(ctx)
		switch {
		case err == nil:
			order.TaxRate = rate.Rate
		case !apperror.IsNotFound(err):
			return fmt.Errorf("default tax rate: %w", err)
		}
	}

	order.Recalculate()
	return order.Validate(ctx)
}

// reserve takes the ledger reservation for every line.
func (s *Service) reserve(ctx context.Context, order *SalesOrder) error {
	for i := range order.Lines {
		l := &order.Lines[i]
		ref := stock.Reference{OrderID: order.ID, LineID: l.LineID}
		if _, err := s.ledger.Reserve(ctx, ref, l.ItemID, l.Quantity); err != nil {
			return err
		}
		l.ReservedQty = l.Quantity
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, order *SalesOrder) error {
	return s.events.Publish(ctx, domain.Event{
		AggregateType: domain.AggregateSalesOrder,
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload: map[string]any{
			"number":     order.Number,
			"status":     order.Status,
			"customerId": order.CustomerID,
			"grandTotal": order.GrandTotal,
		},
	})
}
