package delivery_order

import (
	"context"
	"fmt"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/core/numerator"
	"partsflow/internal/core/tx"
	"partsflow/internal/core/validation"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/internal/domain/registers/stock"
	"partsflow/pkg/logger"
)

// LineInput limits picking of one sales order line to Quantity units.
type LineInput struct {
	SalesOrderLineID id.ID `json:"salesOrderLineId" validate:"required"`
	Quantity         int64 `json:"quantity" validate:"gt=0"`
}

// CreateInput describes a picking event. Without Lines every outstanding
// quantity of the order is picked.
type CreateInput struct {
	SalesOrderID id.ID       `json:"salesOrderId" validate:"required"`
	Date         *time.Time  `json:"date,omitempty"`
	Comment      string      `json:"comment" validate:"max=1000"`
	Lines        []LineInput `json:"lines,omitempty" validate:"omitempty,dive"`
}

// Service is the fulfilment picker.
type Service struct {
	repo      Repository
	orders    sales_order.Repository
	ledger    Ledger
	numerator numerator.Generator
	events    domain.EventPublisher
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new delivery order service.
func NewService(
	repo Repository,
	orders sales_order.Repository,
	ledger Ledger,
	numerator numerator.Generator,
	events domain.EventPublisher,
	txManager tx.Manager,
) *Service {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		orders:    orders,
		ledger:    ledger,
		numerator: numerator,
		events:    events,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create draws the order's reservations FIFO into a new delivery order.
// Stock is not touched until CompletePicking. If any line cannot be
// covered from what the order holds, no delivery order is created.
func (s *Service) Create(ctx context.Context, in CreateInput) (*DeliveryOrder, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	doc := NewDeliveryOrder(in.SalesOrderID)
	doc.Comment = in.Comment
	if in.Date != nil {
		doc.Date = in.Date.UTC()
	}
	doc.StampCreated(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetForUpdate(ctx, in.SalesOrderID)
		if err != nil {
			return err
		}
		if !order.Status.IsOpen() {
			return apperror.NewInvalidState("sales order", string(order.Status), "create delivery order for")
		}

		picking, err := s.repo.HasPicking(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("check delivery orders: %w", err)
		}
		if picking {
			return apperror.NewInvalidState("sales order", string(order.Status), "create delivery order for").
				WithDetail("reason", "another delivery order is being picked")
		}

		quantities, err := pickQuantities(order, in.Lines)
		if err != nil {
			return err
		}

		for _, l := range order.Lines {
			qty := quantities[l.LineID]
			if qty == 0 {
				continue
			}
			plan, err := s.ledger.PlanPick(ctx, stock.Reference{OrderID: order.ID, LineID: l.LineID}, l.ItemID, qty)
			if err != nil {
				return err
			}
			for _, a := range plan {
				doc.AddAllocation(l.LineID, a)
			}
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}

		if err := order.StartProcessing(); err != nil {
			return err
		}
		if err := s.orders.Update(ctx, order); err != nil {
			return fmt.Errorf("update sales order: %w", err)
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DocumentConfig(numerator.PrefixDeliveryOrder),
			&numerator.Options{Strategy: NumeratorStrategy}, doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create delivery order: %w", err)
		}
		return s.publish(ctx, domain.EventDeliveryOrderCreated, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery order created",
		"id", doc.ID,
		"number", doc.Number,
		"sales_order_id", doc.SalesOrderID,
		"quantity", doc.TotalQuantity)

	return doc, nil
}

// pickQuantities resolves how much of each order line to pick.
func pickQuantities(order *sales_order.SalesOrder, requested []LineInput) (map[id.ID]int64, error) {
	out := make(map[id.ID]int64, len(order.Lines))

	if len(requested) == 0 {
		for _, l := range order.Lines {
			if n := l.Outstanding(); n > 0 {
				out[l.LineID] = n
			}
		}
	} else {
		for i, r := range requested {
			l, ok := order.Line(r.SalesOrderLineID)
			if !ok {
				return nil, apperror.NewNotFound("sales order line", r.SalesOrderLineID)
			}
			if out[l.LineID]+r.Quantity > l.Outstanding() {
				return nil, apperror.NewValidation("quantity exceeds outstanding quantity").
					WithDetail("field", fmt.Sprintf("lines[%d].quantity", i)).
					WithDetail("outstanding", l.Outstanding())
			}
			out[l.LineID] += r.Quantity
		}
	}

	if len(out) == 0 {
		return nil, apperror.NewInvalidState("sales order", string(order.Status), "create delivery order for").
			WithDetail("reason", "nothing outstanding")
	}
	return out, nil
}

// CompletePicking consumes every line from the ledger, raises fulfilled
// quantities on the sales order and re-derives its status.
func (s *Service) CompletePicking(ctx context.Context, docID id.ID) (*DeliveryOrder, error) {
	var doc *DeliveryOrder
	var order *sales_order.SalesOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.MarkPicked(s.now()); err != nil {
			return err
		}

		order, err = s.orders.GetForUpdate(ctx, doc.SalesOrderID)
		if err != nil {
			return err
		}

		for _, l := range doc.Lines {
			ref := stock.Reference{OrderID: order.ID, LineID: l.SalesOrderLineID}
			if err := s.ledger.Consume(ctx, ref, l.Key(), l.Quantity); err != nil {
				return err
			}
			if err := order.ApplyPick(l.SalesOrderLineID, l.Quantity); err != nil {
				return err
			}
		}

		if err := order.RefreshStatus(); err != nil {
			return err
		}
		order.StampUpdated(ctx)
		if err := s.orders.Update(ctx, order); err != nil {
			return fmt.Errorf("update sales order: %w", err)
		}

		doc.StampUpdated(ctx)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update delivery order: %w", err)
		}
		return s.publish(ctx, domain.EventDeliveryOrderPicked, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery order picked",
		"id", doc.ID,
		"number", doc.Number,
		"sales_order_status", order.Status)

	return doc, nil
}

// Ship marks a picked delivery order as shipped. Stock is not affected.
func (s *Service) Ship(ctx context.Context, docID id.ID) (*DeliveryOrder, error) {
	var doc *DeliveryOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.MarkShipped(s.now()); err != nil {
			return err
		}
		doc.StampUpdated(ctx)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update delivery order: %w", err)
		}
		return s.publish(ctx, domain.EventDeliveryOrderShipped, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery order shipped", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID retrieves a delivery order with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*DeliveryOrder, error) {
	return s.repo.GetByID(ctx, docID)
}

// List retrieves delivery order headers.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*DeliveryOrder], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

// ListBySalesOrder retrieves every delivery order of a sales order.
func (s *Service) ListBySalesOrder(ctx context.Context, salesOrderID id.ID) ([]*DeliveryOrder, error) {
	return s.repo.ListBySalesOrder(ctx, salesOrderID)
}

func (s *Service) publish(ctx context.Context, eventType string, doc *DeliveryOrder) error {
	return s.events.Publish(ctx, domain.Event{
		AggregateType: domain.AggregateDeliveryOrder,
		AggregateID:   doc.ID,
		EventType:     eventType,
		Payload: map[string]any{
			"number":       doc.Number,
			"status":       doc.Status,
			"salesOrderId": doc.SalesOrderID,
			"quantity":     doc.TotalQuantity,
		},
	})
}
