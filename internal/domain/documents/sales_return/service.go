package sales_return

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
	"partsflow/internal/domain/catalogs/location"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/pkg/logger"
)

// LineInput is one returned item.
type LineInput struct {
	ItemID    id.ID     `json:"itemId" validate:"required"`
	BatchID   *id.ID    `json:"batchId,omitempty"`
	Quantity  int64     `json:"quantity" validate:"gt=0"`
	Condition Condition `json:"condition" validate:"required,oneof=good damaged expired"`
}

// CreateInput opens a return against a sales order.
type CreateInput struct {
	SalesOrderID id.ID       `json:"salesOrderId" validate:"required"`
	LocationID   *id.ID      `json:"locationId,omitempty"`
	Date         *time.Time  `json:"date,omitempty"`
	Reason       string      `json:"reason" validate:"max=500"`
	Lines        []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// Service handles returns and restocking.
type Service struct {
	repo      Repository
	orders    sales_order.Repository
	shipments Shipments
	locations location.Repository
	ledger    Ledger
	numerator numerator.Generator
	events    domain.EventPublisher
	txManager tx.Manager

	// receivingLocation is the code of the default return-receiving location.
	receivingLocation string
	now               func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	Orders    sales_order.Repository
	Shipments Shipments
	Locations location.Repository
	Ledger    Ledger
	Numerator numerator.Generator
	Events    domain.EventPublisher
	TxManager tx.Manager

	// ReceivingLocation is the location code used when a return names none.
	ReceivingLocation string
}

// NewService creates a new sales return service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:              d.Repo,
		orders:            d.Orders,
		shipments:         d.Shipments,
		locations:         d.Locations,
		ledger:            d.Ledger,
		numerator:         d.Numerator,
		events:            events,
		txManager:         d.TxManager,
		receivingLocation: d.ReceivingLocation,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// Create records a pending return. Per item, the quantity returned across
// all non-rejected returns may not exceed what was fulfilled.
func (s *Service) Create(ctx context.Context, in CreateInput) (*SalesReturn, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var doc *SalesReturn
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetForUpdate(ctx, in.SalesOrderID)
		if err != nil {
			return err
		}

		if in.LocationID != nil {
			if _, err := s.locations.GetByID(ctx, *in.LocationID); err != nil {
				return err
			}
		}

		doc = NewSalesReturn(order.ID, order.CustomerID)
		doc.LocationID = in.LocationID
		doc.Reason = in.Reason
		if in.Date != nil {
			doc.Date = in.Date.UTC()
		}
		doc.StampCreated(ctx)
		shipped, err := s.lastShippedBatches(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, l := range in.Lines {
			batchID := l.BatchID
			if batchID == nil {
				if b, ok := shipped[l.ItemID]; ok {
					batchID = &b
				}
			}
			doc.AddLine(l.ItemID, batchID, l.Quantity, l.Condition)
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}

		if err := s.checkReturnable(ctx, order, doc); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DocumentConfig(numerator.PrefixSalesReturn),
			&numerator.Options{Strategy: NumeratorStrategy}, doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create sales return: %w", err)
		}
		return s.publish(ctx, domain.EventSalesReturnCreated, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales return created",
		"id", doc.ID,
		"number", doc.Number,
		"sales_order_id", doc.SalesOrderID)

	return doc, nil
}

// lastShippedBatches maps each item to the batch its most recent pick drew
// from last. FIFO picking makes that the newest batch the customer got.
func (s *Service) lastShippedBatches(ctx context.Context, orderID id.ID) (map[id.ID]id.ID, error) {
	out := make(map[id.ID]id.ID)
	if s.shipments == nil {
		return out, nil
	}
	deliveries, err := s.shipments.ListBySalesOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load delivery orders: %w", err)
	}

	pickedAt := make(map[id.ID]time.Time)
	for _, d := range deliveries {
		if !d.Status.IsConsumed() || d.PickedAt == nil {
			continue
		}
		for _, l := range d.Lines {
			if last, ok := pickedAt[l.ItemID]; ok && d.PickedAt.Before(last) {
				continue
			}
			pickedAt[l.ItemID] = *d.PickedAt
			out[l.ItemID] = l.BatchID
		}
	}
	return out, nil
}

func (s *Service) checkReturnable(ctx context.Context, order *sales_order.SalesOrder, doc *SalesReturn) error {
	fulfilled := make(map[id.ID]int64)
	for _, l := range order.Lines {
		fulfilled[l.ItemID] += l.FulfilledQty
	}

	returned := make(map[id.ID]int64)
	previous, err := s.repo.ListBySalesOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("load previous returns: %w", err)
	}
	for _, r := range previous {
		if r.Status == StatusRejected {
			continue
		}
		for _, l := range r.Lines {
			returned[l.ItemID] += l.Quantity
		}
	}

	for i, l := range doc.Lines {
		returned[l.ItemID] += l.Quantity
		if returned[l.ItemID] > fulfilled[l.ItemID] {
			return apperror.NewValidation("return quantity exceeds fulfilled quantity").
				WithDetail("field", fmt.Sprintf("lines[%d].quantity", i)).
				WithDetail("fulfilled", fulfilled[l.ItemID]).
				WithDetail("returned", returned[l.ItemID])
		}
	}
	return nil
}

// Approve accepts a pending return. Lines in good condition are restocked
// at the return's location; damaged and expired lines are only recorded.
func (s *Service) Approve(ctx context.Context, returnID id.ID) (*SalesReturn, error) {
	var doc *SalesReturn
	var restocked int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if err := doc.Approve(s.now()); err != nil {
			return err
		}

		locationID, err := s.receivingLocationID(ctx, doc)
		if err != nil {
			return err
		}

		for _, l := range doc.Lines {
			if !l.Condition.IsRestockable() {
				continue
			}
			if err := s.ledger.Restock(ctx, l.ItemID, locationID, l.BatchID, l.Quantity); err != nil {
				return fmt.Errorf("restock line %d: %w", l.LineNo, err)
			}
			restocked += l.Quantity
		}

		doc.StampUpdated(ctx)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update sales return: %w", err)
		}
		return s.publish(ctx, domain.EventSalesReturnApproved, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales return approved",
		"id", doc.ID,
		"number", doc.Number,
		"restocked", restocked,
		"scrapped", doc.TotalQuantity-restocked)

	return doc, nil
}

func (s *Service) receivingLocationID(ctx context.Context, doc *SalesReturn) (id.ID, error) {
	if doc.LocationID != nil {
		return *doc.LocationID, nil
	}
	if s.receivingLocation == "" {
		return id.Nil(), apperror.NewValidation("return has no receiving location").
			WithDetail("field", "locationId")
	}
	loc, err := s.locations.GetByCode(ctx, s.receivingLocation)
	if err != nil {
		return id.Nil(), fmt.Errorf("resolve receiving location: %w", err)
	}
	return loc.ID, nil
}

// Reject declines a pending return. Stock is not affected.
func (s *Service) Reject(ctx context.Context, returnID id.ID) (*SalesReturn, error) {
	var doc *SalesReturn
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if err := doc.Reject(s.now()); err != nil {
			return err
		}
		doc.StampUpdated(ctx)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update sales return: %w", err)
		}
		return s.publish(ctx, domain.EventSalesReturnRejected, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales return rejected", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID retrieves a return with lines.
func (s *Service) GetByID(ctx context.Context, returnID id.ID) (*SalesReturn, error) {
	return s.repo.GetByID(ctx, returnID)
}

// List retrieves return headers.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesReturn], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) publish(ctx context.Context, eventType string, doc *SalesReturn) error {
	return s.events.Publish(ctx, domain.Event{
		AggregateType: domain.AggregateSalesReturn,
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
