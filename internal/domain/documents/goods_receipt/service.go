package goods_receipt

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
	"partsflow/internal/domain/catalogs/batch"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/domain/catalogs/location"
	"partsflow/internal/domain/registers/stock"
	"partsflow/pkg/logger"
)

// LineInput is one received item.
type LineInput struct {
	ItemID   id.ID       `json:"itemId" validate:"required"`
	Quantity int64       `json:"quantity" validate:"gt=0"`
	UnitCost types.Money `json:"unitCost"`
}

// CreateInput describes a delivery from a supplier.
type CreateInput struct {
	Supplier          string      `json:"supplier" validate:"required,max=200"`
	SupplierDocNumber string      `json:"supplierDocNumber" validate:"max=100"`
	LocationID        id.ID       `json:"locationId" validate:"required"`
	Date              *time.Time  `json:"date,omitempty"`
	Comment           string      `json:"comment" validate:"max=1000"`
	Lines             []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// Service provides business operations for goods receipt documents.
type Service struct {
	repo      Repository
	batches   batch.Repository
	items     item.Repository
	locations location.Repository
	ledger    Ledger
	numerator numerator.Generator
	events    domain.EventPublisher
	txManager tx.Manager
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	Batches   batch.Repository
	Items     item.Repository
	Locations location.Repository
	Ledger    Ledger
	Numerator numerator.Generator
	Events    domain.EventPublisher
	TxManager tx.Manager
}

// NewService creates a new goods receipt service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:      d.Repo,
		batches:   d.Batches,
		items:     d.Items,
		locations: d.Locations,
		ledger:    d.Ledger,
		numerator: d.Numerator,
		events:    events,
		txManager: d.TxManager,
	}
}

// Create receives goods: each line becomes a new batch purchased on the
// receipt date at its unit cost, and its quantity is added to the ledger.
func (s *Service) Create(ctx context.Context, in CreateInput) (*GoodsReceipt, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	doc := NewGoodsReceipt(in.Supplier, in.LocationID)
	doc.SupplierDocNumber = in.SupplierDocNumber
	doc.Comment = in.Comment
	if in.Date != nil {
		doc.Date = in.Date.UTC()
	}
	doc.StampCreated(ctx)
	for _, l := range in.Lines {
		doc.AddLine(l.ItemID, l.Quantity, l.UnitCost)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.locations.GetByID(ctx, doc.LocationID); err != nil {
			return err
		}

		ids := make([]id.ID, 0, len(doc.Lines))
		for _, l := range doc.Lines {
			ids = append(ids, l.ItemID)
		}
		items, err := s.items.GetByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}

		for i := range doc.Lines {
			l := &doc.Lines[i]
			if _, ok := items[l.ItemID]; !ok {
				return apperror.NewNotFound("item", l.ItemID).
					WithDetail("field", fmt.Sprintf("lines[%d].itemId", i))
			}

			number, err := s.numerator.GetNextNumber(ctx, numerator.BatchConfig(),
				&numerator.Options{Strategy: numerator.StrategyStrict}, doc.Date)
			if err != nil {
				return fmt.Errorf("generate batch number: %w", err)
			}
			b := batch.NewBatch(number, l.ItemID, doc.Date, l.UnitCost, doc.Supplier)
			if err := b.Validate(ctx); err != nil {
				return err
			}
			if err := s.batches.Create(ctx, b); err != nil {
				return fmt.Errorf("create batch: %w", err)
			}
			l.BatchID = b.ID
			l.BatchNumber = b.Number

			key := stock.Key{ItemID: l.ItemID, LocationID: doc.LocationID, BatchID: b.ID}
			if err := s.ledger.Receive(ctx, key, l.Quantity); err != nil {
				return fmt.Errorf("receive line %d: %w", l.LineNo, err)
			}
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DocumentConfig(numerator.PrefixGoodsReceipt),
			&numerator.Options{Strategy: NumeratorStrategy}, doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		return s.events.Publish(ctx, domain.Event{
			AggregateType: domain.AggregateGoodsReceipt,
			AggregateID:   doc.ID,
			EventType:     domain.EventGoodsReceived,
			Payload: map[string]any{
				"number":     doc.Number,
				"locationId": doc.LocationID,
				"quantity":   doc.TotalQuantity,
				"amount":     doc.TotalAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt created",
		"id", doc.ID,
		"number", doc.Number,
		"lines", len(doc.Lines))

	return doc, nil
}

// GetByID retrieves a goods receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*GoodsReceipt, error) {
	return s.repo.GetByID(ctx, docID)
}

// List retrieves goods receipt headers.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*GoodsReceipt], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}
