package stock

import (
	"context"
	"fmt"
	"slices"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/core/tx"
	"partsflow/internal/domain/catalogs/batch"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/pkg/logger"
)

// Service provides the ledger primitives.
// Every mutating method runs in the caller's transaction when ctx carries
// one, otherwise it opens its own. A failed call leaves no row changed.
type Service struct {
	repo      Repository
	items     item.Repository
	batches   batch.Repository
	txManager tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, items item.Repository, batches batch.Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		batches:   batches,
		txManager: txManager,
	}
}

// Reserve promises qty units of an item to an order line, drawing from the
// oldest batches first. If the item has less than qty available in total,
// it returns InsufficientStock and changes nothing.
func (s *Service) Reserve(ctx context.Context, ref Reference, itemID id.ID, qty int64) ([]Allocation, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	var plan []Allocation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		candidates, err := s.repo.LockCandidates(ctx, itemID)
		if err != nil {
			return fmt.Errorf("lock candidates: %w", err)
		}
		for i := range candidates {
			candidates[i].Free = candidates[i].AvailableQty
		}

		var available int64
		plan, available = PlanFIFO(candidates, qty)
		if plan == nil {
			return s.shortage(ctx, itemID, qty, available)
		}

		held, err := s.heldByRecord(ctx, ref)
		if err != nil {
			return err
		}

		records := make(map[int64]*Record, len(candidates))
		for i := range candidates {
			records[candidates[i].ID] = &candidates[i].Record
		}

		for _, a := range plan {
			rec := records[a.RecordID]
			rec.reserve(a.Quantity)
			if err := s.write(ctx, rec); err != nil {
				return err
			}
			if err := s.repo.SaveReservation(ctx, Reservation{
				OrderID:  ref.OrderID,
				LineID:   ref.LineID,
				RecordID: rec.ID,
				ItemID:   itemID,
				Quantity: held[rec.ID] + a.Quantity,
			}); err != nil {
				return fmt.Errorf("save reservation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "stock reserved",
		"order_id", ref.OrderID,
		"item_id", itemID,
		"quantity", qty,
		"records", len(plan))

	return plan, nil
}

// Release returns qty units held by an order line to availability, newest
// batch first. Releasing more than the line holds is an error.
func (s *Service) Release(ctx context.Context, ref Reference, itemID id.ID, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		holdings, err := s.repo.LockHoldings(ctx, ref.OrderID, &ref.LineID)
		if err != nil {
			return fmt.Errorf("lock holdings: %w", err)
		}

		var total int64
		for _, h := range holdings {
			if h.ItemID == itemID {
				total += h.Reservation.Quantity
			}
		}
		if qty > total {
			return apperror.NewExceedsReservation(qty, total).
				WithDetail("itemId", itemID)
		}

		remaining := qty
		for _, h := range slices.Backward(holdings) {
			if remaining == 0 {
				break
			}
			if h.ItemID != itemID || h.Reservation.Quantity == 0 {
				continue
			}
			take := min(h.Reservation.Quantity, remaining)
			if err := s.releaseHolding(ctx, h, take); err != nil {
				return err
			}
			remaining -= take
		}
		return nil
	})
}

// ReleaseOrder releases every reservation an order holds.
func (s *Service) ReleaseOrder(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		holdings, err := s.repo.LockHoldings(ctx, orderID, nil)
		if err != nil {
			return fmt.Errorf("lock holdings: %w", err)
		}
		for _, h := range holdings {
			if h.Reservation.Quantity == 0 {
				continue
			}
			if err := s.releaseHolding(ctx, h, h.Reservation.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) releaseHolding(ctx context.Context, h Holding, qty int64) error {
	rec := h.Record
	if qty > rec.ReservedQty {
		return apperror.NewExceedsReservation(qty, rec.ReservedQty).
			WithDetail("recordId", rec.ID)
	}
	rec.release(qty)
	if err := s.write(ctx, &rec); err != nil {
		return err
	}

	r := h.Reservation
	r.Quantity -= qty
	if err := s.repo.SaveReservation(ctx, r); err != nil {
		return fmt.Errorf("save reservation: %w", err)
	}
	return nil
}

// PlanPick chooses, oldest batch first, which of an order line's reserved
// records will satisfy qty units. Nothing is mutated; the rows stay locked
// until the surrounding transaction ends.
func (s *Service) PlanPick(ctx context.Context, ref Reference, itemID id.ID, qty int64) ([]Allocation, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	var plan []Allocation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		holdings, err := s.repo.LockHoldings(ctx, ref.OrderID, &ref.LineID)
		if err != nil {
			return fmt.Errorf("lock holdings: %w", err)
		}

		candidates := make([]Candidate, 0, len(holdings))
		for _, h := range holdings {
			if h.ItemID != itemID {
				continue
			}
			c := h.Candidate
			c.Free = min(h.Reservation.Quantity, h.ReservedQty)
			candidates = append(candidates, c)
		}

		var held int64
		plan, held = PlanFIFO(candidates, qty)
		if plan == nil {
			return s.shortage(ctx, itemID, qty, held)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Consume physically removes qty reserved units from one record on behalf of
// an order line. Quantity and reservedQty both drop by qty.
func (s *Service) Consume(ctx context.Context, ref Reference, key Key, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		holdings, err := s.repo.LockHoldings(ctx, ref.OrderID, &ref.LineID)
		if err != nil {
			return fmt.Errorf("lock holdings: %w", err)
		}

		idx := slices.IndexFunc(holdings, func(h Holding) bool { return h.Key == key })
		if idx < 0 {
			return apperror.NewExceedsReservation(qty, 0).
				WithDetail("itemId", key.ItemID).
				WithDetail("batchId", key.BatchID).
				WithDetail("locationId", key.LocationID)
		}
		h := holdings[idx]

		rec := h.Record
		if qty > rec.ReservedQty || qty > h.Reservation.Quantity {
			return apperror.NewExceedsReservation(qty, min(rec.ReservedQty, h.Reservation.Quantity)).
				WithDetail("recordId", rec.ID)
		}

		rec.consume(qty)
		if err := s.write(ctx, &rec); err != nil {
			return err
		}

		r := h.Reservation
		r.Quantity -= qty
		if err := s.repo.SaveReservation(ctx, r); err != nil {
			return fmt.Errorf("save reservation: %w", err)
		}
		return nil
	})
}

// Restock adds qty units of an item at a location. When batchID is nil the
// item's most recently purchased batch is used.
func (s *Service) Restock(ctx context.Context, itemID, locationID id.ID, batchID *id.ID, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		key := Key{ItemID: itemID, LocationID: locationID}
		if batchID != nil {
			key.BatchID = *batchID
		} else {
			latest, err := s.batches.LatestForItem(ctx, itemID)
			if err != nil {
				return fmt.Errorf("resolve batch: %w", err)
			}
			key.BatchID = latest.ID
		}
		return s.Receive(ctx, key, qty)
	})
}

// Receive adds qty units at an explicit (item, location, batch), creating the
// record if needed.
func (s *Service) Receive(ctx context.Context, key Key, qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.LockRecord(ctx, key)
		if err != nil {
			return fmt.Errorf("lock record: %w", err)
		}

		if rec == nil {
			rec = &Record{Key: key}
			rec.restock(qty)
			if err := rec.CheckInvariant(); err != nil {
				return err
			}
			if err := s.repo.InsertRecord(ctx, rec); err != nil {
				return fmt.Errorf("insert record: %w", err)
			}
			return nil
		}

		rec.restock(qty)
		return s.write(ctx, rec)
	})
}

// GetAvailability returns an item's aggregate quantities.
func (s *Service) GetAvailability(ctx context.Context, itemID id.ID) (Availability, error) {
	return s.repo.GetAvailability(ctx, itemID)
}

// ListRecords returns ledger rows.
func (s *Service) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	return s.repo.ListRecords(ctx, filter)
}

// Reservations returns what an order currently holds.
func (s *Service) Reservations(ctx context.Context, orderID id.ID) ([]Reservation, error) {
	return s.repo.ListReservations(ctx, orderID)
}

func (s *Service) write(ctx context.Context, rec *Record) error {
	if err := rec.CheckInvariant(); err != nil {
		return err
	}
	if err := s.repo.UpdateRecord(ctx, rec); err != nil {
		return fmt.Errorf("update record %d: %w", rec.ID, err)
	}
	return nil
}

func (s *Service) heldByRecord(ctx context.Context, ref Reference) (map[int64]int64, error) {
	holdings, err := s.repo.LockHoldings(ctx, ref.OrderID, &ref.LineID)
	if err != nil {
		return nil, fmt.Errorf("lock holdings: %w", err)
	}
	held := make(map[int64]int64, len(holdings))
	for _, h := range holdings {
		held[h.ID] = h.Reservation.Quantity
	}
	return held, nil
}

func (s *Service) shortage(ctx context.Context, itemID id.ID, requested, available int64) error {
	code := itemID.String()
	if it, err := s.items.GetByID(ctx, itemID); err == nil {
		code = it.Code
	}
	return apperror.NewInsufficientStock(code, requested, available)
}
