package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/domain/registers/stock"
)

// StockRepo implements stock.Repository. Row locks are implied by the
// store-wide transaction lock.
type StockRepo struct {
	store *Store
}

// Stock returns the ledger repository.
func (s *Store) Stock() *StockRepo {
	return &StockRepo{store: s}
}

func candidateOf(st *state, rec stock.Record) stock.Candidate {
	c := stock.Candidate{Record: rec}
	if b, ok := st.batches[rec.BatchID]; ok {
		c.BatchNumber = b.Number
		c.PurchaseDate = b.PurchaseDate
		c.UnitCost = b.PurchasePrice
	}
	return c
}

// LockCandidates implements stock.Repository.
func (r *StockRepo) LockCandidates(ctx context.Context, itemID id.ID) ([]stock.Candidate, error) {
	var out []stock.Candidate
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.records {
			if rec.ItemID == itemID && rec.AvailableQty > 0 {
				out = append(out, candidateOf(st, rec))
			}
		}
		return nil
	})
	stock.SortFIFO(out)
	return out, err
}

// LockHoldings implements stock.Repository.
func (r *StockRepo) LockHoldings(ctx context.Context, orderID id.ID, lineID *id.ID) ([]stock.Holding, error) {
	var out []stock.Holding
	err := r.store.do(ctx, func(st *state) error {
		for key, res := range st.reservations {
			if key.orderID != orderID || (lineID != nil && key.lineID != *lineID) {
				continue
			}
			rec, ok := st.records[key.recordID]
			if !ok {
				return apperror.NewInternal(nil).WithDetail("missingRecord", key.recordID)
			}
			out = append(out, stock.Holding{Candidate: candidateOf(st, rec), Reservation: res})
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b stock.Holding) int {
		if c := stock.CompareFIFO(a.Candidate, b.Candidate); c != 0 {
			return c
		}
		return cmp.Compare(a.Reservation.LineID.String(), b.Reservation.LineID.String())
	})
	return out, err
}

// LockRecord implements stock.Repository.
func (r *StockRepo) LockRecord(ctx context.Context, key stock.Key) (*stock.Record, error) {
	var out *stock.Record
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.records {
			if rec.Key == key {
				out = &rec
				return nil
			}
		}
		return nil
	})
	return out, err
}

// InsertRecord implements stock.Repository.
func (r *StockRepo) InsertRecord(ctx context.Context, rec *stock.Record) error {
	return r.store.do(ctx, func(st *state) error {
		for _, existing := range st.records {
			if existing.Key == rec.Key {
				return apperror.NewDuplicate("stock record", "key", rec.ItemID.String())
			}
		}
		st.nextRecordID++
		rec.ID = st.nextRecordID
		rec.UpdatedAt = time.Now().UTC()
		st.records[rec.ID] = *rec
		return nil
	})
}

// UpdateRecord implements stock.Repository.
func (r *StockRepo) UpdateRecord(ctx context.Context, rec *stock.Record) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.records[rec.ID]; !ok {
			return apperror.NewNotFound("stock record", rec.ID)
		}
		rec.UpdatedAt = time.Now().UTC()
		st.records[rec.ID] = *rec
		return nil
	})
}

// SaveReservation implements stock.Repository.
func (r *StockRepo) SaveReservation(ctx context.Context, res stock.Reservation) error {
	return r.store.do(ctx, func(st *state) error {
		key := reservationKey{orderID: res.OrderID, lineID: res.LineID, recordID: res.RecordID}
		if res.Quantity == 0 {
			delete(st.reservations, key)
			return nil
		}
		if res.Quantity < 0 {
			return apperror.NewInternal(nil).WithDetail("reservation", res.Quantity)
		}
		st.reservations[key] = res
		return nil
	})
}

// GetAvailability implements stock.Repository.
func (r *StockRepo) GetAvailability(ctx context.Context, itemID id.ID) (stock.Availability, error) {
	out := stock.Availability{ItemID: itemID}
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.records {
			if rec.ItemID != itemID {
				continue
			}
			out.Quantity += rec.Quantity
			out.ReservedQty += rec.ReservedQty
			out.AvailableQty += rec.AvailableQty
		}
		return nil
	})
	return out, err
}

// ListRecords implements stock.Repository.
func (r *StockRepo) ListRecords(ctx context.Context, filter stock.RecordFilter) ([]stock.Record, error) {
	var out []stock.Record
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.records {
			if filter.ItemID != nil && rec.ItemID != *filter.ItemID {
				continue
			}
			if filter.LocationID != nil && rec.LocationID != *filter.LocationID {
				continue
			}
			if filter.BatchID != nil && rec.BatchID != *filter.BatchID {
				continue
			}
			if filter.ExcludeZero && rec.Quantity == 0 {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b stock.Record) int { return cmp.Compare(a.ID, b.ID) })

	start := min(max(filter.Offset, 0), len(out))
	end := len(out)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(out))
	}
	return out[start:end], nil
}

// ListReservations implements stock.Repository.
func (r *StockRepo) ListReservations(ctx context.Context, orderID id.ID) ([]stock.Reservation, error) {
	var out []stock.Reservation
	err := r.store.do(ctx, func(st *state) error {
		for key, res := range st.reservations {
			if key.orderID == orderID {
				out = append(out, res)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b stock.Reservation) int {
		if c := cmp.Compare(a.LineID.String(), b.LineID.String()); c != 0 {
			return c
		}
		return cmp.Compare(a.RecordID, b.RecordID)
	})
	return out, err
}

var _ stock.Repository = (*StockRepo)(nil)
