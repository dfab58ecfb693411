package stock

import (
	"context"

	"partsflow/internal/core/id"
)

// Repository defines persistence for the ledger.
// Lock* methods must be called inside a transaction; they take row locks on
// the stock records they return, held until commit.
type Repository interface {
	// LockCandidates returns the item's records with available quantity,
	// ordered by batch purchase date then record id.
	LockCandidates(ctx context.Context, itemID id.ID) ([]Candidate, error)

	// LockHoldings returns the records an order holds reservations on, in
	// FIFO order. A nil lineID returns holdings of every line.
	LockHoldings(ctx context.Context, orderID id.ID, lineID *id.ID) ([]Holding, error)

	// LockRecord returns the record for key, or nil if none exists.
	LockRecord(ctx context.Context, key Key) (*Record, error)

	// InsertRecord creates a record and assigns its ID.
	InsertRecord(ctx context.Context, rec *Record) error

	// UpdateRecord writes the quantities of an existing record.
	UpdateRecord(ctx context.Context, rec *Record) error

	// SaveReservation stores the held quantity of one order line on one
	// record. A zero quantity removes the reservation.
	SaveReservation(ctx context.Context, r Reservation) error

	// Queries

	GetAvailability(ctx context.Context, itemID id.ID) (Availability, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
	ListReservations(ctx context.Context, orderID id.ID) ([]Reservation, error)
}

// RecordFilter for listing stock records.
type RecordFilter struct {
	ItemID      *id.ID
	LocationID  *id.ID
	BatchID     *id.ID
	ExcludeZero bool
	Limit       int
	Offset      int
}
