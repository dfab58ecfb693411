// Package stock provides the stock ledger: physical and reserved quantities
// per (item, location, batch).
//
// The ledger is the only writer of quantity, reservedQty and availableQty.
// Documents change stock exclusively through Service.
package stock

import (
	"fmt"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
)

// Key identifies a stock record.
type Key struct {
	ItemID     id.ID `db:"item_id" json:"itemId"`
	LocationID id.ID `db:"location_id" json:"locationId"`
	BatchID    id.ID `db:"batch_id" json:"batchId"`
}

// Record is one ledger row.
// Invariant: AvailableQty = Quantity - ReservedQty, all three >= 0.
type Record struct {
	// ID is assigned in insertion order and breaks FIFO ties between batches
	// with the same purchase date.
	ID int64 `db:"id" json:"id"`

	Key

	Quantity     int64 `db:"quantity" json:"quantity"`
	ReservedQty  int64 `db:"reserved_qty" json:"reservedQty"`
	AvailableQty int64 `db:"available_qty" json:"availableQty"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CheckInvariant verifies the ledger invariant.
func (r *Record) CheckInvariant() error {
	if r.Quantity < 0 || r.ReservedQty < 0 || r.AvailableQty < 0 ||
		r.AvailableQty != r.Quantity-r.ReservedQty {
		return apperror.NewInternal(fmt.Errorf(
			"stock record %d violates ledger invariant: quantity=%d reserved=%d available=%d",
			r.ID, r.Quantity, r.ReservedQty, r.AvailableQty))
	}
	return nil
}

func (r *Record) reserve(qty int64) {
	r.ReservedQty += qty
	r.AvailableQty -= qty
}

func (r *Record) release(qty int64) {
	r.ReservedQty -= qty
	r.AvailableQty += qty
}

func (r *Record) consume(qty int64) {
	r.Quantity -= qty
	r.ReservedQty -= qty
}

func (r *Record) restock(qty int64) {
	r.Quantity += qty
	r.AvailableQty += qty
}

// Reference names the order line a reservation belongs to.
type Reference struct {
	OrderID id.ID
	LineID  id.ID
}

// Reservation records how many units of one stock record are promised to one
// order line.
type Reservation struct {
	OrderID  id.ID `db:"order_id" json:"orderId"`
	LineID   id.ID `db:"line_id" json:"lineId"`
	RecordID int64 `db:"record_id" json:"recordId"`
	ItemID   id.ID `db:"item_id" json:"itemId"`
	Quantity int64 `db:"quantity" json:"quantity"`
}

// Reference returns the order line this reservation belongs to.
func (r Reservation) Reference() Reference {
	return Reference{OrderID: r.OrderID, LineID: r.LineID}
}

// Candidate is a stock record joined with its batch, as seen by allocation.
type Candidate struct {
	Record

	BatchNumber  string      `db:"batch_number"`
	PurchaseDate time.Time   `db:"purchase_date"`
	UnitCost     types.Money `db:"unit_cost"`

	// Free is how many units allocation may draw from this record: the
	// available quantity when reserving, the held quantity when picking.
	Free int64 `db:"-"`
}

// Holding is a candidate together with the reservation one order line has on it.
type Holding struct {
	Candidate
	Reservation Reservation
}

// Allocation is one step of a FIFO plan.
type Allocation struct {
	RecordID     int64       `json:"recordId"`
	Key          Key         `json:"key"`
	BatchNumber  string      `json:"batchNumber"`
	PurchaseDate time.Time   `json:"purchaseDate"`
	UnitCost     types.Money `json:"unitCost"`
	Quantity     int64       `json:"quantity"`
}

// Availability aggregates an item's records.
type Availability struct {
	ItemID       id.ID `db:"item_id" json:"itemId"`
	Quantity     int64 `db:"quantity" json:"quantity"`
	ReservedQty  int64 `db:"reserved_qty" json:"reservedQty"`
	AvailableQty int64 `db:"available_qty" json:"availableQty"`
}
