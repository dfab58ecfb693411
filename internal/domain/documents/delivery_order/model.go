// Package delivery_order provides the DeliveryOrder document: the record of
// which batches and locations satisfied which sales order line.
package delivery_order

import (
	"context"
	"slices"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/registers/stock"
)

// Status of a delivery order.
type Status string

const (
	StatusPicking Status = "picking"
	StatusPicked  Status = "picked"
	StatusShipped Status = "shipped"
)

var transitions = map[Status][]Status{
	StatusPicking: {StatusPicked},
	StatusPicked:  {StatusShipped},
	StatusShipped: {},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// IsConsumed reports whether the lines have been taken out of stock.
func (s Status) IsConsumed() bool {
	return s == StatusPicked || s == StatusShipped
}

// DeliveryOrder is one picking event against a sales order.
type DeliveryOrder struct {
	entity.Document

	SalesOrderID id.ID  `db:"sales_order_id" json:"salesOrderId"`
	Status       Status `db:"status" json:"status"`

	PickedAt  *time.Time `db:"picked_at" json:"pickedAt,omitempty"`
	ShippedAt *time.Time `db:"shipped_at" json:"shippedAt,omitempty"`

	TotalQuantity int64 `db:"total_quantity" json:"totalQuantity"`

	// Table part: one line per (sales order line, batch, location)
	Lines []Line `db:"-" json:"lines"`
}

// Line names the exact lot drawn for a sales order line.
type Line struct {
	LineID          id.ID `db:"line_id" json:"lineId"`
	DeliveryOrderID id.ID `db:"delivery_order_id" json:"-"`
	LineNo          int   `db:"line_no" json:"lineNo"`

	SalesOrderLineID id.ID `db:"sales_order_line_id" json:"salesOrderLineId"`

	ItemID     id.ID `db:"item_id" json:"itemId"`
	LocationID id.ID `db:"location_id" json:"locationId"`
	BatchID    id.ID `db:"batch_id" json:"batchId"`

	BatchNumber string      `db:"batch_number" json:"batchNumber"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	UnitCost    types.Money `db:"unit_cost" json:"unitCost"`
}

// Key returns the stock record the line draws from.
func (l *Line) Key() stock.Key {
	return stock.Key{ItemID: l.ItemID, LocationID: l.LocationID, BatchID: l.BatchID}
}

// NewDeliveryOrder creates an empty delivery order in picking.
func NewDeliveryOrder(salesOrderID id.ID) *DeliveryOrder {
	return &DeliveryOrder{
		Document:     entity.NewDocument(),
		SalesOrderID: salesOrderID,
		Status:       StatusPicking,
		Lines:        make([]Line, 0),
	}
}

// AddAllocation appends a line for one step of a pick plan.
func (d *DeliveryOrder) AddAllocation(salesOrderLineID id.ID, a stock.Allocation) {
	d.Lines = append(d.Lines, Line{
		LineID:           id.New(),
		DeliveryOrderID:  d.ID,
		LineNo:           len(d.Lines) + 1,
		SalesOrderLineID: salesOrderLineID,
		ItemID:           a.Key.ItemID,
		LocationID:       a.Key.LocationID,
		BatchID:          a.Key.BatchID,
		BatchNumber:      a.BatchNumber,
		Quantity:         a.Quantity,
		UnitCost:         a.UnitCost,
	})
	d.TotalQuantity += a.Quantity
}

func (d *DeliveryOrder) transition(next Status, operation string) error {
	if !d.Status.CanTransitionTo(next) {
		return apperror.NewInvalidState("delivery order", string(d.Status), operation)
	}
	d.Status = next
	return nil
}

// MarkPicked moves picking to picked.
func (d *DeliveryOrder) MarkPicked(at time.Time) error {
	if err := d.transition(StatusPicked, "complete picking of"); err != nil {
		return err
	}
	d.PickedAt = &at
	return nil
}

// MarkShipped moves picked to shipped.
func (d *DeliveryOrder) MarkShipped(at time.Time) error {
	if err := d.transition(StatusShipped, "ship"); err != nil {
		return err
	}
	d.ShippedAt = &at
	return nil
}

// Validate implements entity.Validatable.
func (d *DeliveryOrder) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(d.SalesOrderID) {
		return apperror.NewValidation("sales order is required").
			WithDetail("field", "salesOrderId")
	}
	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for _, l := range d.Lines {
		if l.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", l.LineNo)
		}
	}
	return nil
}
