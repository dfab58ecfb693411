// Package sales_return provides customer returns. Approving a return puts
// units in good condition back into stock; other units are scrapped.
package sales_return

import (
	"context"
	"fmt"
	"slices"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
)

// Status of a return.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Condition of returned units.
type Condition string

const (
	ConditionGood    Condition = "good"
	ConditionDamaged Condition = "damaged"
	ConditionExpired Condition = "expired"
)

var conditions = []Condition{ConditionGood, ConditionDamaged, ConditionExpired}

// IsValid reports whether c is a known condition.
func (c Condition) IsValid() bool {
	return slices.Contains(conditions, c)
}

// IsRestockable reports whether units in this condition go back into stock.
func (c Condition) IsRestockable() bool {
	return c == ConditionGood
}

// SalesReturn is a request to give back units of a sales order.
type SalesReturn struct {
	entity.Document

	SalesOrderID id.ID `db:"sales_order_id" json:"salesOrderId"`
	CustomerID   id.ID `db:"customer_id" json:"customerId"`

	// LocationID receives restocked units; empty means the configured
	// return-receiving location.
	LocationID *id.ID `db:"location_id" json:"locationId,omitempty"`

	Status Status `db:"status" json:"status"`
	Reason string `db:"reason" json:"reason,omitempty"`

	DecidedAt *time.Time `db:"decided_at" json:"decidedAt,omitempty"`

	TotalQuantity int64 `db:"total_quantity" json:"totalQuantity"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one returned item.
type Line struct {
	LineID   id.ID `db:"line_id" json:"lineId"`
	ReturnID id.ID `db:"return_id" json:"-"`
	LineNo   int   `db:"line_no" json:"lineNo"`

	ItemID id.ID `db:"item_id" json:"itemId"`

	// BatchID the units came from. Create defaults it to the batch last
	// shipped for the item; empty restocks into the latest batch.
	BatchID *id.ID `db:"batch_id" json:"batchId,omitempty"`

	Quantity  int64     `db:"quantity" json:"quantity"`
	Condition Condition `db:"condition" json:"condition"`
}

// NewSalesReturn creates a pending return.
func NewSalesReturn(salesOrderID, customerID id.ID) *SalesReturn {
	return &SalesReturn{
		Document:     entity.NewDocument(),
		SalesOrderID: salesOrderID,
		CustomerID:   customerID,
		Status:       StatusPending,
		Lines:        make([]Line, 0),
	}
}

// AddLine appends a returned item.
func (r *SalesReturn) AddLine(itemID id.ID, batchID *id.ID, qty int64, condition Condition) {
	r.Lines = append(r.Lines, Line{
		LineID:    id.New(),
		ReturnID:  r.ID,
		LineNo:    len(r.Lines) + 1,
		ItemID:    itemID,
		BatchID:   batchID,
		Quantity:  qty,
		Condition: condition,
	})
	r.TotalQuantity += qty
}

// decide moves a pending return to next.
func (r *SalesReturn) decide(next Status, operation string, at time.Time) error {
	if r.Status != StatusPending {
		return apperror.NewInvalidState("sales return", string(r.Status), operation)
	}
	r.Status = next
	r.DecidedAt = &at
	return nil
}

// Approve marks the return approved.
func (r *SalesReturn) Approve(at time.Time) error {
	return r.decide(StatusApproved, "approve", at)
}

// Reject marks the return rejected.
func (r *SalesReturn) Reject(at time.Time) error {
	return r.decide(StatusRejected, "reject", at)
}

// Validate implements entity.Validatable.
func (r *SalesReturn) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(r.SalesOrderID) {
		return apperror.NewValidation("sales order is required").
			WithDetail("field", "salesOrderId")
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for _, l := range r.Lines {
		field := fmt.Sprintf("lines[%d]", l.LineNo-1)
		if l.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", field+".quantity")
		}
		if !l.Condition.IsValid() {
			return apperror.NewValidation("invalid condition").
				WithDetail("field", field+".condition").
				WithDetail("value", string(l.Condition))
		}
	}
	return nil
}
