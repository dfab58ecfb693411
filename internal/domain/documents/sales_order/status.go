package sales_order

import (
	"slices"

	"partsflow/internal/core/apperror"
)

// Status of a sales order. Apart from cancellation it is derived from line
// fulfilment, never set by callers.
type Status string

const (
	StatusConfirmed        Status = "confirmed"
	StatusProcessing       Status = "processing"
	StatusPartialFulfilled Status = "partial_fulfilled"
	StatusFulfilled        Status = "fulfilled"
	StatusCancelled        Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusConfirmed:        {StatusProcessing, StatusPartialFulfilled, StatusFulfilled, StatusCancelled},
	StatusProcessing:       {StatusPartialFulfilled, StatusFulfilled, StatusCancelled},
	StatusPartialFulfilled: {StatusFulfilled, StatusCancelled},
	StatusFulfilled:        {},
	StatusCancelled:        {},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// IsOpen reports whether the order can still be picked.
func (s Status) IsOpen() bool {
	return s == StatusConfirmed || s == StatusProcessing || s == StatusPartialFulfilled
}

// IsInvoiceable reports whether an invoice may be issued.
func (s Status) IsInvoiceable() bool {
	return s == StatusFulfilled || s == StatusPartialFulfilled
}

// DeriveStatus computes the fulfilment status from lines: fulfilled when
// every line is fully picked, partial_fulfilled when anything was picked,
// processing otherwise.
func DeriveStatus(lines []Line) Status {
	all := len(lines) > 0
	picked := false
	for _, l := range lines {
		if l.FulfilledQty < l.Quantity {
			all = false
		}
		if l.FulfilledQty > 0 {
			picked = true
		}
	}
	switch {
	case all:
		return StatusFulfilled
	case picked:
		return StatusPartialFulfilled
	default:
		return StatusProcessing
	}
}

func (o *SalesOrder) transition(next Status, operation string) error {
	if !o.Status.CanTransitionTo(next) {
		return apperror.NewInvalidState("sales order", string(o.Status), operation)
	}
	o.Status = next
	return nil
}
