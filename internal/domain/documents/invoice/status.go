package invoice

import "time"

// Status of an invoice. Overdue is never stored: it is how an unpaid or
// partially paid invoice reads once its due date has passed.
type Status string

const (
	StatusUnpaid      Status = "unpaid"
	StatusPartialPaid Status = "partial_paid"
	StatusPaid        Status = "paid"
	StatusOverdue     Status = "overdue"
	StatusCancelled   Status = "cancelled"
)

// IsSettleable reports whether payments may still be applied.
func (s Status) IsSettleable() bool {
	return s == StatusUnpaid || s == StatusPartialPaid
}

// EffectiveStatus classifies the invoice at now.
func (inv *Invoice) EffectiveStatus(now time.Time) Status {
	if inv.Status.IsSettleable() && now.After(inv.DueDate) {
		return StatusOverdue
	}
	return inv.Status
}
