package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	// StockSummary aggregates ledger rows per item. LowStock is left unset.
	StockSummary(ctx context.Context, filter StockSummaryFilter) ([]StockSummaryRow, error)

	// OutstandingInvoices returns unpaid and partially paid invoices, oldest
	// due date first. Status and DaysOverdue are left unset.
	OutstandingInvoices(ctx context.Context, filter ReceivablesFilter) ([]ReceivableRow, error)
}

// Cache stores rendered reports. Keys are versioned so that a version bump
// invalidates every cached report at once.
type Cache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}
