// Package reports provides read-only views over the ledger and receivables.
// Reports read the last committed state and may lag in-flight reservations.
package reports

import (
	"time"

	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/documents/invoice"
)

// --- Stock Summary ---

// StockSummaryFilter defines filter for the stock summary.
type StockSummaryFilter struct {
	ItemIDs    []id.ID `json:"itemIds,omitempty"`
	LocationID *id.ID  `json:"locationId,omitempty"`

	// LowStockOnly keeps rows at or below the item's minimum stock
	LowStockOnly bool `json:"lowStockOnly"`

	// Pagination
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// StockSummaryRow is one item's aggregate position.
type StockSummaryRow struct {
	ItemID       id.ID  `db:"item_id" json:"itemId"`
	ItemCode     string `db:"item_code" json:"itemCode"`
	ItemName     string `db:"item_name" json:"itemName"`
	Unit         string `db:"unit" json:"unit"`
	Quantity     int64  `db:"quantity" json:"quantity"`
	ReservedQty  int64  `db:"reserved_qty" json:"reservedQty"`
	AvailableQty int64  `db:"available_qty" json:"availableQty"`
	MinStock     int64  `db:"min_stock" json:"minStock"`
	LowStock     bool   `db:"-" json:"lowStock"`

	// InventoryValue is sum(quantity x batch purchase price)
	InventoryValue types.Money `db:"inventory_value" json:"inventoryValue"`
}

// StockSummary is the full stock summary.
type StockSummary struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Rows        []StockSummaryRow `json:"rows"`

	TotalQuantity int64       `json:"totalQuantity"`
	TotalValue    types.Money `json:"totalValue"`
	LowStockItems int         `json:"lowStockItems"`
}

// --- Receivables ---

// ReceivablesFilter defines filter for outstanding invoices.
type ReceivablesFilter struct {
	CustomerID *id.ID `json:"customerId,omitempty"`

	// AsOf is the classification date (defaults to now)
	AsOf *time.Time `json:"asOf,omitempty"`

	OverdueOnly bool `json:"overdueOnly"`

	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ReceivableRow is one invoice with money still owed.
type ReceivableRow struct {
	InvoiceID       id.ID          `db:"invoice_id" json:"invoiceId"`
	Number          string         `db:"number" json:"number"`
	CustomerID      id.ID          `db:"customer_id" json:"customerId"`
	CustomerName    string         `db:"customer_name" json:"customerName"`
	Date            time.Time      `db:"date" json:"date"`
	DueDate         time.Time      `db:"due_date" json:"dueDate"`
	StoredStatus    invoice.Status `db:"status" json:"-"`
	Status          invoice.Status `db:"-" json:"status"`
	GrandTotal      types.Money    `db:"grand_total" json:"grandTotal"`
	PaidAmount      types.Money    `db:"paid_amount" json:"paidAmount"`
	RemainingAmount types.Money    `db:"remaining_amount" json:"remainingAmount"`
	DaysOverdue     int            `db:"-" json:"daysOverdue"`
}

// Receivables is the outstanding receivables report.
type Receivables struct {
	AsOf time.Time       `json:"asOf"`
	Rows []ReceivableRow `json:"rows"`

	TotalOutstanding types.Money `json:"totalOutstanding"`
	TotalOverdue     types.Money `json:"totalOverdue"`
}
