package dto

import (
	"time"

	"partsflow/internal/domain/registers/stock"
	"partsflow/internal/domain/reports"
)

// --- Stock ---

// StockRecordsQuery filters ledger records.
type StockRecordsQuery struct {
	ItemID      string `form:"itemId"`
	LocationID  string `form:"locationId"`
	BatchID     string `form:"batchId"`
	ExcludeZero bool   `form:"excludeZero"`
	Limit       int    `form:"limit" binding:"min=0,max=500"`
	Offset      int    `form:"offset" binding:"min=0"`
}

// ToFilter converts the query into a record filter.
func (q StockRecordsQuery) ToFilter() (stock.RecordFilter, error) {
	itemID, err := ParseOptionalID("itemId", q.ItemID)
	if err != nil {
		return stock.RecordFilter{}, err
	}
	locationID, err := ParseOptionalID("locationId", q.LocationID)
	if err != nil {
		return stock.RecordFilter{}, err
	}
	batchID, err := ParseOptionalID("batchId", q.BatchID)
	if err != nil {
		return stock.RecordFilter{}, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = 100
	}
	return stock.RecordFilter{
		ItemID:      itemID,
		LocationID:  locationID,
		BatchID:     batchID,
		ExcludeZero: q.ExcludeZero,
		Limit:       limit,
		Offset:      q.Offset,
	}, nil
}

// --- Reports ---

// StockSummaryQuery filters the stock summary report.
type StockSummaryQuery struct {
	ItemIDs      []string `form:"itemId"`
	LocationID   string   `form:"locationId"`
	LowStockOnly bool     `form:"lowStockOnly"`
	Limit        int      `form:"limit" binding:"min=0,max=1000"`
	Offset       int      `form:"offset" binding:"min=0"`
}

// ToFilter converts the query into a report filter.
func (q StockSummaryQuery) ToFilter() (reports.StockSummaryFilter, error) {
	f := reports.StockSummaryFilter{
		LowStockOnly: q.LowStockOnly,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	for _, raw := range q.ItemIDs {
		itemID, err := ParseOptionalID("itemId", raw)
		if err != nil {
			return reports.StockSummaryFilter{}, err
		}
		if itemID != nil {
			f.ItemIDs = append(f.ItemIDs, *itemID)
		}
	}
	locationID, err := ParseOptionalID("locationId", q.LocationID)
	if err != nil {
		return reports.StockSummaryFilter{}, err
	}
	f.LocationID = locationID
	return f, nil
}

// ReceivablesQuery filters the receivables report.
type ReceivablesQuery struct {
	CustomerID  string     `form:"customerId"`
	AsOf        *time.Time `form:"asOf" time_format:"2006-01-02"`
	OverdueOnly bool       `form:"overdueOnly"`
	Limit       int        `form:"limit" binding:"min=0,max=1000"`
	Offset      int        `form:"offset" binding:"min=0"`
}

// ToFilter converts the query into a report filter.
func (q ReceivablesQuery) ToFilter() (reports.ReceivablesFilter, error) {
	customerID, err := ParseOptionalID("customerId", q.CustomerID)
	if err != nil {
		return reports.ReceivablesFilter{}, err
	}
	return reports.ReceivablesFilter{
		CustomerID:  customerID,
		AsOf:        q.AsOf,
		OverdueOnly: q.OverdueOnly,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}, nil
}
