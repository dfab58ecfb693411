package memory

import (
	"cmp"
	"context"
	"slices"

	"partsflow/internal/core/id"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/reports"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	store *Store
}

// Reports returns the report repository.
func (s *Store) Reports() *ReportRepo {
	return &ReportRepo{store: s}
}

// StockSummary implements reports.Repository.
func (r *ReportRepo) StockSummary(ctx context.Context, filter reports.StockSummaryFilter) ([]reports.StockSummaryRow, error) {
	var rows []reports.StockSummaryRow
	err := r.store.do(ctx, func(st *state) error {
		byItem := make(map[id.ID]*reports.StockSummaryRow)
		for _, rec := range st.records {
			if filter.LocationID != nil && rec.LocationID != *filter.LocationID {
				continue
			}
			if len(filter.ItemIDs) > 0 && !slices.Contains(filter.ItemIDs, rec.ItemID) {
				continue
			}
			row, ok := byItem[rec.ItemID]
			if !ok {
				it := st.items[rec.ItemID]
				row = &reports.StockSummaryRow{
					ItemID:         rec.ItemID,
					ItemCode:       it.Code,
					ItemName:       it.Name,
					Unit:           it.Unit,
					MinStock:       it.MinStock,
					InventoryValue: types.Zero(),
				}
				byItem[rec.ItemID] = row
			}
			row.Quantity += rec.Quantity
			row.ReservedQty += rec.ReservedQty
			row.AvailableQty += rec.AvailableQty
			row.InventoryValue = row.InventoryValue.Add(types.Extend(st.batches[rec.BatchID].PurchasePrice, rec.Quantity))
		}
		for _, row := range byItem {
			if filter.LowStockOnly && (row.MinStock <= 0 || row.Quantity > row.MinStock) {
				continue
			}
			rows = append(rows, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b reports.StockSummaryRow) int {
		return cmp.Compare(a.ItemCode, b.ItemCode)
	})
	return window(rows, filter.Limit, filter.Offset), nil
}

// OutstandingInvoices implements reports.Repository.
func (r *ReportRepo) OutstandingInvoices(ctx context.Context, filter reports.ReceivablesFilter) ([]reports.ReceivableRow, error) {
	var rows []reports.ReceivableRow
	err := r.store.do(ctx, func(st *state) error {
		for _, inv := range st.invoices {
			if !inv.Status.IsSettleable() {
				continue
			}
			if filter.CustomerID != nil && inv.CustomerID != *filter.CustomerID {
				continue
			}
			if filter.OverdueOnly && filter.AsOf != nil && !inv.DueDate.Before(*filter.AsOf) {
				continue
			}
			rows = append(rows, reports.ReceivableRow{
				InvoiceID:       inv.ID,
				Number:          inv.Number,
				CustomerID:      inv.CustomerID,
				CustomerName:    st.customers[inv.CustomerID].Name,
				Date:            inv.Date,
				DueDate:         inv.DueDate,
				StoredStatus:    inv.Status,
				GrandTotal:      inv.GrandTotal,
				PaidAmount:      inv.PaidAmount,
				RemainingAmount: inv.RemainingAmount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b reports.ReceivableRow) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return window(rows, filter.Limit, filter.Offset), nil
}

func window[T any](rows []T, limit, offset int) []T {
	start := min(max(offset, 0), len(rows))
	if limit <= 0 {
		return rows[start:]
	}
	return rows[start:min(start+limit, len(rows))]
}

var _ reports.Repository = (*ReportRepo)(nil)
