// Package report_repo provides PostgreSQL implementations for report repositories.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/domain/reports"
	"partsflow/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: postgres.Builder(),
	}
}

// StockSummary implements reports.Repository.
func (r *ReportRepo) StockSummary(ctx context.Context, filter reports.StockSummaryFilter) ([]reports.StockSummaryRow, error) {
	sql, args, err := r.stockSummaryQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stock summary query: %w", err)
	}

	var rows []reports.StockSummaryRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}
	return rows, nil
}

func (r *ReportRepo) stockSummaryQuery(filter reports.StockSummaryFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select(
			"i.id AS item_id",
			"i.code AS item_code",
			"i.name AS item_name",
			"i.unit",
			"i.min_stock",
			"SUM(s.quantity) AS quantity",
			"SUM(s.reserved_qty) AS reserved_qty",
			"SUM(s.available_qty) AS available_qty",
			"COALESCE(SUM(s.quantity * b.purchase_price), 0) AS inventory_value",
		).
		From("reg_stock_records s").
		Join("cat_items i ON i.id = s.item_id").
		Join("cat_batches b ON b.id = s.batch_id").
		GroupBy("i.id", "i.code", "i.name", "i.unit", "i.min_stock").
		OrderBy("i.code")

	if len(filter.ItemIDs) > 0 {
		q = q.Where(squirrel.Eq{"s.item_id": filter.ItemIDs})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"s.location_id": *filter.LocationID})
	}
	if filter.LowStockOnly {
		q = q.Having("i.min_stock > 0 AND SUM(s.quantity) <= i.min_stock")
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// OutstandingInvoices implements reports.Repository.
func (r *ReportRepo) OutstandingInvoices(ctx context.Context, filter reports.ReceivablesFilter) ([]reports.ReceivableRow, error) {
	sql, args, err := r.receivablesQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build receivables query: %w", err)
	}

	var rows []reports.ReceivableRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("outstanding invoices: %w", err)
	}
	return rows, nil
}

func (r *ReportRepo) receivablesQuery(filter reports.ReceivablesFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select(
			"inv.id AS invoice_id",
			"inv.number",
			"inv.customer_id",
			"c.name AS customer_name",
			"inv.date",
			"inv.due_date",
			"inv.status",
			"inv.grand_total",
			"inv.paid_amount",
			"inv.remaining_amount",
		).
		From("doc_invoices inv").
		Join("cat_customers c ON c.id = inv.customer_id").
		Where(squirrel.Eq{"inv.status": []invoice.Status{invoice.StatusUnpaid, invoice.StatusPartialPaid}}).
		OrderBy("inv.due_date", "inv.number")

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"inv.customer_id": *filter.CustomerID})
	}
	if filter.OverdueOnly && filter.AsOf != nil {
		q = q.Where(squirrel.Lt{"inv.due_date": *filter.AsOf})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}
