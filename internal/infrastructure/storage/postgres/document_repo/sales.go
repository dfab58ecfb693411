package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/delivery_order"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/internal/domain/documents/sales_quotation"
	"partsflow/internal/infrastructure/storage/postgres"
)

const (
	salesOrdersTable         = "doc_sales_orders"
	salesOrderLinesTable     = "doc_sales_order_lines"
	deliveryOrdersTable      = "doc_delivery_orders"
	deliveryOrderLinesTable  = "doc_delivery_order_lines"
	salesQuotationsTable     = "doc_sales_quotations"
	salesQuotationLinesTable = "doc_sales_quotation_lines"
)

// SalesOrderRepo implements sales_order.Repository.
type SalesOrderRepo struct {
	*linedRepo[*sales_order.SalesOrder, sales_order.Line]
}

var _ sales_order.Repository = (*SalesOrderRepo)(nil)

// NewSalesOrderRepo creates a new sales order repository.
func NewSalesOrderRepo(txm *postgres.TxManager) *SalesOrderRepo {
	return &SalesOrderRepo{&linedRepo[*sales_order.SalesOrder, sales_order.Line]{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			salesOrdersTable,
			"sales order",
			postgres.ExtractDBColumns[sales_order.SalesOrder](),
			func() *sales_order.SalesOrder { return &sales_order.SalesOrder{} },
			func(d *sales_order.SalesOrder) *entity.Document { return &d.Document },
		),
		lines: NewLineTable(txm, salesOrderLinesTable, "sales_order_id",
			func(l *sales_order.Line) id.ID { return l.SalesOrderID },
			func(l *sales_order.Line, docID id.ID) { l.SalesOrderID = docID },
		),
		getLines: func(d *sales_order.SalesOrder) []sales_order.Line { return d.Lines },
		setLines: func(d *sales_order.SalesOrder, l []sales_order.Line) { d.Lines = l },
	}}
}

// List implements sales_order.Repository.
func (r *SalesOrderRepo) List(ctx context.Context, filter sales_order.ListFilter) (domain.ListResult[*sales_order.SalesOrder], error) {
	conds := dateRange(filter.DateFrom, filter.DateTo)
	conds = eqIf(conds, "customer_id", filter.CustomerID)
	conds = eqIf(conds, "status", filter.Status)
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, conds...)
}

// DeliveryOrderRepo implements delivery_order.Repository.
type DeliveryOrderRepo struct {
	*linedRepo[*delivery_order.DeliveryOrder, delivery_order.Line]
}

var _ delivery_order.Repository = (*DeliveryOrderRepo)(nil)

// NewDeliveryOrderRepo creates a new delivery order repository.
func NewDeliveryOrderRepo(txm *postgres.TxManager) *DeliveryOrderRepo {
	return &DeliveryOrderRepo{&linedRepo[*delivery_order.DeliveryOrder, delivery_order.Line]{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			deliveryOrdersTable,
			"delivery order",
			postgres.ExtractDBColumns[delivery_order.DeliveryOrder](),
			func() *delivery_order.DeliveryOrder { return &delivery_order.DeliveryOrder{} },
			func(d *delivery_order.DeliveryOrder) *entity.Document { return &d.Document },
		),
		lines: NewLineTable(txm, deliveryOrderLinesTable, "delivery_order_id",
			func(l *delivery_order.Line) id.ID { return l.DeliveryOrderID },
			func(l *delivery_order.Line, docID id.ID) { l.DeliveryOrderID = docID },
		),
		getLines: func(d *delivery_order.DeliveryOrder) []delivery_order.Line { return d.Lines },
		setLines: func(d *delivery_order.DeliveryOrder, l []delivery_order.Line) { d.Lines = l },
	}}
}

// Update writes the header only; delivery lines are fixed at creation.
func (r *DeliveryOrderRepo) Update(ctx context.Context, doc *delivery_order.DeliveryOrder) error {
	return r.BaseDocumentRepo.Update(ctx, doc)
}

// List implements delivery_order.Repository.
func (r *DeliveryOrderRepo) List(ctx context.Context, filter delivery_order.ListFilter) (domain.ListResult[*delivery_order.DeliveryOrder], error) {
	conds := dateRange(filter.DateFrom, filter.DateTo)
	conds = eqIf(conds, "sales_order_id", filter.SalesOrderID)
	conds = eqIf(conds, "status", filter.Status)
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, conds...)
}

// ListBySalesOrder implements delivery_order.Repository.
func (r *DeliveryOrderRepo) ListBySalesOrder(ctx context.Context, salesOrderID id.ID) ([]*delivery_order.DeliveryOrder, error) {
	return r.findWithLines(ctx, squirrel.Eq{"sales_order_id": salesOrderID})
}

// HasPicking implements delivery_order.Repository.
func (r *DeliveryOrderRepo) HasPicking(ctx context.Context, salesOrderID id.ID) (bool, error) {
	var exists bool
	err := r.querier(ctx).QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM "+deliveryOrdersTable+" WHERE sales_order_id = $1 AND status = $2)",
		salesOrderID, delivery_order.StatusPicking,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check picking delivery order: %w", err)
	}
	return exists, nil
}

// SalesQuotationRepo implements sales_quotation.Repository.
type SalesQuotationRepo struct {
	*linedRepo[*sales_quotation.SalesQuotation, sales_quotation.Line]
}

var _ sales_quotation.Repository = (*SalesQuotationRepo)(nil)

// NewSalesQuotationRepo creates a new sales quotation repository.
func NewSalesQuotationRepo(txm *postgres.TxManager) *SalesQuotationRepo {
	return &SalesQuotationRepo{&linedRepo[*sales_quotation.SalesQuotation, sales_quotation.Line]{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			salesQuotationsTable,
			"sales quotation",
			postgres.ExtractDBColumns[sales_quotation.SalesQuotation](),
			func() *sales_quotation.SalesQuotation { return &sales_quotation.SalesQuotation{} },
			func(d *sales_quotation.SalesQuotation) *entity.Document { return &d.Document },
		),
		lines: NewLineTable(txm, salesQuotationLinesTable, "quotation_id",
			func(l *sales_quotation.Line) id.ID { return l.QuotationID },
			func(l *sales_quotation.Line, docID id.ID) { l.QuotationID = docID },
		),
		getLines: func(d *sales_quotation.SalesQuotation) []sales_quotation.Line { return d.Lines },
		setLines: func(d *sales_quotation.SalesQuotation, l []sales_quotation.Line) { d.Lines = l },
	}}
}

// List implements sales_quotation.Repository.
func (r *SalesQuotationRepo) List(ctx context.Context, filter sales_quotation.ListFilter) (domain.ListResult[*sales_quotation.SalesQuotation], error) {
	var conds []squirrel.Sqlizer
	conds = eqIf(conds, "customer_id", filter.CustomerID)
	conds = eqIf(conds, "status", filter.Status)
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, conds...)
}
