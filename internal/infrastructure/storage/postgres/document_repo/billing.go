package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/goods_receipt"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/domain/documents/payment"
	"partsflow/internal/domain/documents/sales_return"
	"partsflow/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable          = "doc_invoices"
	invoiceLinesTable      = "doc_invoice_lines"
	paymentsTable          = "doc_payments"
	salesReturnsTable      = "doc_sales_returns"
	salesReturnLinesTable  = "doc_sales_return_lines"
	goodsReceiptsTable     = "doc_goods_receipts"
	goodsReceiptLinesTable = "doc_goods_receipt_lines"

	invoicePerOrderConstraint = "doc_invoices_sales_order_id_key"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*linedRepo[*invoice.Invoice, invoice.Line]
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{&linedRepo[*invoice.Invoice, invoice.Line]{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			invoicesTable,
			"invoice",
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
			func(d *invoice.Invoice) *entity.Document { return &d.Document },
		),
		lines: NewLineTable(txm, invoiceLinesTable, "invoice_id",
			func(l *invoice.Line) id.ID { return l.InvoiceID },
			func(l *invoice.Line, docID id.ID) { l.InvoiceID = docID },
		),
		getLines: func(d *invoice.Invoice) []invoice.Line { return d.Lines },
		setLines: func(d *invoice.Invoice, l []invoice.Line) { d.Lines = l },
	}}
}

// Create implements invoice.Repository. A second invoice for the same sales
// order is rejected by a unique index; the failed statement aborts the
// transaction, so the existing number is not looked up.
func (r *InvoiceRepo) Create(ctx context.Context, doc *invoice.Invoice) error {
	err := r.linedRepo.Create(ctx, doc)
	if err != nil && isConstraint(err, invoicePerOrderConstraint) {
		return apperror.NewDuplicateInvoice(doc.SalesOrderID, "").WithCause(err)
	}
	return err
}

// Update writes the header only; invoice lines are fixed at creation.
func (r *InvoiceRepo) Update(ctx context.Context, doc *invoice.Invoice) error {
	return r.BaseDocumentRepo.Update(ctx, doc)
}

// GetBySalesOrder implements invoice.Repository.
func (r *InvoiceRepo) GetBySalesOrder(ctx context.Context, salesOrderID id.ID) (*invoice.Invoice, error) {
	doc, err := r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"sales_order_id": salesOrderID}), salesOrderID.String())
	if err != nil {
		return nil, err
	}
	return doc, r.attach(ctx, doc)
}

// List implements invoice.Repository.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	conds := dateRange(filter.DateFrom, filter.DateTo)
	conds = eqIf(conds, "customer_id", filter.CustomerID)
	conds = eqIf(conds, "status", filter.Status)
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, conds...)
}

// PaymentRepo implements payment.Repository.
type PaymentRepo struct {
	*BaseDocumentRepo[*payment.Payment]
}

var _ payment.Repository = (*PaymentRepo)(nil)

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txm *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{NewBaseDocumentRepo(
		txm,
		paymentsTable,
		"payment",
		postgres.ExtractDBColumns[payment.Payment](),
		func() *payment.Payment { return &payment.Payment{} },
		func(d *payment.Payment) *entity.Document { return &d.Document },
	)}
}

// ListByInvoice implements payment.Repository.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*payment.Payment, error) {
	return r.Find(ctx, squirrel.Eq{"invoice_id": invoiceID})
}

// List implements payment.Repository.
func (r *PaymentRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*payment.Payment], error) {
	return r.BaseDocumentRepo.List(ctx, filter)
}

// SalesReturnRepo implements sales_return.Repository.
type SalesReturnRepo struct {
	*linedRepo[*sales_return.SalesReturn, sales_return.Line]
}

var _ sales_return.Repository = (*SalesReturnRepo)(nil)

// NewSalesReturnRepo creates a new sales return repository.
func NewSalesReturnRepo(txm *postgres.TxManager) *SalesReturnRepo {
	return &SalesReturnRepo{&linedRepo[*sales_return.SalesReturn, sales_return.Line]{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			salesReturnsTable,
			"sales return",
			postgres.ExtractDBColumns[sales_return.SalesReturn](),
			func() *sales_return.SalesReturn { return &sales_return.SalesReturn{} },
			func(d *sales_return.SalesReturn) *entity.Document { return &d.Document },
		),
		lines: NewLineTable(txm, salesReturnLinesTable, "return_id",
			func(l *sales_return.Line) id.ID { return l.ReturnID },
			func(l *sales_return.Line, docID id.ID) { l.ReturnID = docID },
		),
		getLines: func(d *sales_return.SalesReturn) []sales_return.Line { return d.Lines },
		setLines: func(d *sales_return.SalesReturn, l []sales_return.Line) { d.Lines = l },
	}}
}

// Update writes the header only; return lines are fixed at creation.
func (r *SalesReturnRepo) Update(ctx context.Context, doc *sales_return.SalesReturn) error {
	return r.BaseDocumentRepo.Update(ctx, doc)
}

// List implements sales_return.Repository.
func (r *SalesReturnRepo) List(ctx context.Context, filter sales_return.ListFilter) (domain.ListResult[*sales_return.SalesReturn], error) {
	conds := dateRange(filter.DateFrom, filter.DateTo)
	conds = eqIf(conds, "sales_order_id", filter.SalesOrderID)
	conds = eqIf(conds, "customer_id", filter.CustomerID)
	conds = eqIf(conds, "status", filter.Status)
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, conds...)
}

// ListBySalesOrder implements sales_return.Repository.
func (r *SalesReturnRepo) ListBySalesOrder(ctx context.Context, salesOrderID id.ID) ([]*sales_return.SalesReturn, error) {
	return r.findWithLines(ctx, squirrel.Eq{"sales_order_id": salesOrderID})
}

// GoodsReceiptRepo implements goods_receipt.Repository.
type GoodsReceiptRepo struct {
	*linedRepo[*goods_receipt.GoodsReceipt, goods_receipt.Line]
}

var _ goods_receipt.Repository = (*GoodsReceiptRepo)(nil)

// NewGoodsReceiptRepo creates a new goods receipt repository.
func NewGoodsReceiptRepo(txm *postgres.TxManager) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{&linedRepo[*goods_receipt.GoodsReceipt, goods_receipt.Line]{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			goodsReceiptsTable,
			"goods receipt",
			postgres.ExtractDBColumns[goods_receipt.GoodsReceipt](),
			func() *goods_receipt.GoodsReceipt { return &goods_receipt.GoodsReceipt{} },
			func(d *goods_receipt.GoodsReceipt) *entity.Document { return &d.Document },
		),
		lines: NewLineTable(txm, goodsReceiptLinesTable, "receipt_id",
			func(l *goods_receipt.Line) id.ID { return l.ReceiptID },
			func(l *goods_receipt.Line, docID id.ID) { l.ReceiptID = docID },
		),
		getLines: func(d *goods_receipt.GoodsReceipt) []goods_receipt.Line { return d.Lines },
		setLines: func(d *goods_receipt.GoodsReceipt, l []goods_receipt.Line) { d.Lines = l },
	}}
}

// List implements goods_receipt.Repository.
func (r *GoodsReceiptRepo) List(ctx context.Context, filter goods_receipt.ListFilter) (domain.ListResult[*goods_receipt.GoodsReceipt], error) {
	conds := dateRange(filter.DateFrom, filter.DateTo)
	conds = eqIf(conds, "location_id", filter.LocationID)
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, conds...)
}
