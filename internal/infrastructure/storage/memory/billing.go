package memory

import (
	"context"
	"slices"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/goods_receipt"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/domain/documents/payment"
	"partsflow/internal/domain/documents/sales_return"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*docRepo[invoice.Invoice]
}

// Invoices returns the invoice repository.
func (s *Store) Invoices() *InvoiceRepo {
	return &InvoiceRepo{&docRepo[invoice.Invoice]{
		store:    s,
		name:     "invoice",
		table:    func(st *state) map[id.ID]invoice.Invoice { return st.invoices },
		document: func(v *invoice.Invoice) *entity.Document { return &v.Document },
		clone: func(v invoice.Invoice) invoice.Invoice {
			v.Lines = slices.Clone(v.Lines)
			return v
		},
	}}
}

// GetBySalesOrder implements invoice.Repository.
func (r *InvoiceRepo) GetBySalesOrder(ctx context.Context, salesOrderID id.ID) (*invoice.Invoice, error) {
	rows, err := r.find(ctx, func(v *invoice.Invoice) bool {
		return v.SalesOrderID == salesOrderID
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFound("invoice", salesOrderID)
	}
	return rows[0], nil
}

// List implements invoice.Repository.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	return r.list(ctx, filter.ListFilter, filter.DateFrom, filter.DateTo, func(v *invoice.Invoice) bool {
		if filter.CustomerID != nil && v.CustomerID != *filter.CustomerID {
			return false
		}
		return filter.Status == nil || v.Status == *filter.Status
	})
}

// PaymentRepo implements payment.Repository.
type PaymentRepo struct {
	*docRepo[payment.Payment]
}

// Payments returns the payment repository.
func (s *Store) Payments() *PaymentRepo {
	return &PaymentRepo{&docRepo[payment.Payment]{
		store:    s,
		name:     "payment",
		table:    func(st *state) map[id.ID]payment.Payment { return st.payments },
		document: func(v *payment.Payment) *entity.Document { return &v.Document },
		clone:    func(v payment.Payment) payment.Payment { return v },
	}}
}

// ListByInvoice implements payment.Repository.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*payment.Payment, error) {
	return r.find(ctx, func(v *payment.Payment) bool {
		return v.InvoiceID == invoiceID
	})
}

// List implements payment.Repository.
func (r *PaymentRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*payment.Payment], error) {
	return r.list(ctx, filter, nil, nil, nil)
}

// SalesReturnRepo implements sales_return.Repository.
type SalesReturnRepo struct {
	*docRepo[sales_return.SalesReturn]
}

// SalesReturns returns the sales return repository.
func (s *Store) SalesReturns() *SalesReturnRepo {
	return &SalesReturnRepo{&docRepo[sales_return.SalesReturn]{
		store:    s,
		name:     "sales return",
		table:    func(st *state) map[id.ID]sales_return.SalesReturn { return st.returns },
		document: func(v *sales_return.SalesReturn) *entity.Document { return &v.Document },
		clone: func(v sales_return.SalesReturn) sales_return.SalesReturn {
			v.Lines = slices.Clone(v.Lines)
			return v
		},
	}}
}

// List implements sales_return.Repository.
func (r *SalesReturnRepo) List(ctx context.Context, filter sales_return.ListFilter) (domain.ListResult[*sales_return.SalesReturn], error) {
	return r.list(ctx, filter.ListFilter, filter.DateFrom, filter.DateTo, func(v *sales_return.SalesReturn) bool {
		if filter.SalesOrderID != nil && v.SalesOrderID != *filter.SalesOrderID {
			return false
		}
		if filter.CustomerID != nil && v.CustomerID != *filter.CustomerID {
			return false
		}
		return filter.Status == nil || v.Status == *filter.Status
	})
}

// ListBySalesOrder implements sales_return.Repository.
func (r *SalesReturnRepo) ListBySalesOrder(ctx context.Context, salesOrderID id.ID) ([]*sales_return.SalesReturn, error) {
	return r.find(ctx, func(v *sales_return.SalesReturn) bool {
		return v.SalesOrderID == salesOrderID
	})
}

// GoodsReceiptRepo implements goods_receipt.Repository.
type GoodsReceiptRepo struct {
	*docRepo[goods_receipt.GoodsReceipt]
}

// GoodsReceipts returns the goods receipt repository.
func (s *Store) GoodsReceipts() *GoodsReceiptRepo {
	return &GoodsReceiptRepo{&docRepo[goods_receipt.GoodsReceipt]{
		store:    s,
		name:     "goods receipt",
		table:    func(st *state) map[id.ID]goods_receipt.GoodsReceipt { return st.receipts },
		document: func(v *goods_receipt.GoodsReceipt) *entity.Document { return &v.Document },
		clone: func(v goods_receipt.GoodsReceipt) goods_receipt.GoodsReceipt {
			v.Lines = slices.Clone(v.Lines)
			return v
		},
	}}
}

// List implements goods_receipt.Repository.
func (r *GoodsReceiptRepo) List(ctx context.Context, filter goods_receipt.ListFilter) (domain.ListResult[*goods_receipt.GoodsReceipt], error) {
	return r.list(ctx, filter.ListFilter, filter.DateFrom, filter.DateTo, func(v *goods_receipt.GoodsReceipt) bool {
		return filter.LocationID == nil || v.LocationID == *filter.LocationID
	})
}

var (
	_ invoice.Repository       = (*InvoiceRepo)(nil)
	_ payment.Repository       = (*PaymentRepo)(nil)
	_ sales_return.Repository  = (*SalesReturnRepo)(nil)
	_ goods_receipt.Repository = (*GoodsReceiptRepo)(nil)
)
