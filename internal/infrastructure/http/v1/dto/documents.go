package dto

import (
	"time"

	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/delivery_order"
	"partsflow/internal/domain/documents/goods_receipt"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/domain/documents/payment"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/internal/domain/documents/sales_quotation"
	"partsflow/internal/domain/documents/sales_return"
)

// --- Sales Order ---

// SalesOrderListQuery filters sales orders.
type SalesOrderListQuery struct {
	ListQuery
	DateRangeQuery
	CustomerID string `form:"customerId"`
	Status     string `form:"status" binding:"omitempty,oneof=confirmed processing partial_fulfilled fulfilled cancelled"`
}

// ToFilter converts the query into a sales order filter.
func (q SalesOrderListQuery) ToFilter() (sales_order.ListFilter, error) {
	customerID, err := ParseOptionalID("customerId", q.CustomerID)
	if err != nil {
		return sales_order.ListFilter{}, err
	}
	f := sales_order.ListFilter{
		ListFilter: q.ToListFilter(),
		CustomerID: customerID,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
	}
	if q.Status != "" {
		s := sales_order.Status(q.Status)
		f.Status = &s
	}
	return f, nil
}


// --- Delivery Order ---

// DeliveryOrderListQuery filters delivery orders.
type DeliveryOrderListQuery struct {
	ListQuery
	DateRangeQuery
	SalesOrderID string `form:"salesOrderId"`
	Status       string `form:"status" binding:"omitempty,oneof=picking picked shipped"`
}

// ToFilter converts the query into a delivery order filter.
func (q DeliveryOrderListQuery) ToFilter() (delivery_order.ListFilter, error) {
	orderID, err := ParseOptionalID("salesOrderId", q.SalesOrderID)
	if err != nil {
		return delivery_order.ListFilter{}, err
	}
	f := delivery_order.ListFilter{
		ListFilter:   q.ToListFilter(),
		SalesOrderID: orderID,
		DateFrom:     q.DateFrom,
		DateTo:       q.DateTo,
	}
	if q.Status != "" {
		s := delivery_order.Status(q.Status)
		f.Status = &s
	}
	return f, nil
}

// --- Invoice ---

// InvoiceListQuery filters invoices.
type InvoiceListQuery struct {
	ListQuery
	DateRangeQuery
	CustomerID string `form:"customerId"`
	Status     string `form:"status" binding:"omitempty,oneof=unpaid partial_paid paid overdue cancelled"`
}

// ToFilter converts the query into an invoice filter.
func (q InvoiceListQuery) ToFilter() (invoice.ListFilter, error) {
	customerID, err := ParseOptionalID("customerId", q.CustomerID)
	if err != nil {
		return invoice.ListFilter{}, err
	}
	f := invoice.ListFilter{
		ListFilter: q.ToListFilter(),
		CustomerID: customerID,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
	}
	if q.Status != "" {
		s := invoice.Status(q.Status)
		f.Status = &s
	}
	return f, nil
}

// InvoiceResponse adds the read-time status to an invoice.
type InvoiceResponse struct {
	*invoice.Invoice
	EffectiveStatus invoice.Status `json:"effectiveStatus"`
}

// FromInvoice creates InvoiceResponse classified at now.
func FromInvoice(inv *invoice.Invoice, now time.Time) InvoiceResponse {
	return InvoiceResponse{
		Invoice:         inv,
		EffectiveStatus: inv.EffectiveStatus(now),
	}
}

// FromInvoices maps a list of invoices.
func FromInvoices(items []*invoice.Invoice, now time.Time) []InvoiceResponse {
	out := make([]InvoiceResponse, len(items))
	for i, inv := range items {
		out[i] = FromInvoice(inv, now)
	}
	return out
}

// --- Payment ---

// PaymentResponse returns the payment and the invoice it settled.
type PaymentResponse struct {
	Payment *payment.Payment `json:"payment"`
	Invoice InvoiceResponse  `json:"invoice"`
}

// --- Quotation ---

// QuotationListQuery filters quotations.
type QuotationListQuery struct {
	ListQuery
	CustomerID string `form:"customerId"`
	Status     string `form:"status" binding:"omitempty,oneof=open converted cancelled"`
}

// ToFilter converts the query into a quotation filter.
func (q QuotationListQuery) ToFilter() (sales_quotation.ListFilter, error) {
	customerID, err := ParseOptionalID("customerId", q.CustomerID)
	if err != nil {
		return sales_quotation.ListFilter{}, err
	}
	f := sales_quotation.ListFilter{
		ListFilter: q.ToListFilter(),
		CustomerID: customerID,
	}
	if q.Status != "" {
		s := sales_quotation.Status(q.Status)
		f.Status = &s
	}
	return f, nil
}

// --- Sales Return ---

// SalesReturnListQuery filters returns.
type SalesReturnListQuery struct {
	ListQuery
	DateRangeQuery
	SalesOrderID string `form:"salesOrderId"`
	CustomerID   string `form:"customerId"`
	Status       string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// ToFilter converts the query into a return filter.
func (q SalesReturnListQuery) ToFilter() (sales_return.ListFilter, error) {
	orderID, err := ParseOptionalID("salesOrderId", q.SalesOrderID)
	if err != nil {
		return sales_return.ListFilter{}, err
	}
	customerID, err := ParseOptionalID("customerId", q.CustomerID)
	if err != nil {
		return sales_return.ListFilter{}, err
	}
	f := sales_return.ListFilter{
		ListFilter:   q.ToListFilter(),
		SalesOrderID: orderID,
		CustomerID:   customerID,
		DateFrom:     q.DateFrom,
		DateTo:       q.DateTo,
	}
	if q.Status != "" {
		s := sales_return.Status(q.Status)
		f.Status = &s
	}
	return f, nil
}

// --- Goods Receipt ---

// GoodsReceiptListQuery filters goods receipts.
type GoodsReceiptListQuery struct {
	ListQuery
	DateRangeQuery
	LocationID string `form:"locationId"`
}

// ToFilter converts the query into a goods receipt filter.
func (q GoodsReceiptListQuery) ToFilter() (goods_receipt.ListFilter, error) {
	locationID, err := ParseOptionalID("locationId", q.LocationID)
	if err != nil {
		return goods_receipt.ListFilter{}, err
	}
	return goods_receipt.ListFilter{
		ListFilter: q.ToListFilter(),
		LocationID: locationID,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
	}, nil
}


// PaymentListQuery pages through payments.
type PaymentListQuery struct {
	ListQuery
}

// ToFilter converts the query into a list filter.
func (q PaymentListQuery) ToFilter() (domain.ListFilter, error) {
	return q.ToListFilter(), nil
}
