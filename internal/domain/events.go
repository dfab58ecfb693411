package domain

import (
	"context"

	"partsflow/internal/core/id"
)

// Aggregate types used in events.
const (
	AggregateSalesQuotation = "SalesQuotation"
	AggregateSalesOrder     = "SalesOrder"
	AggregateDeliveryOrder  = "DeliveryOrder"
	AggregateInvoice        = "Invoice"
	AggregatePayment        = "Payment"
	AggregateSalesReturn    = "SalesReturn"
	AggregateGoodsReceipt   = "GoodsReceipt"
)

// Event types. Stock-affecting ones are listed in StockEvents.
const (
	EventSalesQuotationCreated   = "sales_quotation.created"
	EventSalesQuotationConverted = "sales_quotation.converted"
	EventSalesQuotationCancelled = "sales_quotation.cancelled"
	EventSalesOrderCreated       = "sales_order.created"
	EventSalesOrderUpdated       = "sales_order.updated"
	EventSalesOrderCancelled     = "sales_order.cancelled"
	EventDeliveryOrderCreated    = "delivery_order.created"
	EventDeliveryOrderPicked     = "delivery_order.picked"
	EventDeliveryOrderShipped    = "delivery_order.shipped"
	EventInvoiceCreated          = "invoice.created"
	EventInvoiceCancelled        = "invoice.cancelled"
	EventPaymentRecorded         = "payment.recorded"
	EventSalesReturnCreated      = "sales_return.created"
	EventSalesReturnApproved     = "sales_return.approved"
	EventSalesReturnRejected     = "sales_return.rejected"
	EventGoodsReceived           = "goods_receipt.received"
)

// StockEvents are the events after which ledger quantities have changed.
var StockEvents = map[string]bool{
	EventSalesOrderCreated:   true,
	EventSalesOrderUpdated:   true,
	EventSalesOrderCancelled: true,
	EventDeliveryOrderPicked: true,
	EventSalesReturnApproved: true,
	EventGoodsReceived:       true,
}

// Event is a fact recorded in the same transaction as the change it describes.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// EventPublisher records events inside the caller's transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
