package memory

import (
	"context"
	"slices"

	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/delivery_order"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/internal/domain/documents/sales_quotation"
)

// SalesOrderRepo implements sales_order.Repository.
type SalesOrderRepo struct {
	*docRepo[sales_order.SalesOrder]
}

// SalesOrders returns the sales order repository.
func (s *Store) SalesOrders() *SalesOrderRepo {
	return &SalesOrderRepo{&docRepo[sales_order.SalesOrder]{
		store:    s,
		name:     "sales order",
		table:    func(st *state) map[id.ID]sales_order.SalesOrder { return st.salesOrders },
		document: func(v *sales_order.SalesOrder) *entity.Document { return &v.Document },
		clone: func(v sales_order.SalesOrder) sales_order.SalesOrder {
			v.Lines = slices.Clone(v.Lines)
			return v
		},
	}}
}

// List implements sales_order.Repository.
func (r *SalesOrderRepo) List(ctx context.Context, filter sales_order.ListFilter) (domain.ListResult[*sales_order.SalesOrder], error) {
	return r.list(ctx, filter.ListFilter, filter.DateFrom, filter.DateTo, func(v *sales_order.SalesOrder) bool {
		if filter.CustomerID != nil && v.CustomerID != *filter.CustomerID {
			return false
		}
		return filter.Status == nil || v.Status == *filter.Status
	})
}

// DeliveryOrderRepo implements delivery_order.Repository.
type DeliveryOrderRepo struct {
	*docRepo[delivery_order.DeliveryOrder]
}

// DeliveryOrders returns the delivery order repository.
func (s *Store) DeliveryOrders() *DeliveryOrderRepo {
	return &DeliveryOrderRepo{&docRepo[delivery_order.DeliveryOrder]{
		store:    s,
		name:     "delivery order",
		table:    func(st *state) map[id.ID]delivery_order.DeliveryOrder { return st.deliveryOrders },
		document: func(v *delivery_order.DeliveryOrder) *entity.Document { return &v.Document },
		clone: func(v delivery_order.DeliveryOrder) delivery_order.DeliveryOrder {
			v.Lines = slices.Clone(v.Lines)
			return v
		},
	}}
}

// List implements delivery_order.Repository.
func (r *DeliveryOrderRepo) List(ctx context.Context, filter delivery_order.ListFilter) (domain.ListResult[*delivery_order.DeliveryOrder], error) {
	return r.list(ctx, filter.ListFilter, filter.DateFrom, filter.DateTo, func(v *delivery_order.DeliveryOrder) bool {
		if filter.SalesOrderID != nil && v.SalesOrderID != *filter.SalesOrderID {
			return false
		}
		return filter.Status == nil || v.Status == *filter.Status
	})
}

// ListBySalesOrder implements delivery_order.Repository.
func (r *DeliveryOrderRepo) ListBySalesOrder(ctx context.Context, salesOrderID id.ID) ([]*delivery_order.DeliveryOrder, error) {
	return r.find(ctx, func(v *delivery_order.DeliveryOrder) bool {
		return v.SalesOrderID == salesOrderID
	})
}

// HasPicking implements delivery_order.Repository.
func (r *DeliveryOrderRepo) HasPicking(ctx context.Context, salesOrderID id.ID) (bool, error) {
	rows, err := r.find(ctx, func(v *delivery_order.DeliveryOrder) bool {
		return v.SalesOrderID == salesOrderID && v.Status == delivery_order.StatusPicking
	})
	return len(rows) > 0, err
}

// SalesQuotationRepo implements sales_quotation.Repository.
type SalesQuotationRepo struct {
	*docRepo[sales_quotation.SalesQuotation]
}

// SalesQuotations returns the quotation repository.
func (s *Store) SalesQuotations() *SalesQuotationRepo {
	return &SalesQuotationRepo{&docRepo[sales_quotation.SalesQuotation]{
		store:    s,
		name:     "sales quotation",
		table:    func(st *state) map[id.ID]sales_quotation.SalesQuotation { return st.quotations },
		document: func(v *sales_quotation.SalesQuotation) *entity.Document { return &v.Document },
		clone: func(v sales_quotation.SalesQuotation) sales_quotation.SalesQuotation {
			v.Lines = slices.Clone(v.Lines)
			return v
		},
	}}
}

// List implements sales_quotation.Repository.
func (r *SalesQuotationRepo) List(ctx context.Context, filter sales_quotation.ListFilter) (domain.ListResult[*sales_quotation.SalesQuotation], error) {
	return r.list(ctx, filter.ListFilter, nil, nil, func(v *sales_quotation.SalesQuotation) bool {
		if filter.CustomerID != nil && v.CustomerID != *filter.CustomerID {
			return false
		}
		return filter.Status == nil || v.Status == *filter.Status
	})
}

var (
	_ sales_order.Repository     = (*SalesOrderRepo)(nil)
	_ delivery_order.Repository  = (*DeliveryOrderRepo)(nil)
	_ sales_quotation.Repository = (*SalesQuotationRepo)(nil)
)
