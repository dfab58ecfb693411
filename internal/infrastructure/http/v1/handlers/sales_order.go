package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partsflow/internal/domain/documents/delivery_order"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/internal/domain/registers/stock"
	"partsflow/internal/infrastructure/http/v1/dto"
)

// SalesOrderHandler handles HTTP requests for sales orders.
type SalesOrderHandler struct {
	*BaseDocumentHandler[*sales_order.SalesOrder, sales_order.ListFilter, dto.SalesOrderListQuery]
	service    *sales_order.Service
	ledger     *stock.Service
	deliveries *delivery_order.Service
}

// NewSalesOrderHandler creates a new sales order handler.
func NewSalesOrderHandler(base *BaseHandler, service *sales_order.Service, ledger *stock.Service, deliveries *delivery_order.Service) *SalesOrderHandler {
	return &SalesOrderHandler{
		BaseDocumentHandler: NewBaseDocumentHandler[*sales_order.SalesOrder, sales_order.ListFilter, dto.SalesOrderListQuery](base, service, nil),
		service:             service,
		ledger:              ledger,
		deliveries:          deliveries,
	}
}

// Create handles POST /sales-orders
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var in sales_order.CreateInput
	if !h.BindJSON(c, &in) {
		return
	}

	order, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusCreated, order)
}

// Update handles PUT /sales-orders/:id
func (h *SalesOrderHandler) Update(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in sales_order.UpdateInput
	if !h.BindJSON(c, &in) {
		return
	}

	order, err := h.service.Update(c.Request.Context(), orderID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

// Cancel handles POST /sales-orders/:id/cancel
func (h *SalesOrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, order)
}

// Reservations handles GET /sales-orders/:id/reservations
func (h *SalesOrderHandler) Reservations(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.service.GetByID(ctx, orderID); err != nil {
		h.Error(c, err)
		return
	}
	reservations, err := h.ledger.Reservations(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": reservations})
}

// DeliveryOrders handles GET /sales-orders/:id/delivery-orders
func (h *SalesOrderHandler) DeliveryOrders(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	docs, err := h.deliveries.ListBySalesOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": docs})
}
