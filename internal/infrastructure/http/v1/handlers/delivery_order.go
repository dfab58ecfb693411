package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"partsflow/internal/core/id"
	"partsflow/internal/domain/documents/delivery_order"
	"partsflow/internal/infrastructure/http/v1/dto"
)

// DeliveryOrderHandler handles HTTP requests for delivery orders.
type DeliveryOrderHandler struct {
	*BaseDocumentHandler[*delivery_order.DeliveryOrder, delivery_order.ListFilter, dto.DeliveryOrderListQuery]
	service *delivery_order.Service
}

// NewDeliveryOrderHandler creates a new delivery order handler.
func NewDeliveryOrderHandler(base *BaseHandler, service *delivery_order.Service) *DeliveryOrderHandler {
	return &DeliveryOrderHandler{
		BaseDocumentHandler: NewBaseDocumentHandler[*delivery_order.DeliveryOrder, delivery_order.ListFilter, dto.DeliveryOrderListQuery](base, service, nil),
		service:             service,
	}
}

// Create handles POST /delivery-orders
// Without lines every outstanding quantity of the order is picked.
func (h *DeliveryOrderHandler) Create(c *gin.Context) {
	var in delivery_order.CreateInput
	if !h.BindJSON(c, &in) {
		return
	}

	doc, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusCreated, doc)
}

// CompletePicking handles POST /delivery-orders/:id/picked
func (h *DeliveryOrderHandler) CompletePicking(c *gin.Context) {
	h.transition(c, h.service.CompletePicking)
}

// Ship handles POST /delivery-orders/:id/ship
func (h *DeliveryOrderHandler) Ship(c *gin.Context) {
	h.transition(c, h.service.Ship)
}

func (h *DeliveryOrderHandler) transition(c *gin.Context, fn func(ctx context.Context, docID id.ID) (*delivery_order.DeliveryOrder, error)) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := fn(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, doc)
}
