package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles HTTP requests for invoices.
type InvoiceHandler struct {
	*BaseDocumentHandler[*invoice.Invoice, invoice.ListFilter, dto.InvoiceListQuery]
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	mapToDTO := func(_ context.Context, inv *invoice.Invoice) any {
		return dto.FromInvoice(inv, service.Now())
	}
	return &InvoiceHandler{
		BaseDocumentHandler: NewBaseDocumentHandler[*invoice.Invoice, invoice.ListFilter, dto.InvoiceListQuery](base, service, mapToDTO),
		service:             service,
	}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var in invoice.CreateInput
	if !h.BindJSON(c, &in) {
		return
	}

	inv, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusCreated, inv)
}

// Cancel handles POST /invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.Cancel(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, inv)
}

// GetBySalesOrder handles GET /sales-orders/:id/invoice
func (h *InvoiceHandler) GetBySalesOrder(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.GetBySalesOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, inv)
}
