package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/domain/documents/payment"
	"partsflow/internal/infrastructure/http/v1/dto"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	*BaseDocumentHandler[*payment.Payment, domain.ListFilter, dto.PaymentListQuery]
	service  *payment.Service
	invoices *invoice.Service
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(base *BaseHandler, service *payment.Service, invoices *invoice.Service) *PaymentHandler {
	return &PaymentHandler{
		BaseDocumentHandler: NewBaseDocumentHandler[*payment.Payment, domain.ListFilter, dto.PaymentListQuery](base, service, nil),
		service:             service,
		invoices:            invoices,
	}
}

// Record handles POST /payments
func (h *PaymentHandler) Record(c *gin.Context) {
	var in payment.Input
	if !h.BindJSON(c, &in) {
		return
	}

	p, inv, err := h.service.RecordPayment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.PaymentResponse{
		Payment: p,
		Invoice: dto.FromInvoice(inv, h.invoices.Now()),
	})
}

// ListByInvoice handles GET /invoices/:id/payments
func (h *PaymentHandler) ListByInvoice(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.invoices.GetByID(ctx, invoiceID); err != nil {
		h.Error(c, err)
		return
	}
	payments, err := h.service.ListByInvoice(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": payments})
}
