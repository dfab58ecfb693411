package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partsflow/internal/domain/documents/sales_quotation"
	"partsflow/internal/infrastructure/http/v1/dto"
)

// QuotationHandler handles HTTP requests for sales quotations.
type QuotationHandler struct {
	*BaseDocumentHandler[*sales_quotation.SalesQuotation, sales_quotation.ListFilter, dto.QuotationListQuery]
	service *sales_quotation.Service
}

// NewQuotationHandler creates a new quotation handler.
func NewQuotationHandler(base *BaseHandler, service *sales_quotation.Service) *QuotationHandler {
	return &QuotationHandler{
		BaseDocumentHandler: NewBaseDocumentHandler[*sales_quotation.SalesQuotation, sales_quotation.ListFilter, dto.QuotationListQuery](base, service, nil),
		service:             service,
	}
}

// Create handles POST /quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	var in sales_quotation.CreateInput
	if !h.BindJSON(c, &in) {
		return
	}

	q, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusCreated, q)
}

// Convert handles POST /quotations/:id/convert and returns the new sales order.
func (h *QuotationHandler) Convert(c *gin.Context) {
	quotationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in sales_quotation.ConvertInput
	if !h.BindOptionalJSON(c, &in) {
		return
	}

	order, err := h.service.Convert(c.Request.Context(), quotationID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Cancel handles POST /quotations/:id/cancel
func (h *QuotationHandler) Cancel(c *gin.Context) {
	quotationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	q, err := h.service.Cancel(c.Request.Context(), quotationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, q)
}
