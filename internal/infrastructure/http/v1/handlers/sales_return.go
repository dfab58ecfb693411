package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"partsflow/internal/core/id"
	"partsflow/internal/domain/documents/sales_return"
	"partsflow/internal/infrastructure/http/v1/dto"
)

// SalesReturnHandler handles HTTP requests for sales returns.
type SalesReturnHandler struct {
	*BaseDocumentHandler[*sales_return.SalesReturn, sales_return.ListFilter, dto.SalesReturnListQuery]
	service *sales_return.Service
}

// NewSalesReturnHandler creates a new sales return handler.
func NewSalesReturnHandler(base *BaseHandler, service *sales_return.Service) *SalesReturnHandler {
	return &SalesReturnHandler{
		BaseDocumentHandler: NewBaseDocumentHandler[*sales_return.SalesReturn, sales_return.ListFilter, dto.SalesReturnListQuery](base, service, nil),
		service:             service,
	}
}

// Create handles POST /returns
func (h *SalesReturnHandler) Create(c *gin.Context) {
	var in sales_return.CreateInput
	if !h.BindJSON(c, &in) {
		return
	}

	ret, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusCreated, ret)
}

// Approve handles POST /returns/:id/approve
func (h *SalesReturnHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject handles POST /returns/:id/reject
func (h *SalesReturnHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *SalesReturnHandler) transition(c *gin.Context, fn func(ctx context.Context, returnID id.ID) (*sales_return.SalesReturn, error)) {
	returnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ret, err := fn(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, ret)
}
