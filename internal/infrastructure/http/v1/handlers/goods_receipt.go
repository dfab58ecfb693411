package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partsflow/internal/domain/documents/goods_receipt"
	"partsflow/internal/infrastructure/http/v1/dto"
)

// GoodsReceiptHandler handles HTTP requests for GoodsReceipt documents.
type GoodsReceiptHandler struct {
	*BaseDocumentHandler[*goods_receipt.GoodsReceipt, goods_receipt.ListFilter, dto.GoodsReceiptListQuery]
	service *goods_receipt.Service
}

// NewGoodsReceiptHandler creates a new goods receipt handler.
func NewGoodsReceiptHandler(base *BaseHandler, service *goods_receipt.Service) *GoodsReceiptHandler {
	return &GoodsReceiptHandler{
		BaseDocumentHandler: NewBaseDocumentHandler[*goods_receipt.GoodsReceipt, goods_receipt.ListFilter, dto.GoodsReceiptListQuery](base, service, nil),
		service:             service,
	}
}

// Create handles POST /goods-receipts
// Each line is received into a new batch at the receipt location.
func (h *GoodsReceiptHandler) Create(c *gin.Context) {
	var in goods_receipt.CreateInput
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
