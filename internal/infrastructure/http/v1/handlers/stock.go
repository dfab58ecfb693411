package handlers

import (
	"github.com/gin-gonic/gin"

	"partsflow/internal/domain/registers/stock"
	"partsflow/internal/infrastructure/http/v1/dto"
)

// StockHandler exposes the stock ledger read side.
type StockHandler struct {
	*BaseHandler
	ledger *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, ledger *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, ledger: ledger}
}

// GetAvailability handles GET /stock/availability/:itemId
func (h *StockHandler) GetAvailability(c *gin.Context) {
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	availability, err := h.ledger.GetAvailability(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, availability)
}

// ListRecords handles GET /stock/records
func (h *StockHandler) ListRecords(c *gin.Context) {
	var q dto.StockRecordsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	records, err := h.ledger.ListRecords(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": records})
}
