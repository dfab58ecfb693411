package v1

import (
	"github.com/gin-gonic/gin"
)

// DocumentRouteHandler defines the routes every document handler serves.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
}

// DocumentUpdateHandler is an optional interface for documents that can be edited.
type DocumentUpdateHandler interface {
	Update(c *gin.Context)
}

// DocumentCancelHandler is an optional interface for documents that can be cancelled.
type DocumentCancelHandler interface {
	Cancel(c *gin.Context)
}

// RegisterDocumentRoutes registers the standard routes for a document.
// Update and Cancel routes are registered when the handler supports them.
//
// Usage:
//
//	handler := handlers.NewInvoiceHandler(baseHandler, services.Invoices)
//	RegisterDocumentRoutes(api.Group("/invoices"), handler)
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)

	if h, ok := handler.(DocumentUpdateHandler); ok {
		group.PUT("/:id", h.Update)
	}
	if h, ok := handler.(DocumentCancelHandler); ok {
		group.POST("/:id/cancel", h.Cancel)
	}
}
