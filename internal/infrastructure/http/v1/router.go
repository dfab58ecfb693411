// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"partsflow/internal/app"
	"partsflow/internal/infrastructure/http/v1/handlers"
	"partsflow/internal/infrastructure/http/v1/middleware"
	"partsflow/internal/infrastructure/storage/postgres"
	"partsflow/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services *app.Services

	// Pool is checked by readiness probes; nil for the memory backend
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation; nil disables authentication
	JWTValidator middleware.JWTValidator

	// IdempotencyStore enables idempotency keys when set
	IdempotencyStore middleware.IdempotencyStore

	// HealthChecks are probed by /health/ready in addition to the database
	HealthChecks []handlers.HealthCheck

	// Production enables HTTPS redirects and release mode
	Production bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SecurityHeaders(cfg.Production))

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.HealthChecks...)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")

	// Stock-moving warehouse operations need a warehouse role when auth is on.
	warehouseOnly := func(c *gin.Context) { c.Next() }
	if cfg.JWTValidator != nil {
		api.Use(middleware.Auth(cfg.JWTValidator))
		warehouseOnly = middleware.RequireRole(middleware.RoleAdmin, middleware.RoleWarehouse)
	}
	if cfg.IdempotencyStore != nil {
		api.Use(middleware.Idempotency(cfg.IdempotencyStore))
	}

	registerDocumentRoutes(api, cfg.Services, warehouseOnly)
	registerRegisterRoutes(api, cfg.Services)
	registerReportRoutes(api, cfg.Services)

	return router
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, svc *app.Services, warehouseOnly gin.HandlerFunc) {
	baseHandler := handlers.NewBaseHandler()

	// --- QUOTATIONS ---
	{
		handler := handlers.NewQuotationHandler(baseHandler, svc.Quotations)
		group := rg.Group("/quotations")
		RegisterDocumentRoutes(group, handler)
		group.POST("/:id/convert", handler.Convert)
	}

	invoiceHandler := handlers.NewInvoiceHandler(baseHandler, svc.Invoices)

	// --- SALES ORDERS ---
	{
		handler := handlers.NewSalesOrderHandler(baseHandler, svc.SalesOrders, svc.Stock, svc.DeliveryOrders)
		group := rg.Group("/sales-orders")
		RegisterDocumentRoutes(group, handler)
		group.GET("/:id/reservations", handler.Reservations)
		group.GET("/:id/delivery-orders", handler.DeliveryOrders)
		group.GET("/:id/invoice", invoiceHandler.GetBySalesOrder)
	}

	// --- DELIVERY ORDERS ---
	{
		handler := handlers.NewDeliveryOrderHandler(baseHandler, svc.DeliveryOrders)
		group := rg.Group("/delivery-orders")
		RegisterDocumentRoutes(group, handler)
		group.POST("/:id/picked", handler.CompletePicking)
		group.POST("/:id/ship", handler.Ship)
	}

	// --- INVOICES ---
	{
		RegisterDocumentRoutes(rg.Group("/invoices"), invoiceHandler)
	}

	// --- PAYMENTS ---
	{
		handler := handlers.NewPaymentHandler(baseHandler, svc.Payments, svc.Invoices)
		group := rg.Group("/payments")
		group.GET("", handler.List)
		group.POST("", handler.Record)
		group.GET("/:id", handler.Get)
		rg.GET("/invoices/:id/payments", handler.ListByInvoice)
	}

	// --- RETURNS ---
	{
		handler := handlers.NewSalesReturnHandler(baseHandler, svc.SalesReturns)
		group := rg.Group("/returns")
		RegisterDocumentRoutes(group, handler)
		group.POST("/:id/approve", warehouseOnly, handler.Approve)
		group.POST("/:id/reject", warehouseOnly, handler.Reject)
	}

	// --- GOODS RECEIPTS ---
	{
		handler := handlers.NewGoodsReceiptHandler(baseHandler, svc.GoodsReceipts)
		group := rg.Group("/goods-receipts")
		group.GET("", handler.List)
		group.POST("", warehouseOnly, handler.Create)
		group.GET("/:id", handler.Get)
	}
}

// registerRegisterRoutes registers stock ledger endpoints.
func registerRegisterRoutes(rg *gin.RouterGroup, svc *app.Services) {
	handler := handlers.NewStockHandler(handlers.NewBaseHandler(), svc.Stock)

	stockGroup := rg.Group("/stock")
	stockGroup.GET("/availability/:itemId", handler.GetAvailability)
	stockGroup.GET("/records", handler.ListRecords)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, svc *app.Services) {
	handler := handlers.NewReportsHandler(handlers.NewBaseHandler(), svc.Reports)

	reportsGroup := rg.Group("/reports")
	reportsGroup.GET("/stock-summary", handler.GetStockSummary)
	reportsGroup.GET("/receivables", handler.GetReceivables)
}
