package router

import (
	"github.com/gin-gonic/gin"

	"vanik/internal/domain"
	"vanik/internal/handler"
	"vanik/internal/middleware"
	"vanik/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	authSvc service.AuthService,
	corsOrigins []string,
	authH *handler.AuthHandler,
	orgH *handler.OrgHandler,
	customerH *handler.CustomerHandler,
	productH *handler.ProductHandler,
	invoiceH *handler.InvoiceHandler,
	billH *handler.PurchaseBillHandler,
	stockH *handler.StockHandler,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)
	v1.POST("/orgs", orgH.Create)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))
	protected.Use(middleware.OrgGuard())

	// Organization
	protected.GET("/org", orgH.GetCurrent)
	protected.PUT("/org", middleware.RequireRole(domain.RoleAdmin), orgH.Update)

	// Customers
	customers := protected.Group("/customers")
	customers.POST("", customerH.Create)
	customers.GET("", customerH.List)
	customers.GET("/:id", customerH.GetByID)

	// Products and serials
	products := protected.Group("/products")
	products.POST("", productH.Create)
	products.GET("", productH.List)
	products.GET("/:id", productH.GetByID)
	products.PUT("/:id", productH.Update)
	products.POST("/:id/serials", productH.AddSerials)

	// Invoices
	invoices := protected.Group("/invoices")
	invoices.POST("", invoiceH.Create)
	invoices.GET("", invoiceH.List)
	invoices.PATCH("/autosave", invoiceH.Autosave)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.POST("/:id/finalize", invoiceH.Finalize)
	invoices.POST("/:id/post", invoiceH.Post)
	invoices.POST("/:id/cancel", invoiceH.Cancel)
	invoices.PUT("/:id/payment-status", invoiceH.SetPaymentStatus)

	// Purchase bills
	bills := protected.Group("/purchase-bills")
	bills.POST("", billH.Create)
	bills.GET("", billH.List)
	bills.GET("/:id", billH.GetByID)
	bills.POST("/:id/approve", middleware.RequireRole(domain.RoleAdmin), billH.Approve)
	bills.POST("/:id/revert", middleware.RequireRole(domain.RoleAdmin), billH.Revert)
	bills.POST("/:id/post", middleware.RequireRole(domain.RoleAdmin), billH.Post)

	// Stock ledger
	stock := protected.Group("/stock")
	stock.POST("/adjust", middleware.RequireRole(domain.RoleAdmin), stockH.Adjust)
	stock.GET("/:productId", stockH.Balance)
	stock.GET("/:productId/ledger", stockH.Ledger)
	stock.GET("/:productId/ledger.csv", stockH.ExportLedger)

	// Consignments
	consignments := protected.Group("/consignments")
	consignments.POST("/issue", stockH.IssueConsignment)
	consignments.POST("/return", stockH.ReturnConsignment)
	consignments.POST("/sale-return", stockH.RecordSaleReturn)
	consignments.POST("/adjust", middleware.RequireRole(domain.RoleAdmin), stockH.AdjustConsignment)
	consignments.GET("/:agentId/ledger", stockH.ConsignmentLedger)
	consignments.GET("/:agentId/products/:productId", stockH.ConsignmentBalance)

	// Reports
	protected.GET("/reports/gst-summary", reportH.GSTSummary)

	return r
}
