package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inventra/internal/domain/invoice"
	"inventra/internal/domain/orders"
	"inventra/internal/domain/product"
	"inventra/internal/domain/reports"
	"inventra/internal/infrastructure/http/v1/handlers"
	"inventra/internal/infrastructure/http/v1/middleware"
	infranumerator "inventra/internal/infrastructure/numerator"
	"inventra/internal/infrastructure/storage/postgres"
	"inventra/internal/infrastructure/storage/postgres/invoice_repo"
	"inventra/internal/infrastructure/storage/postgres/product_repo"
	"inventra/internal/infrastructure/storage/postgres/report_repo"
	"inventra/pkg/logger"
	"inventra/pkg/numerator"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager manages database transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// ImageStore removes hosted product images on delete
	ImageStore product.ImageStore

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Shared wiring
	baseHandler := handlers.NewBaseHandler()

	productRepo := product_repo.NewProductRepo(cfg.TxManager)
	productService := product.NewService(productRepo, cfg.ImageStore)

	numeratorService := numerator.New(cfg.Pool)
	sequencer := infranumerator.NewSequencer(numeratorService, cfg.TxManager)

	invoiceRepo := invoice_repo.NewInvoiceRepo(cfg.TxManager)
	invoiceService := invoice.NewService(invoiceRepo, sequencer, cfg.TxManager)

	coordinator := orders.NewCoordinator(productService, invoiceService, cfg.TxManager)

	reportRepo := report_repo.NewReportRepo(cfg.TxManager)
	reportService := reports.NewService(reportRepo)

	// API v1, all routes owner-scoped behind JWT
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))

	if cfg.IdempotencyEnabled {
		store := postgres.NewIdempotencyStore(cfg.TxManager, 10*time.Minute)
		api.Use(middleware.Idempotency(store))
	}

	{
		productHandler := handlers.NewProductHandler(baseHandler, productService)
		RegisterRecordRoutes(api.Group("/products"), productHandler)

		invoiceHandler := handlers.NewInvoiceHandler(baseHandler, invoiceService, coordinator)
		RegisterRecordRoutes(api.Group("/invoices"), invoiceHandler)

		orderHandler := handlers.NewOrderHandler(baseHandler, coordinator)
		api.POST("/order", orderHandler.Place)

		dashboardHandler := handlers.NewDashboardHandler(baseHandler, reportService)
		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/top-products", dashboardHandler.TopProducts)
			dashboard.GET("/sales-over-time", dashboardHandler.SalesOverTime)
			dashboard.GET("/product-metrics", dashboardHandler.ProductMetrics)
			dashboard.GET("/invoice-metrics", dashboardHandler.InvoiceMetrics)
		}
	}

	return router
}
