package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/order-reconciler/internal/config"
	domainRepo "github.com/sangkips/order-reconciler/internal/domain/repository"
	"github.com/sangkips/order-reconciler/internal/presentation/http/handler"
	"github.com/sangkips/order-reconciler/internal/presentation/http/middleware"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Health  *handler.HealthHandler
	Order   *handler.OrderHandler
	Courier *handler.CourierHandler
	Report  *handler.ReportHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	Logger          *zap.Logger
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.ClientRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}

	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo:        deps.IdempotencyRepo,
		Logger:      deps.Logger,
		MaxBodySize: deps.Cfg.Storage.UploadMaxSize,
	})

	registerOrderRoutes(v1, h, idempotent)
	registerCourierRoutes(v1, h, idempotent)
	registerReportRoutes(v1, h)

	return router
}

func registerOrderRoutes(v1 *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	orders := v1.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.POST("", h.Order.Create)
		orders.POST("/exchange", h.Order.CreateExchange)
		orders.GET("/check-invoice", h.Order.CheckInvoice)
		orders.POST("/find", h.Order.Find)
		orders.GET("/assigned/:userId", h.Order.ListAssigned)

		// Imports merge additively; a replayed key returns the first response.
		orders.POST("/bulk-upload", idempotent, h.Order.BulkUpload)
		orders.POST("/consignment-upload", idempotent, h.Order.BulkUpload)

		orders.POST("/bulk-assign", h.Order.BulkAssign)
		orders.POST("/mark-printed", h.Order.MarkPrinted)
		orders.POST("/mark-exported", h.Order.MarkExported)
		orders.POST("/bulk-update-status", h.Order.BulkUpdateStatus)

		orders.GET("/:id", h.Order.Get)
		orders.PUT("/:id", h.Order.UpdateStatus)
		orders.PATCH("/:id/logistic-status", h.Order.UpdateLogisticStatus)
		orders.POST("/:id/dispatch", h.Order.Dispatch)
	}
}

func registerCourierRoutes(v1 *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	couriers := v1.Group("/couriers/:courier")
	{
		couriers.GET("/status/:trackingId", h.Courier.Status)
		couriers.GET("/areas", h.Courier.Areas)
		couriers.POST("/payment-reports", idempotent, h.Courier.UploadPaymentReport)
		couriers.POST("/reconcile", h.Courier.Reconcile)
	}
}

func registerReportRoutes(v1 *gin.RouterGroup, h *Handlers) {
	reports := v1.Group("/reports")
	{
		reports.POST("/date-wise", h.Report.DateWise)
		reports.POST("/call-center-summary", h.Report.CallCenterSummary)
		reports.GET("/stock-out", h.Report.StockOut)
	}
}
