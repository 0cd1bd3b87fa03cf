package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/order-reconciler/internal/application/service"
	"github.com/sangkips/order-reconciler/internal/config"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/infrastructure/courier"
	"github.com/sangkips/order-reconciler/internal/infrastructure/database"
	"github.com/sangkips/order-reconciler/internal/infrastructure/importer"
	"github.com/sangkips/order-reconciler/internal/infrastructure/lock"
	"github.com/sangkips/order-reconciler/internal/infrastructure/repository"
	"github.com/sangkips/order-reconciler/internal/presentation/http/handler"
	"github.com/sangkips/order-reconciler/internal/presentation/http/middleware"
	"github.com/sangkips/order-reconciler/internal/presentation/http/routes"
	"github.com/sangkips/order-reconciler/pkg/logger"
	"go.uber.org/zap"
)

const idempotencyCleanupInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			zlog.Error("failed to close database", zap.Error(err))
		}
	}()

	// Run auto-migrations
	if err := database.AutoMigrate(db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduled reconciliation is serialised across instances through redis
	// when it is configured; a single instance runs without a lock.
	var tickLock service.TickLock
	if cfg.Redis.Enabled() {
		redisClient, err := lock.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		tickLock = lock.NewRedisTickLock(redisClient, cfg.Reconcile.LockTTL, zlog)
	} else {
		zlog.Warn("REDIS_ADDRESS not set, scheduled reconciliation is not coordinated across instances")
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewPaymentReportRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Courier API clients
	clients := map[enum.Courier]service.CourierClient{}
	if cfg.Courier.RedxToken != "" {
		clients[enum.CourierRedx] = courier.NewRedxClient(&cfg.Courier, zlog)
	} else {
		zlog.Warn("REDX_API_TOKEN not set, Redx dispatch is disabled")
	}

	// Initialize services
	reconciliationService := service.NewReconciliationService(orderRepo, reportRepo, zlog, cfg.Reconcile.ClearMatched)
	orderService := service.NewOrderService(orderRepo, reconciliationService, zlog)
	mergeService := service.NewMergeService(orderRepo, zlog)
	dispatchService := service.NewDispatchService(orderRepo, clients, zlog)
	paymentReportService := service.NewPaymentReportService(reportRepo, importer.NewXLSXReader(), zlog)
	reportService := service.NewReportService(orderRepo, userRepo, zlog, cfg.App.Location())
	scheduler := service.NewScheduler(reconciliationService, tickLock, cfg.Reconcile.Interval, zlog)

	sqlDB, err := db.DB()
	if err != nil {
		zlog.Fatal("failed to get underlying sql.DB", zap.Error(err))
	}

	// Initialize handlers
	handlers := &routes.Handlers{
		Health:  handler.NewHealthHandler(cfg.App.Name, sqlDB.PingContext),
		Order:   handler.NewOrderHandler(orderService, mergeService, dispatchService),
		Courier: handler.NewCourierHandler(dispatchService, paymentReportService, reconciliationService, cfg.Storage.UploadMaxSize),
		Report:  handler.NewReportHandler(reportService),
	}

	rateLimiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.RateLimit.Requests) / float64(max(cfg.RateLimit.Duration, 1)),
		BurstSize:         cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		Logger:          zlog,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
	})

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		rateLimiter.Start(ctx.Done())
	}()
	go func() {
		defer wg.Done()
		if cfg.Reconcile.OnStartup {
			scheduler.RunOnce(ctx)
		}
		scheduler.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanupIdempotencyKeys(ctx, idempotencyRepo.DeleteExpired, zlog)
	}()

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverLogger := zlog.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("starting server", zap.String("service", cfg.App.Name), zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
	wg.Wait()
	zlog.Info("server stopped")
}

// cleanupIdempotencyKeys drops expired replay entries until ctx is done.
func cleanupIdempotencyKeys(ctx context.Context, deleteExpired func(context.Context) error, zlog *zap.Logger) {
	ticker := time.NewTicker(idempotencyCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := deleteExpired(ctx); err != nil {
				zlog.Warn("idempotency cleanup failed", zap.Error(err))
			}
		}
	}
}
