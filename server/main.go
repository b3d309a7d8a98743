package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/http/handlers"
	"github.com/phambaophuc/image-publisher/internal/http/routes"
	"github.com/phambaophuc/image-publisher/internal/services/asset"
	"github.com/phambaophuc/image-publisher/internal/services/hosting"
	"github.com/phambaophuc/image-publisher/internal/services/ledger"
	"github.com/phambaophuc/image-publisher/internal/services/pipeline"
	"github.com/phambaophuc/image-publisher/internal/services/processor"
	"github.com/phambaophuc/image-publisher/internal/services/queue"
	"github.com/phambaophuc/image-publisher/internal/services/request"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	health := map[string]handlers.HealthFunc{
		"redis":    notConfigured,
		"rabbitmq": notConfigured,
		"supabase": notConfigured,
	}

	// Initialize services
	store, err := asset.NewStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize watermark store", zap.Error(err))
	}
	if sb, ok := store.(*asset.SupabaseStore); ok {
		health["supabase"] = func(ctx context.Context) string { return statusOf(sb.HealthCheck(ctx)) }
	}
	resolver := asset.NewResolver(store, cfg.Watermark, logger)

	engine, err := processor.NewEngine(cfg.Compositing, logger)
	if err != nil {
		logger.Fatal("Failed to initialize compositing engine", zap.Error(err))
	}

	validator := request.NewValidator(cfg.Catalog, cfg.Storage.MaxFileSize, engine.Strategy() == config.StrategyLocal)
	uploader := hosting.NewClient(cfg.Cloudflare, &http.Client{}, logger)

	deps := pipeline.Dependencies{
		Validator: validator,
		Resolver:  resolver,
		Engine:    engine,
		Uploader:  uploader,
	}

	if cfg.Redis.Addr != "" {
		dedupe := ledger.NewLedger(cfg.Redis)
		defer dedupe.Close()
		deps.Dedupe = dedupe
		health["redis"] = func(ctx context.Context) string { return statusOf(dedupe.HealthCheck(ctx)) }
	}

	if cfg.RabbitMQ.URL != "" {
		events, err := queue.NewQueueService(cfg.RabbitMQ, logger)
		if err != nil {
			logger.Warn("Failed to initialize queue service", zap.Error(err))
			// Uploads still work without events
		} else {
			defer events.Close()
			deps.Events = events
			health["rabbitmq"] = func(context.Context) string { return events.HealthCheck() }
		}
	}

	orchestrator := pipeline.NewOrchestrator(cfg, deps, logger)

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(orchestrator, logger, cfg, health)

	router := routes.NewRouter(imageHandler, cfg.Server, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("method", cfg.Server.UploadMethod),
			zap.String("strategy", engine.Strategy()),
			zap.Bool("watermark", cfg.Watermark.Enabled()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func notConfigured(context.Context) string {
	return "not configured"
}

func statusOf(err error) string {
	if err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}
