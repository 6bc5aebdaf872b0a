package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/cache"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/config"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/database"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/middleware"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/queue"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/storage"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/streaming"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/tracing"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	_, tracerCloser, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer tracerCloser.Close()

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		logger.Fatalf("Failed to prepare schema: %v", err)
	}
	repo := database.NewRepository(db)

	checks := map[string]HealthCheck{"database": db.Health}

	var store status.Store = repo
	var progress ProgressReader
	if cfg.Redis.Enabled {
		c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.WarnWithErr("Redis unavailable, serving status from the database only", err)
		} else {
			defer c.Close()
			store = status.NewCachedStore(repo, c, cfg.Redis.StatusTTL, logger)
			progress = c
			checks["redis"] = c.Ping
		}
	}

	// Initialize storage
	backend, err := storage.Open(cfg.Storage, cfg.Pipeline.TempDir)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	if s, ok := backend.(*storage.Storage); ok {
		checks["storage"] = s.Health
	}

	// Initialize queue
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	api := &API{
		assets:    repo,
		streaming: streaming.NewService(backend, store, q, cfg.Pipeline.Namespace, logger),
		progress:  progress,
		checks:    checks,
		logger:    logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	go limiter.Cleanup(ctx, 10*time.Minute, 30*time.Minute)

	router := setupRouter(api, middleware.NewAuthenticator(cfg.Auth.JWTSecret), limiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr("Server forced to shutdown", err)
	}

	logger.Info("Server stopped")
}
