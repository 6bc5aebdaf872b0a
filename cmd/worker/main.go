package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/cache"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/config"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/database"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/metrics"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/monitoring"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/pipeline"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/publisher"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/queue"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/storage"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/tracing"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/transcoder"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/webhook"
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

	baseLogger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := baseLogger.WithWorkerID(uuid.New().String())

	_, tracerCloser, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer tracerCloser.Close()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatalf("Failed to prepare schema: %v", err)
	}
	repo := database.NewRepository(db)

	proc := &processor{
		assets:  repo,
		status:  repo,
		timeout: cfg.Pipeline.JobTimeout,
		logger:  logger,
	}

	var progress pipeline.ProgressFunc
	if cfg.Redis.Enabled {
		c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.WarnWithErr("Redis unavailable, running without status cache and locks", err)
		} else {
			defer c.Close()
			proc.status = status.NewCachedStore(repo, c, cfg.Redis.StatusTTL, logger)
			proc.locks = c
			progress = cacheProgress(c, cfg.Redis.StatusTTL, logger)
		}
	}

	// Initialize storage
	if err := os.MkdirAll(cfg.Pipeline.TempDir, 0755); err != nil {
		logger.Fatalf("Failed to create temp dir: %v", err)
	}
	backend, err := storage.Open(cfg.Storage, cfg.Pipeline.TempDir)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	ffmpeg := transcoder.NewFFmpeg(cfg.Pipeline.FFmpegPath, cfg.Pipeline.FFprobePath, nil, transcoder.EncodeOptions{
		VideoCodec:     cfg.Pipeline.VideoCodec,
		AudioCodec:     cfg.Pipeline.AudioCodec,
		Preset:         cfg.Pipeline.Preset,
		SegmentSeconds: cfg.Pipeline.SegmentSeconds,
		SampleRate:     cfg.Pipeline.AudioSampleRate,
		Channels:       cfg.Pipeline.AudioChannels,
	})
	if err := ffmpeg.CheckAvailability(ctx); err != nil {
		logger.WarnWithErr("FFmpeg is not available on this system, conversions will fail", err)
	}

	retrier := publisher.DefaultRetrier()
	retrier.MaxAttempts = cfg.Pipeline.MaxUploadAttempts
	retrier.BaseDelay = cfg.Pipeline.UploadBaseDelay
	retrier.MaxDelay = cfg.Pipeline.UploadMaxDelay

	deps := pipeline.Dependencies{
		Prober:   ffmpeg,
		Encoder:  ffmpeg,
		Uploader: publisher.New(backend, retrier, logger),
		Source:   backend,
		Status:   proc.status,
		Progress: progress,
		Logger:   logger,
	}
	if len(cfg.Webhook.URLs) > 0 {
		deps.Notifier = webhook.NewService(cfg.Webhook, logger)
	}

	p, err := pipeline.New(pipeline.Config{
		TempDir:     cfg.Pipeline.TempDir,
		Namespace:   cfg.Pipeline.Namespace,
		Concurrency: cfg.Pipeline.Concurrency,
	}, deps)
	if err != nil {
		logger.Fatalf("Failed to create pipeline: %v", err)
	}
	proc.pipeline = p

	// Initialize queue
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server stopped", err)
			}
		}()
		defer metricsServer.Shutdown(context.Background())
	}

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	go monitoring.NewMonitor(q, logger).Run(ctx, 30*time.Second)

	// Start consuming jobs
	logger.Info("Worker started, waiting for conversion jobs...")
	if err := q.ConsumeConversions(ctx, proc.handle); err != nil {
		logger.Fatalf("Failed to consume jobs: %v", err)
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("Worker stopped")
}
