// Command dlq drains the conversion dead letter queue. Every job is logged
// with the broker's rejection reason and removed; with -requeue the asset
// is marked pending and resubmitted first.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/cache"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/config"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/database"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/queue"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

func main() {
	var (
		configPath string
		requeue    bool
		idle       time.Duration
	)

	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.BoolVar(&requeue, "requeue", false, "Resubmit each dead-lettered conversion")
	flag.DurationVar(&idle, "idle", 5*time.Second, "Stop after this long without a message")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fatalf("initialize logger: %v", err)
	}

	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		fatalf("connect to queue: %v", err)
	}
	defer q.Close()

	var store status.Store
	if requeue {
		db, err := database.New(cfg.Database)
		if err != nil {
			fatalf("connect to database: %v", err)
		}
		defer db.Close()
		repo := database.NewRepository(db)
		store = repo

		if cfg.Redis.Enabled {
			c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				logger.WarnWithErr("Redis unavailable, updating status in the database only", err)
			} else {
				defer c.Close()
				store = status.NewCachedStore(repo, c, cfg.Redis.StatusTTL, logger)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newDrainer(store, q, logger)
	err = q.ConsumeDLQ(ctx, func(job models.ConversionJob, reason string) error {
		if err := d.handle(ctx, job, reason); err != nil {
			cancel()
			return err
		}
		return nil
	})
	if err != nil {
		fatalf("consume dead letter queue: %v", err)
	}

	timer := time.NewTimer(idle)
	defer timer.Stop()
	for done := false; !done; {
		select {
		case <-d.seen:
			timer.Reset(idle)
		case <-timer.C:
			done = true
		case <-ctx.Done():
			done = true
		}
	}

	fmt.Printf("Handled %d dead-lettered conversions (requeue=%t).\n", d.handled.Load(), requeue)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
