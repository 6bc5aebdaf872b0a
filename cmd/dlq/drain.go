package main

import (
	"context"
	"sync/atomic"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// Resubmitter puts a conversion back on the work queue
type Resubmitter interface {
	SubmitConversion(ctx context.Context, assetID int64) error
}

// drainer handles dead-lettered jobs. A nil status store means log only.
type drainer struct {
	status status.Store
	jobs   Resubmitter
	logger *logging.Logger

	handled atomic.Int64
	seen    chan struct{}
}

func newDrainer(store status.Store, jobs Resubmitter, logger *logging.Logger) *drainer {
	return &drainer{
		status: store,
		jobs:   jobs,
		logger: logger,
		seen:   make(chan struct{}, 1),
	}
}

func (d *drainer) handle(ctx context.Context, job models.ConversionJob, reason string) error {
	logger := d.logger.WithAssetID(job.AssetID)
	logger.WithFields(map[string]interface{}{
		"reason":       reason,
		"submitted_at": job.SubmittedAt,
	}).Info("Dead-lettered conversion")

	if d.status != nil {
		if err := d.status.SetStatus(ctx, job.AssetID, models.ConversionStatusPending); err != nil {
			logger.ErrorWithErr("Failed to mark asset pending", err)
			return err
		}
		if err := d.jobs.SubmitConversion(ctx, job.AssetID); err != nil {
			logger.ErrorWithErr("Failed to resubmit conversion", err)
			return err
		}
	}

	d.handled.Add(1)
	select {
	case d.seen <- struct{}{}:
	default:
	}
	return nil
}
