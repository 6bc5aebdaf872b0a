package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/cache"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/database"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/pipeline"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// AssetLoader resolves the asset a job refers to
type AssetLoader interface {
	GetAsset(ctx context.Context, id int64) (*models.Asset, error)
}

// Locker guards against two workers converting the same asset
type Locker interface {
	AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, resource string) error
}

// ProgressWriter stores progress reports for the API to read
type ProgressWriter interface {
	SetProgress(ctx context.Context, assetID int64, progress cache.Progress, ttl time.Duration) error
}

// Converter runs one conversion
type Converter interface {
	Run(ctx context.Context, asset models.Asset) error
}

// processor turns queued jobs into pipeline runs
type processor struct {
	assets   AssetLoader
	status   status.Store
	pipeline Converter
	locks    Locker
	timeout  time.Duration
	logger   *logging.Logger
}

func lockResource(assetID int64) string {
	return fmt.Sprintf("conversion:%d", assetID)
}

// handle processes one job. A missing asset marks the status failed and
// finishes the job. A returned error dead-letters it, unless ctx was
// cancelled, in which case the job is requeued and the status reset to
// pending.
func (p *processor) handle(ctx context.Context, job models.ConversionJob) error {
	logger := p.logger.WithAssetID(job.AssetID)

	if p.locks != nil {
		resource := lockResource(job.AssetID)
		acquired, err := p.locks.AcquireLock(ctx, resource, p.timeout+time.Minute)
		if err != nil {
			logger.WarnWithErr("Could not acquire conversion lock, continuing without it", err)
		} else if !acquired {
			logger.Warn("Conversion already running for asset, skipping job")
			return nil
		} else {
			defer func() {
				if err := p.locks.ReleaseLock(context.WithoutCancel(ctx), resource); err != nil {
					logger.WarnWithErr("Failed to release conversion lock", err)
				}
			}()
		}
	}

	asset, err := p.assets.GetAsset(ctx, job.AssetID)
	if errors.Is(err, database.ErrAssetNotFound) {
		logger.Error("Asset not found for conversion job")
		if err := p.status.SetStatus(ctx, job.AssetID, models.ConversionStatusFailed); err != nil {
			return fmt.Errorf("failed to mark missing asset failed: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load asset: %w", err)
	}

	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	logger.Infof("Processing conversion job submitted at %s", job.SubmittedAt.Format(time.RFC3339))
	if err := p.pipeline.Run(runCtx, *asset); err != nil {
		if ctx.Err() != nil {
			// the queue redelivers interrupted jobs
			if err := p.status.SetStatus(context.WithoutCancel(ctx), job.AssetID, models.ConversionStatusPending); err != nil {
				logger.WarnWithErr("Failed to mark interrupted conversion pending", err)
			}
		}
		return fmt.Errorf("conversion failed (%s): %w", pipeline.ErrorKind(err), err)
	}

	logger.Info("Successfully processed conversion job")
	return nil
}

// cacheProgress publishes pipeline progress to the cache
func cacheProgress(w ProgressWriter, ttl time.Duration, logger *logging.Logger) pipeline.ProgressFunc {
	return func(ctx context.Context, p pipeline.Progress) {
		err := w.SetProgress(ctx, p.AssetID, cache.Progress{
			State:     p.State.String(),
			Fraction:  p.Fraction,
			Message:   p.Message,
			UpdatedAt: time.Now(),
		}, ttl)
		if err != nil {
			logger.WithAssetID(p.AssetID).WarnWithErr("Failed to cache conversion progress", err)
		}
	}
}
