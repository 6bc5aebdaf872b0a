// Package pipeline turns one video asset into a published HLS bundle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/metrics"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/publisher"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/tracing"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/transcoder"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Prober reads the primary video stream dimensions of a file
type Prober interface {
	ProbeResolution(ctx context.Context, path string) (transcoder.Resolution, error)
}

// Encoder produces one HLS variant in a working directory
type Encoder interface {
	TranscodeVariant(ctx context.Context, inputPath string, variant models.VariantSpec, workDir string) (string, error)
}

// Uploader publishes local files under a storage prefix
type Uploader interface {
	PublishFiles(ctx context.Context, prefix string, paths []string) error
}

// SourceFetcher makes a local copy of an asset's source media
type SourceFetcher interface {
	CopyOfFile(ctx context.Context, asset models.Asset) (string, error)
}

// Notifier is told about finished conversions
type Notifier interface {
	Notify(ctx context.Context, event string, data interface{}) error
}

// Config holds the per-deployment pipeline settings
type Config struct {
	TempDir     string
	Namespace   string
	Concurrency int
}

// Dependencies are the collaborators a Pipeline drives. Notifier and
// Progress are optional.
type Dependencies struct {
	Prober   Prober
	Encoder  Encoder
	Uploader Uploader
	Source   SourceFetcher
	Status   status.Store
	Notifier Notifier
	Progress ProgressFunc
	Logger   *logging.Logger
}

// Pipeline runs HLS conversions
type Pipeline struct {
	cfg  Config
	deps Dependencies
}

// New validates deps and creates a Pipeline
func New(cfg Config, deps Dependencies) (*Pipeline, error) {
	var missing []error
	if deps.Prober == nil {
		missing = append(missing, errors.New("prober is required"))
	}
	if deps.Encoder == nil {
		missing = append(missing, errors.New("encoder is required"))
	}
	if deps.Uploader == nil {
		missing = append(missing, errors.New("uploader is required"))
	}
	if deps.Source == nil {
		missing = append(missing, errors.New("source fetcher is required"))
	}
	if deps.Status == nil {
		missing = append(missing, errors.New("status store is required"))
	}
	if cfg.TempDir == "" {
		missing = append(missing, errors.New("temp dir is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}

	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &Pipeline{cfg: cfg, deps: deps}, nil
}

// run is the state owned by a single invocation
type run struct {
	asset     models.Asset
	logger    *logging.Logger
	prefix    string
	inputPath string
	workDir   string

	mu    sync.Mutex
	total int
	done  int
}

// Run converts the asset. Non-video assets and assets without a source or
// UID are skipped without touching status. A UID that is not a single path
// segment is rejected with a SetupError before any status change. Any failure after the status becomes
// processing marks the asset failed and is returned unchanged.
func (p *Pipeline) Run(ctx context.Context, asset models.Asset) (err error) {
	logger := p.deps.Logger.WithAssetID(asset.ID)

	if !asset.CanStreamVideo() {
		logger.Infof("Asset is not a video (%s), skipping", asset.MimeType)
		return nil
	}
	if asset.SourceKey == "" {
		logger.Info("Asset has no source file, skipping")
		return nil
	}
	if asset.UID == "" {
		logger.Info("Asset has no uid, skipping")
		return nil
	}
	if err := asset.ValidateUID(); err != nil {
		return &SetupError{Op: "validate uid", Err: err}
	}

	span, ctx := tracing.StartSpan(ctx, "pipeline.run")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "asset_id", asset.ID)

	start := time.Now()
	metrics.RecordConversionStarted()
	defer func() {
		outcome := models.ConversionStatusCompleted
		if err != nil {
			outcome = models.ConversionStatusFailed
			tracing.LogError(span, err)
			metrics.RecordError("pipeline", ErrorKind(err))
		}
		metrics.RecordConversionFinished(outcome, time.Since(start).Seconds())
	}()

	if err := p.deps.Status.SetStatus(ctx, asset.ID, models.ConversionStatusProcessing); err != nil {
		return &StatusError{Status: models.ConversionStatusProcessing, Err: err}
	}
	logger.LogConversionEvent(asset.ID, "conversion_started", models.ConversionStatusProcessing, nil)

	r := &run{
		asset:  asset,
		logger: logger,
		prefix: asset.HLSPrefix(p.cfg.Namespace),
	}
	defer p.cleanup(r)

	results, err := p.execute(ctx, r)
	if err != nil {
		p.fail(ctx, r, err)
		return err
	}

	logger.LogConversionEvent(asset.ID, "conversion_completed", models.ConversionStatusCompleted, map[string]interface{}{
		"variants": len(results),
		"duration": time.Since(start).String(),
	})
	p.notify(ctx, r, models.WebhookEventConversionCompleted, models.ConversionEvent{
		AssetID:     asset.ID,
		AssetUID:    asset.UID,
		Status:      models.ConversionStatusCompleted,
		Variants:    len(results),
		PlaylistKey: r.prefix + models.MasterPlaylistName,
	})
	return nil
}

func (p *Pipeline) execute(ctx context.Context, r *run) ([]models.TranscodeResult, error) {
	inputPath, err := p.deps.Source.CopyOfFile(ctx, r.asset)
	if err != nil {
		return nil, &SetupError{Op: "copy source file", Err: err}
	}
	r.inputPath = inputPath

	workDir := filepath.Join(p.cfg.TempDir, "hls_"+uuid.New().String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, &SetupError{Op: "create working directory", Err: err}
	}
	r.workDir = workDir

	p.report(ctx, r, StateProbing, "", "Detecting source resolution")

	source, err := p.probeSource(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	r.logger.Infof("Source resolution %s", source)

	variants := transcoder.PlanVariants(source.Height)
	r.mu.Lock()
	r.total = len(variants) + 1
	r.mu.Unlock()

	results, err := p.processVariants(ctx, r, variants)
	if err != nil {
		return nil, err
	}

	p.report(ctx, r, StatePublishingManifest, "", "Publishing master playlist")

	masterPath, err := transcoder.WriteMasterPlaylist(workDir, transcoder.BuildMasterPlaylist(results))
	if err != nil {
		return nil, err
	}
	if err := p.deps.Uploader.PublishFiles(ctx, r.prefix, []string{masterPath}); err != nil {
		return nil, err
	}
	r.advance()
	p.report(ctx, r, StatePublishingManifest, "", "Master playlist uploaded")

	if err := p.deps.Status.SetStatus(ctx, r.asset.ID, models.ConversionStatusCompleted); err != nil {
		return nil, &StatusError{Status: models.ConversionStatusCompleted, Err: err}
	}
	p.report(ctx, r, StateCompleted, "", "HLS ready")

	return results, nil
}

func (p *Pipeline) probeSource(ctx context.Context, inputPath string) (transcoder.Resolution, error) {
	span, ctx := tracing.StartSpan(ctx, "pipeline.probe")
	defer tracing.FinishSpan(span)

	res, err := p.deps.Prober.ProbeResolution(ctx, inputPath)
	if err != nil {
		metrics.RecordProbeFailure("source")
		tracing.LogError(span, err)
		return transcoder.Resolution{}, err
	}
	tracing.SetTag(span, "resolution", res.String())
	return res, nil
}

// processVariants encodes and publishes every variant, keeping results in
// planning order. With Concurrency above one, encodes overlap but each
// variant is still published right after its own encode.
func (p *Pipeline) processVariants(ctx context.Context, r *run, variants []models.VariantSpec) ([]models.TranscodeResult, error) {
	results := make([]models.TranscodeResult, len(variants))

	if p.cfg.Concurrency <= 1 {
		for i, variant := range variants {
			result, err := p.processVariant(ctx, r, variant)
			if err != nil {
				return nil, err
			}
			results[i] = result
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, variant := range variants {
		i, variant := i, variant
		g.Go(func() error {
			result, err := p.processVariant(gctx, r, variant)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) processVariant(ctx context.Context, r *run, variant models.VariantSpec) (models.TranscodeResult, error) {
	if err := ctx.Err(); err != nil {
		return models.TranscodeResult{}, err
	}

	logger := r.logger.WithVariant(variant.Name)
	span, ctx := tracing.StartSpan(ctx, "pipeline.variant")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "variant", variant.Name)

	p.report(ctx, r, StateProcessingVariants, variant.Name, fmt.Sprintf("Encoding %s stream...", variant.Name))

	start := time.Now()
	playlistPath, err := p.deps.Encoder.TranscodeVariant(ctx, r.inputPath, variant, r.workDir)
	if err != nil {
		tracing.LogError(span, err)
		return models.TranscodeResult{}, err
	}

	result := models.TranscodeResult{
		VariantName:        variant.Name,
		PlaylistPath:       playlistPath,
		EstimatedBandwidth: transcoder.EstimateBandwidth(variant.VideoBitrateKbps),
	}

	// the output probe only feeds RESOLUTION, so a failure is tolerated
	if res, err := p.deps.Prober.ProbeResolution(ctx, playlistPath); err != nil {
		metrics.RecordProbeFailure("variant")
		logger.WarnWithErr("Could not detect variant resolution", err)
	} else {
		result.ActualResolution = res.String()
	}

	files, err := publisher.VariantFiles(r.workDir, variant.Name)
	if err != nil {
		return models.TranscodeResult{}, err
	}
	if err := p.deps.Uploader.PublishFiles(ctx, r.prefix, files); err != nil {
		tracing.LogError(span, err)
		return models.TranscodeResult{}, err
	}

	metrics.RecordVariant(variant.Name, time.Since(start).Seconds())
	logger.WithFields(map[string]interface{}{
		"files":      len(files),
		"resolution": result.ActualResolution,
		"bandwidth":  result.EstimatedBandwidth,
	}).Info("Variant published")

	r.advance()
	return result, nil
}

func (r *run) advance() {
	r.mu.Lock()
	r.done++
	r.mu.Unlock()
}

func (p *Pipeline) report(ctx context.Context, r *run, state State, variant, message string) {
	r.mu.Lock()
	progress := Progress{
		AssetID: r.asset.ID,
		State:   state,
		Variant: variant,
		Step:    r.done,
		Total:   r.total,
		Message: message,
	}
	r.mu.Unlock()

	if progress.Total > 0 {
		progress.Fraction = float64(progress.Step) / float64(progress.Total)
	}
	if state == StateCompleted {
		progress.Fraction = 1
	}

	r.logger.LogConversionProgress(r.asset.ID, state.String(), progress.Fraction, message)
	if p.deps.Progress != nil {
		p.deps.Progress(ctx, progress)
	}
}

// fail records the failed status. Errors from the status update are
// logged and never replace the original error.
func (p *Pipeline) fail(ctx context.Context, r *run, cause error) {
	ctx = context.WithoutCancel(ctx)
	kind := ErrorKind(cause)

	r.logger.WithField("error_kind", kind).ErrorWithErr("HLS conversion failed", cause)
	p.report(ctx, r, StateFailed, "", cause.Error())

	if err := p.deps.Status.SetStatus(ctx, r.asset.ID, models.ConversionStatusFailed); err != nil {
		r.logger.ErrorWithErr("Failed to record failed conversion status", err)
	}

	p.notify(ctx, r, models.WebhookEventConversionFailed, models.ConversionEvent{
		AssetID:  r.asset.ID,
		AssetUID: r.asset.UID,
		Status:   models.ConversionStatusFailed,
		Error:    cause.Error(),
	})
}

func (p *Pipeline) notify(ctx context.Context, r *run, event string, data models.ConversionEvent) {
	if p.deps.Notifier == nil {
		return
	}
	if err := p.deps.Notifier.Notify(context.WithoutCancel(ctx), event, data); err != nil {
		r.logger.WarnWithErr("Failed to deliver conversion notification", err)
	}
}

// cleanup removes the working directory and the source copy
func (p *Pipeline) cleanup(r *run) {
	if r.workDir != "" {
		if err := os.RemoveAll(r.workDir); err != nil {
			r.logger.WarnWithErr("Failed to remove working directory", err)
		}
	}
	if r.inputPath != "" {
		if err := os.Remove(r.inputPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.WarnWithErr("Failed to remove source copy", err)
		}
	}
}
