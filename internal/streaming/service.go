// Package streaming ties the HLS pipeline to the asset lifecycle: saved
// assets are queued for conversion, deleted assets lose their bundle, and
// finished bundles are exposed through a playlist URL.
package streaming

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/storage"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// ErrNotReady is returned when an asset has no servable HLS bundle
var ErrNotReady = errors.New("hls playlist not ready")

// Status labels shown on admin surfaces
const (
	LabelReady      = "HLS Ready"
	LabelProcessing = "Processing..."
	LabelFailed     = "Failed"
	LabelQueued     = "Queued"
)

// JobSubmitter hands a conversion to the background workers
type JobSubmitter interface {
	SubmitConversion(ctx context.Context, assetID int64) error
}

// Service reacts to asset lifecycle events
type Service struct {
	backend   storage.Backend
	status    status.Store
	jobs      JobSubmitter
	namespace string
	logger    *logging.Logger
}

// NewService creates a new streaming Service
func NewService(backend storage.Backend, store status.Store, jobs JobSubmitter, namespace string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		backend:   backend,
		status:    store,
		jobs:      jobs,
		namespace: namespace,
		logger:    logger,
	}
}

// HandleAssetSaved marks a video asset pending and queues its conversion.
// Every save re-queues, so replacing the source file produces a new bundle.
func (s *Service) HandleAssetSaved(ctx context.Context, asset models.Asset) error {
	if !asset.CanStreamVideo() {
		return nil
	}

	if err := s.status.SetStatus(ctx, asset.ID, models.ConversionStatusPending); err != nil {
		return fmt.Errorf("failed to mark asset pending: %w", err)
	}
	if err := s.jobs.SubmitConversion(ctx, asset.ID); err != nil {
		return fmt.Errorf("failed to submit conversion: %w", err)
	}

	s.logger.LogConversionEvent(asset.ID, "conversion_queued", models.ConversionStatusPending, nil)
	return nil
}

// HandleAssetDeleted removes every published file under the asset's
// namespace, then the directory, then the status record. Storage failures
// are logged and never stop the remaining steps. Assets whose UID is not a
// single path segment never had a bundle published, so only their status
// record is removed.
func (s *Service) HandleAssetDeleted(ctx context.Context, asset models.Asset) error {
	if !asset.CanStreamVideo() || asset.UID == "" {
		return nil
	}

	logger := s.logger.WithAssetID(asset.ID)
	if err := asset.ValidateUID(); err != nil {
		logger.WarnWithErr("Skipping HLS file cleanup", err)
		return s.deleteStatus(ctx, asset.ID)
	}

	prefix := asset.HLSPrefix(s.namespace)
	logger.Infof("Cleaning up HLS files at %s", prefix)

	files, err := s.backend.GetFileList(ctx, prefix)
	if err != nil {
		logger.WarnWithErr("Could not list HLS directory", err)
	}

	deleted := 0
	for _, file := range files {
		if err := s.backend.DeleteFile(ctx, prefix+file.Basename); err != nil {
			logger.WithField("file", file.Basename).WarnWithErr("Could not delete HLS file", err)
			continue
		}
		deleted++
	}

	if err := s.backend.DeleteDirectory(ctx, prefix); err != nil {
		logger.WarnWithErr("Could not delete HLS directory", err)
	}

	if err := s.deleteStatus(ctx, asset.ID); err != nil {
		return err
	}

	logger.WithField("deleted", deleted).Info("HLS cleanup completed")
	return nil
}

func (s *Service) deleteStatus(ctx context.Context, assetID int64) error {
	if err := s.status.DeleteByAssetID(ctx, assetID); err != nil {
		return fmt.Errorf("failed to delete conversion status: %w", err)
	}
	return nil
}

// Status returns the conversion record for an asset, nil when none exists
func (s *Service) Status(ctx context.Context, assetID int64) (*models.ConversionStatus, error) {
	return s.status.FindByAssetID(ctx, assetID)
}

// PlaylistURL returns the public master playlist URL. It is only available
// once the conversion completed and the backend has a public root URL.
func (s *Service) PlaylistURL(ctx context.Context, asset models.Asset) (string, error) {
	if !asset.CanStreamVideo() || asset.ValidateUID() != nil {
		return "", ErrNotReady
	}

	record, err := s.status.FindByAssetID(ctx, asset.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversion status: %w", err)
	}
	if !record.IsReady() {
		return "", ErrNotReady
	}

	root := strings.TrimRight(s.backend.RootURL(), "/")
	if root == "" {
		return "", ErrNotReady
	}

	return root + "/" + asset.HLSPrefix(s.namespace) + models.MasterPlaylistName, nil
}

// StatusLabel describes the conversion state for display
func (s *Service) StatusLabel(ctx context.Context, asset models.Asset) (string, error) {
	if _, err := s.PlaylistURL(ctx, asset); err == nil {
		return LabelReady, nil
	} else if !errors.Is(err, ErrNotReady) {
		return "", err
	}

	record, err := s.status.FindByAssetID(ctx, asset.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversion status: %w", err)
	}
	if record == nil {
		return LabelQueued, nil
	}
	return Label(record.Status), nil
}

// Label maps a status value to its display label
func Label(value string) string {
	switch value {
	case models.ConversionStatusProcessing:
		return LabelProcessing
	case models.ConversionStatusFailed:
		return LabelFailed
	case models.ConversionStatusCompleted:
		return LabelReady
	default:
		return LabelQueued
	}
}
