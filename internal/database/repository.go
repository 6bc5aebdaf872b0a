package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/metrics"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// ErrAssetNotFound is returned when an asset lookup has no row
var ErrAssetNotFound = errors.New("asset not found")

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// observe records the duration and outcome of the operation once the
// returned func runs
func observe(operation string, err *error) func() {
	start := time.Now()
	return func() {
		result := "success"
		if *err != nil {
			result = "error"
		}
		metrics.RecordDatabaseOperation(operation, result, time.Since(start).Seconds())
	}
}

// Assets

// UpsertAsset inserts an asset or updates it by UID, filling in its ID
func (r *Repository) UpsertAsset(ctx context.Context, asset *models.Asset) (err error) {
	defer observe("upsert_asset", &err)()

	query := `
		INSERT INTO assets (uid, filename, mime_type, source_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE
		SET filename = EXCLUDED.filename, mime_type = EXCLUDED.mime_type,
		    source_key = EXCLUDED.source_key, updated_at = NOW()
		RETURNING id
	`

	err = r.db.Pool.QueryRow(ctx, query,
		asset.UID, asset.Filename, asset.MimeType, asset.SourceKey,
	).Scan(&asset.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}

	return nil
}

// GetAsset retrieves an asset by ID
func (r *Repository) GetAsset(ctx context.Context, id int64) (_ *models.Asset, err error) {
	defer observe("get_asset", &err)()

	var asset models.Asset

	query := `
		SELECT id, uid, filename, mime_type, source_key
		FROM assets
		WHERE id = $1
	`

	err = r.db.Pool.QueryRow(ctx, query, id).Scan(
		&asset.ID, &asset.UID, &asset.Filename, &asset.MimeType, &asset.SourceKey,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return &asset, nil
}

// DeleteAsset removes an asset row
func (r *Repository) DeleteAsset(ctx context.Context, id int64) (err error) {
	defer observe("delete_asset", &err)()

	if _, err = r.db.Pool.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// Conversion status

// SetStatus upserts the asset's status record. Concurrent writers resolve
// to the last write.
func (r *Repository) SetStatus(ctx context.Context, assetID int64, value string) (err error) {
	defer observe("set_status", &err)()

	if err = status.Validate(value); err != nil {
		return err
	}

	query := `
		INSERT INTO streaming_video_conversion_status (asset_id, status)
		VALUES ($1, $2)
		ON CONFLICT (asset_id) DO UPDATE
		SET status = EXCLUDED.status, date_updated = NOW()
	`

	if _, err = r.db.Pool.Exec(ctx, query, assetID, value); err != nil {
		return fmt.Errorf("failed to set conversion status: %w", err)
	}
	return nil
}

// FindByAssetID returns the asset's status record, or nil when none exists
func (r *Repository) FindByAssetID(ctx context.Context, assetID int64) (_ *models.ConversionStatus, err error) {
	defer observe("find_status", &err)()

	var record models.ConversionStatus

	query := `
		SELECT id, asset_id, status, uid::text, date_created, date_updated
		FROM streaming_video_conversion_status
		WHERE asset_id = $1
	`

	err = r.db.Pool.QueryRow(ctx, query, assetID).Scan(
		&record.ID, &record.AssetID, &record.Status, &record.UID,
		&record.DateCreated, &record.DateUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion status: %w", err)
	}

	return &record, nil
}

// DeleteByAssetID removes the asset's status record
func (r *Repository) DeleteByAssetID(ctx context.Context, assetID int64) (err error) {
	defer observe("delete_status", &err)()

	query := `DELETE FROM streaming_video_conversion_status WHERE asset_id = $1`
	if _, err = r.db.Pool.Exec(ctx, query, assetID); err != nil {
		return fmt.Errorf("failed to delete conversion status: %w", err)
	}
	return nil
}
