package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/cache"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/database"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/middleware"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/streaming"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// AssetStore persists the asset rows the API is told about
type AssetStore interface {
	UpsertAsset(ctx context.Context, asset *models.Asset) error
	GetAsset(ctx context.Context, id int64) (*models.Asset, error)
	DeleteAsset(ctx context.Context, id int64) error
}

// ProgressReader returns the last reported progress of a conversion
type ProgressReader interface {
	GetProgress(ctx context.Context, assetID int64) (*cache.Progress, error)
}

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// API serves the asset lifecycle hooks and conversion status
type API struct {
	assets    AssetStore
	streaming *streaming.Service
	progress  ProgressReader
	checks    map[string]HealthCheck
	logger    *logging.Logger
}

type saveAssetRequest struct {
	UID       string `json:"uid" binding:"required,uuid"`
	Filename  string `json:"filename" binding:"required"`
	MimeType  string `json:"mime_type" binding:"required"`
	SourceKey string `json:"source_key" binding:"required"`
}

type statusResponse struct {
	AssetID     int64           `json:"asset_id"`
	Status      string          `json:"status"`
	Label       string          `json:"label"`
	DateUpdated *time.Time      `json:"date_updated,omitempty"`
	Progress    *cache.Progress `json:"progress,omitempty"`
	PlaylistURL string          `json:"playlist_url,omitempty"`
}

func setupRouter(api *API, auth *middleware.Authenticator, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(api.logger))

	// Health check
	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(limiter))
	{
		v1.GET("/assets/:id/status", api.getStatus)
		v1.GET("/assets/:id/playlist", api.getPlaylist)

		hooks := v1.Group("")
		hooks.Use(middleware.JWTAuth(auth))
		hooks.POST("/assets", api.saveAsset)
		hooks.DELETE("/assets/:id", api.deleteAsset)
	}

	return router
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string, len(api.checks))
	healthy := true
	for name, check := range api.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "components": components})
}

// saveAsset records an asset and queues its conversion
func (api *API) saveAsset(c *gin.Context) {
	var req saveAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset := &models.Asset{
		UID:       req.UID,
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		SourceKey: req.SourceKey,
	}
	if err := api.assets.UpsertAsset(c.Request.Context(), asset); err != nil {
		api.logger.ErrorWithErr("Failed to save asset", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save asset"})
		return
	}

	if err := api.streaming.HandleAssetSaved(c.Request.Context(), *asset); err != nil {
		api.logger.WithAssetID(asset.ID).ErrorWithErr("Failed to queue conversion", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue conversion"})
		return
	}

	if !asset.CanStreamVideo() {
		c.JSON(http.StatusOK, gin.H{"asset": asset, "queued": false})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"asset": asset, "queued": true})
}

// deleteAsset removes the asset's HLS bundle, status and row
func (api *API) deleteAsset(c *gin.Context) {
	asset, ok := api.loadAsset(c)
	if !ok {
		return
	}

	if err := api.streaming.HandleAssetDeleted(c.Request.Context(), *asset); err != nil {
		api.logger.WithAssetID(asset.ID).ErrorWithErr("Failed to clean up asset", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clean up asset"})
		return
	}
	if err := api.assets.DeleteAsset(c.Request.Context(), asset.ID); err != nil {
		api.logger.WithAssetID(asset.ID).ErrorWithErr("Failed to delete asset", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete asset"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted successfully", "asset_id": asset.ID})
}

// getStatus reports the conversion status and live progress
func (api *API) getStatus(c *gin.Context) {
	asset, ok := api.loadAsset(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	record, err := api.streaming.Status(ctx, asset.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load status"})
		return
	}
	label, err := api.streaming.StatusLabel(ctx, *asset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load status"})
		return
	}

	resp := statusResponse{AssetID: asset.ID, Label: label}
	if record != nil {
		resp.Status = record.Status
		resp.DateUpdated = &record.DateUpdated
	}
	if url, err := api.streaming.PlaylistURL(ctx, *asset); err == nil {
		resp.PlaylistURL = url
	}
	if api.progress != nil && record != nil && record.Status == models.ConversionStatusProcessing {
		progress, err := api.progress.GetProgress(ctx, asset.ID)
		if err != nil {
			api.logger.WithAssetID(asset.ID).WarnWithErr("Failed to read progress", err)
		}
		resp.Progress = progress
	}

	c.JSON(http.StatusOK, resp)
}

// getPlaylist returns the master playlist URL once the bundle is ready
func (api *API) getPlaylist(c *gin.Context) {
	asset, ok := api.loadAsset(c)
	if !ok {
		return
	}

	url, err := api.streaming.PlaylistURL(c.Request.Context(), *asset)
	if errors.Is(err, streaming.ErrNotReady) {
		c.JSON(http.StatusNotFound, gin.H{"error": "HLS playlist not ready"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve playlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset_id": asset.ID, "url": url})
}

func (api *API) loadAsset(c *gin.Context) (*models.Asset, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return nil, false
	}

	asset, err := api.assets.GetAsset(c.Request.Context(), id)
	if errors.Is(err, database.ErrAssetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
		return nil, false
	}
	if err != nil {
		api.logger.WithAssetID(id).ErrorWithErr("Failed to load asset", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load asset"})
		return nil, false
	}
	return asset, true
}
