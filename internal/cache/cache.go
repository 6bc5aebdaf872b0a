package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/metrics"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

const keyPrefix = "streaming:"

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

func statusKey(assetID int64) string {
	return fmt.Sprintf("%sstatus:%d", keyPrefix, assetID)
}

func progressKey(assetID int64) string {
	return fmt.Sprintf("%sprogress:%d", keyPrefix, assetID)
}

// Status Cache Operations

// SetStatus caches the current conversion status record
func (c *Cache) SetStatus(ctx context.Context, status *models.ConversionStatus, ttl time.Duration) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	return c.client.Set(ctx, statusKey(status.AssetID), data, ttl).Err()
}

// GetStatus returns the cached status, or nil on a cache miss
func (c *Cache) GetStatus(ctx context.Context, assetID int64) (*models.ConversionStatus, error) {
	data, err := c.client.Get(ctx, statusKey(assetID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheAccess("status", false)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get status from cache: %w", err)
	}

	var status models.ConversionStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}

	metrics.RecordCacheAccess("status", true)
	return &status, nil
}

// DeleteStatus removes the cached status
func (c *Cache) DeleteStatus(ctx context.Context, assetID int64) error {
	return c.client.Del(ctx, statusKey(assetID)).Err()
}

// Progress Cache Operations

// Progress is the last reported position of a running conversion
type Progress struct {
	State     string    `json:"state"`
	Fraction  float64   `json:"fraction"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetProgress caches conversion progress for quick retrieval
func (c *Cache) SetProgress(ctx context.Context, assetID int64, progress Progress, ttl time.Duration) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	return c.client.Set(ctx, progressKey(assetID), data, ttl).Err()
}

// GetProgress returns cached progress, or nil when none was reported
func (c *Cache) GetProgress(ctx context.Context, assetID int64) (*Progress, error) {
	data, err := c.client.Get(ctx, progressKey(assetID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheAccess("progress", false)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress from cache: %w", err)
	}

	var progress Progress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}

	metrics.RecordCacheAccess("progress", true)
	return &progress, nil
}

// DeleteProgress removes cached progress
func (c *Cache) DeleteProgress(ctx context.Context, assetID int64) error {
	return c.client.Del(ctx, progressKey(assetID)).Err()
}

// Locking Operations

// AcquireLock attempts to acquire a distributed lock
func (c *Cache) AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("%slock:%s", keyPrefix, resource)
	return c.client.SetNX(ctx, key, "locked", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Cache) ReleaseLock(ctx context.Context, resource string) error {
	key := fmt.Sprintf("%slock:%s", keyPrefix, resource)
	return c.client.Del(ctx, key).Err()
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
