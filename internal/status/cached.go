package status

import (
	"context"
	"time"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// StatusCache is the subset of the Redis cache used for status lookups
type StatusCache interface {
	SetStatus(ctx context.Context, status *models.ConversionStatus, ttl time.Duration) error
	GetStatus(ctx context.Context, assetID int64) (*models.ConversionStatus, error)
	DeleteStatus(ctx context.Context, assetID int64) error
}

// CachedStore is a read-through cache in front of another Store.
// Cache failures are logged and never fail the call.
type CachedStore struct {
	next   Store
	cache  StatusCache
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedStore wraps next with cache
func NewCachedStore(next Store, cache StatusCache, ttl time.Duration, logger *logging.Logger) *CachedStore {
	return &CachedStore{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// SetStatus writes to the backing store and drops the cache entry.
// The next read refills it from the store.
func (s *CachedStore) SetStatus(ctx context.Context, assetID int64, status string) error {
	if err := s.next.SetStatus(ctx, assetID, status); err != nil {
		return err
	}
	s.invalidate(ctx, assetID)
	return nil
}

// FindByAssetID serves from cache when possible
func (s *CachedStore) FindByAssetID(ctx context.Context, assetID int64) (*models.ConversionStatus, error) {
	cached, err := s.cache.GetStatus(ctx, assetID)
	if err != nil {
		s.logger.WithAssetID(assetID).WarnWithErr("Failed to read cached conversion status", err)
	}
	if cached != nil {
		return cached, nil
	}

	record, err := s.next.FindByAssetID(ctx, assetID)
	if err != nil || record == nil {
		return record, err
	}

	if err := s.cache.SetStatus(ctx, record, s.ttl); err != nil {
		s.logger.WithAssetID(assetID).WarnWithErr("Failed to cache conversion status", err)
	}
	return record, nil
}

// DeleteByAssetID deletes from the backing store and drops the cache entry
func (s *CachedStore) DeleteByAssetID(ctx context.Context, assetID int64) error {
	s.invalidate(ctx, assetID)
	return s.next.DeleteByAssetID(ctx, assetID)
}

func (s *CachedStore) invalidate(ctx context.Context, assetID int64) {
	if err := s.cache.DeleteStatus(ctx, assetID); err != nil {
		s.logger.WithAssetID(assetID).WarnWithErr("Failed to invalidate cached conversion status", err)
	}
}
