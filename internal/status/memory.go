package status

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// MemoryStore keeps status records in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]models.ConversionStatus
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]models.ConversionStatus),
		now:     time.Now,
	}
}

// SetStatus creates or updates the asset's record
func (s *MemoryStore) SetStatus(ctx context.Context, assetID int64, status string) error {
	if err := Validate(status); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	record, ok := s.records[assetID]
	if !ok {
		s.nextID++
		record = models.ConversionStatus{
			ID:          s.nextID,
			AssetID:     assetID,
			UID:         uuid.New().String(),
			DateCreated: now,
		}
	}
	record.Status = status
	record.DateUpdated = now
	s.records[assetID] = record

	return nil
}

// FindByAssetID returns a copy of the record, or nil when absent
func (s *MemoryStore) FindByAssetID(ctx context.Context, assetID int64) (*models.ConversionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[assetID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// DeleteByAssetID removes the record if present
func (s *MemoryStore) DeleteByAssetID(ctx context.Context, assetID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, assetID)
	return nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
