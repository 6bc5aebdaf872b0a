package status

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

func TestMemoryStore_Upsert(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record, err := store.FindByAssetID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, record)

	require.NoError(t, store.SetStatus(ctx, 1, models.ConversionStatusPending))
	first, err := store.FindByAssetID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, models.ConversionStatusPending, first.Status)
	assert.NotEmpty(t, first.UID)

	require.NoError(t, store.SetStatus(ctx, 1, models.ConversionStatusProcessing))
	require.NoError(t, store.SetStatus(ctx, 1, models.ConversionStatusCompleted))

	latest, err := store.FindByAssetID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ConversionStatusCompleted, latest.Status)
	assert.Equal(t, first.ID, latest.ID)
	assert.Equal(t, first.UID, latest.UID)
	assert.Equal(t, first.DateCreated, latest.DateCreated)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Timestamps(t *testing.T) {
	store := NewMemoryStore()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, store.SetStatus(ctx, 5, models.ConversionStatusPending))
	clock = clock.Add(time.Minute)
	require.NoError(t, store.SetStatus(ctx, 5, models.ConversionStatusFailed))

	record, err := store.FindByAssetID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), record.DateCreated)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC), record.DateUpdated)
}

func TestMemoryStore_RejectsUnknownStatus(t *testing.T) {
	store := NewMemoryStore()

	err := store.SetStatus(context.Background(), 1, "done")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SetStatus(ctx, 1, models.ConversionStatusPending))

	record, err := store.FindByAssetID(ctx, 1)
	require.NoError(t, err)
	record.Status = models.ConversionStatusCompleted

	again, err := store.FindByAssetID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ConversionStatusPending, again.Status)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.DeleteByAssetID(ctx, 1))
	require.NoError(t, store.SetStatus(ctx, 1, models.ConversionStatusPending))
	require.NoError(t, store.DeleteByAssetID(ctx, 1))

	record, err := store.FindByAssetID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestMemoryStore_ConcurrentWritersKeepOneRecord(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := models.ConversionStatusProcessing
			if i%2 == 0 {
				status = models.ConversionStatusFailed
			}
			assert.NoError(t, store.SetStatus(ctx, 9, status))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.Len())
	record, err := store.FindByAssetID(ctx, 9)
	require.NoError(t, err)
	assert.Contains(t, []string{models.ConversionStatusProcessing, models.ConversionStatusFailed}, record.Status)
	assert.Equal(t, int64(1), record.ID)
}

func TestValidate(t *testing.T) {
	for _, s := range []string{"pending", "processing", "completed", "failed"} {
		assert.NoError(t, Validate(s))
	}
	assert.ErrorIs(t, Validate(""), ErrInvalidStatus)
	assert.ErrorIs(t, Validate("Completed"), ErrInvalidStatus)
}
