package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/cache"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/database"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/pipeline"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// MockConverter is a mock implementation of Converter
type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Run(ctx context.Context, asset models.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

type assetMap map[int64]models.Asset

func (m assetMap) GetAsset(ctx context.Context, id int64) (*models.Asset, error) {
	asset, ok := m[id]
	if !ok {
		return nil, database.ErrAssetNotFound
	}
	return &asset, nil
}

type brokenAssets struct{}

func (brokenAssets) GetAsset(ctx context.Context, id int64) (*models.Asset, error) {
	return nil, errors.New("too many connections")
}

func setupCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

var clip = models.Asset{ID: 3, UID: "uid-3", Filename: "clip.mp4", MimeType: "video/mp4", SourceKey: "uploads/clip.mp4"}

func TestProcessor_RunsPipeline(t *testing.T) {
	converter := new(MockConverter)
	converter.On("Run", mock.Anything, clip).Return(nil)

	c := setupCache(t)
	p := &processor{
		assets:   assetMap{3: clip},
		status:   status.NewMemoryStore(),
		pipeline: converter,
		locks:    c,
		timeout:  time.Hour,
		logger:   logging.NewNopLogger(),
	}

	require.NoError(t, p.handle(context.Background(), models.ConversionJob{AssetID: 3}))
	converter.AssertExpectations(t)

	// lock is released afterwards
	acquired, err := c.AcquireLock(context.Background(), lockResource(3), time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestProcessor_AppliesJobTimeout(t *testing.T) {
	converter := new(MockConverter)
	converter.On("Run", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), clip).Return(nil)

	p := &processor{
		assets:   assetMap{3: clip},
		status:   status.NewMemoryStore(),
		pipeline: converter,
		timeout:  time.Minute,
		logger:   logging.NewNopLogger(),
	}

	require.NoError(t, p.handle(context.Background(), models.ConversionJob{AssetID: 3}))
	converter.AssertExpectations(t)
}

func TestProcessor_MissingAssetMarksFailed(t *testing.T) {
	store := status.NewMemoryStore()
	converter := new(MockConverter)

	p := &processor{
		assets:   assetMap{},
		status:   store,
		pipeline: converter,
		logger:   logging.NewNopLogger(),
	}

	require.NoError(t, p.handle(context.Background(), models.ConversionJob{AssetID: 99}))

	record, err := store.FindByAssetID(context.Background(), 99)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.ConversionStatusFailed, record.Status)
	converter.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestProcessor_LookupErrorDeadLetters(t *testing.T) {
	p := &processor{
		assets:   brokenAssets{},
		status:   status.NewMemoryStore(),
		pipeline: new(MockConverter),
		logger:   logging.NewNopLogger(),
	}

	err := p.handle(context.Background(), models.ConversionJob{AssetID: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many connections")
}

func TestProcessor_PipelineFailureIsReturned(t *testing.T) {
	cause := &pipeline.SetupError{Op: "copy source file", Err: errors.New("disk full")}
	converter := new(MockConverter)
	converter.On("Run", mock.Anything, clip).Return(cause)

	p := &processor{
		assets:   assetMap{3: clip},
		status:   status.NewMemoryStore(),
		pipeline: converter,
		logger:   logging.NewNopLogger(),
	}

	err := p.handle(context.Background(), models.ConversionJob{AssetID: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "(setup)")
}

func TestProcessor_InterruptedRunResetsToPending(t *testing.T) {
	store := status.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	converter := new(MockConverter)
	converter.On("Run", mock.Anything, clip).Run(func(args mock.Arguments) {
		cancel()
		require.NoError(t, store.SetStatus(context.Background(), 3, models.ConversionStatusFailed))
	}).Return(context.Canceled)

	p := &processor{
		assets:   assetMap{3: clip},
		status:   store,
		pipeline: converter,
		timeout:  time.Hour,
		logger:   logging.NewNopLogger(),
	}

	err := p.handle(ctx, models.ConversionJob{AssetID: 3})
	require.ErrorIs(t, err, context.Canceled)

	record, err := store.FindByAssetID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.ConversionStatusPending, record.Status)
}

func TestProcessor_SkipsWhenLocked(t *testing.T) {
	c := setupCache(t)
	acquired, err := c.AcquireLock(context.Background(), lockResource(3), time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	converter := new(MockConverter)
	p := &processor{
		assets:   assetMap{3: clip},
		status:   status.NewMemoryStore(),
		pipeline: converter,
		locks:    c,
		timeout:  time.Hour,
		logger:   logging.NewNopLogger(),
	}

	require.NoError(t, p.handle(context.Background(), models.ConversionJob{AssetID: 3}))
	converter.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestCacheProgress(t *testing.T) {
	c := setupCache(t)
	report := cacheProgress(c, time.Minute, logging.NewNopLogger())

	report(context.Background(), pipeline.Progress{
		AssetID:  3,
		State:    pipeline.StateProcessingVariants,
		Fraction: 2.0 / 7,
		Message:  "Encoding 480p stream...",
	})

	progress, err := c.GetProgress(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, "processing_variants", progress.State)
	assert.InDelta(t, 2.0/7, progress.Fraction, 1e-9)
	assert.Equal(t, "Encoding 480p stream...", progress.Message)
}
