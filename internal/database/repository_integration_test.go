//go:build postgres

package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/status"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

func openTestRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("STREAMINGVIDEO_TEST_DSN")
	if dsn == "" {
		t.Skip("STREAMINGVIDEO_TEST_DSN not set")
	}

	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE assets, streaming_video_conversion_status RESTART IDENTITY`)
	require.NoError(t, err)

	return NewRepository(db)
}

func TestRepository_Assets(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	asset := &models.Asset{UID: "a1b2", Filename: "clip.mp4", MimeType: "video/mp4", SourceKey: "uploads/clip.mp4"}
	require.NoError(t, repo.UpsertAsset(ctx, asset))
	require.NotZero(t, asset.ID)

	got, err := repo.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset, got)

	asset.Filename = "clip-v2.mp4"
	id := asset.ID
	require.NoError(t, repo.UpsertAsset(ctx, asset))
	assert.Equal(t, id, asset.ID)

	require.NoError(t, repo.DeleteAsset(ctx, asset.ID))
	_, err = repo.GetAsset(ctx, asset.ID)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestRepository_StatusUpsert(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	record, err := repo.FindByAssetID(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, record)

	require.NoError(t, repo.SetStatus(ctx, 10, models.ConversionStatusPending))
	first, err := repo.FindByAssetID(ctx, 10)
	require.NoError(t, err)

	require.NoError(t, repo.SetStatus(ctx, 10, models.ConversionStatusCompleted))
	latest, err := repo.FindByAssetID(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, models.ConversionStatusCompleted, latest.Status)
	assert.Equal(t, first.ID, latest.ID)
	assert.Equal(t, first.UID, latest.UID)
	assert.False(t, latest.DateUpdated.Before(first.DateUpdated))

	assert.ErrorIs(t, repo.SetStatus(ctx, 10, "bogus"), status.ErrInvalidStatus)

	require.NoError(t, repo.DeleteByAssetID(ctx, 10))
	record, err = repo.FindByAssetID(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRepository_ConcurrentStatusWriters(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.SetStatus(ctx, 11, models.ConversionStatusProcessing))
		}()
	}
	wg.Wait()

	var count int
	require.NoError(t, repo.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM streaming_video_conversion_status WHERE asset_id = $1`, 11).Scan(&count))
	assert.Equal(t, 1, count)
}
