package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/config"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

func setupLocalBackend(t *testing.T) (*LocalBackend, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "volume")
	backend, err := NewLocalBackend(root, "https://cdn.example.com/", t.TempDir())
	require.NoError(t, err)
	return backend, root
}

func TestLocalBackend_WriteAndList(t *testing.T) {
	backend, root := setupLocalBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.WriteFileFromStream(ctx, "__hls__/abc/720p.m3u8", strings.NewReader("#EXTM3U\n")))
	require.NoError(t, backend.WriteFileFromStream(ctx, "__hls__/abc/720p_000.ts", strings.NewReader("seg")))

	content, err := os.ReadFile(filepath.Join(root, "__hls__", "abc", "720p.m3u8"))
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n", string(content))

	files, err := backend.GetFileList(ctx, "__hls__/abc/")
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{
		{Basename: "720p.m3u8", Size: 8},
		{Basename: "720p_000.ts", Size: 3},
	}, files)
}

func TestLocalBackend_Overwrite(t *testing.T) {
	backend, _ := setupLocalBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.WriteFileFromStream(ctx, "a/master.m3u8", strings.NewReader("old")))
	require.NoError(t, backend.WriteFileFromStream(ctx, "a/master.m3u8", strings.NewReader("new")))

	files, err := backend.GetFileList(ctx, "a")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(3), files[0].Size)
}

func TestLocalBackend_ListMissingPrefix(t *testing.T) {
	backend, _ := setupLocalBackend(t)

	files, err := backend.GetFileList(context.Background(), "__hls__/missing/")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLocalBackend_DeleteFileAndDirectory(t *testing.T) {
	backend, root := setupLocalBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.WriteFileFromStream(ctx, "__hls__/abc/source.m3u8", strings.NewReader("x")))
	require.NoError(t, backend.WriteFileFromStream(ctx, "__hls__/abc/source_000.ts", strings.NewReader("x")))

	require.NoError(t, backend.DeleteFile(ctx, "__hls__/abc/source.m3u8"))
	assert.ErrorIs(t, backend.DeleteFile(ctx, "__hls__/abc/source.m3u8"), ErrNotFound)

	require.NoError(t, backend.DeleteDirectory(ctx, "__hls__/abc/"))
	assert.NoDirExists(t, filepath.Join(root, "__hls__", "abc"))
	assert.DirExists(t, filepath.Join(root, "__hls__"))
}

func TestLocalBackend_RejectsRoot(t *testing.T) {
	backend, root := setupLocalBackend(t)

	assert.ErrorIs(t, backend.DeleteDirectory(context.Background(), ""), ErrInvalidPath)
	assert.ErrorIs(t, backend.DeleteDirectory(context.Background(), ".."), ErrInvalidPath)
	assert.DirExists(t, root)
}

func TestLocalBackend_EscapeIsConfinedToRoot(t *testing.T) {
	backend, root := setupLocalBackend(t)

	require.NoError(t, backend.WriteFileFromStream(context.Background(), "../../escape.txt", strings.NewReader("x")))
	assert.FileExists(t, filepath.Join(root, "escape.txt"))
}

func TestLocalBackend_RootURL(t *testing.T) {
	backend, _ := setupLocalBackend(t)
	assert.Equal(t, "https://cdn.example.com", backend.RootURL())
}

func TestLocalBackend_CopyOfFile(t *testing.T) {
	backend, _ := setupLocalBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.WriteFileFromStream(ctx, "uploads/movie.mp4", strings.NewReader("video bytes")))

	asset := models.Asset{ID: 1, UID: "abc", Filename: "movie.mp4", MimeType: "video/mp4", SourceKey: "uploads/movie.mp4"}
	copyPath, err := backend.CopyOfFile(ctx, asset)
	require.NoError(t, err)
	defer os.Remove(copyPath)

	assert.Equal(t, ".mp4", filepath.Ext(copyPath))
	content, err := os.ReadFile(copyPath)
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(content))

	asset.SourceKey = "uploads/missing.mp4"
	_, err = backend.CopyOfFile(ctx, asset)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_Local(t *testing.T) {
	store, err := Open(config.StorageConfig{
		Driver:    "local",
		LocalRoot: t.TempDir(),
		RootURL:   "https://cdn.example.com",
	}, t.TempDir())
	require.NoError(t, err)

	_, ok := store.(*LocalBackend)
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example.com", store.RootURL())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.StorageConfig{Driver: "ftp"}, t.TempDir())
	assert.Error(t, err)
}
