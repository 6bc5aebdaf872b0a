package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpfile.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9191
  host: "127.0.0.1"

database:
  host: "testdb"
  dbname: "assets"

pipeline:
  namespace: "__streams__"
  concurrency: 2
  uploadBaseDelay: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "testdb", cfg.Database.Host)
	assert.Equal(t, "assets", cfg.Database.DBName)
	assert.Equal(t, "__streams__", cfg.Pipeline.Namespace)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.UploadBaseDelay)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, "__hls__", cfg.Pipeline.Namespace)
	assert.Equal(t, 6, cfg.Pipeline.SegmentSeconds)
	assert.Equal(t, 48000, cfg.Pipeline.AudioSampleRate)
	assert.Equal(t, 2, cfg.Pipeline.AudioChannels)
	assert.Equal(t, "libx264", cfg.Pipeline.VideoCodec)
	assert.Equal(t, "aac", cfg.Pipeline.AudioCodec)
	assert.Equal(t, 3, cfg.Pipeline.MaxUploadAttempts)
	assert.Equal(t, time.Second, cfg.Pipeline.UploadBaseDelay)
	assert.Equal(t, 4*time.Second, cfg.Pipeline.UploadMaxDelay)
	assert.Equal(t, 1, cfg.Pipeline.Concurrency)
	assert.Equal(t, "minio", cfg.Storage.Driver)
}

func TestLoadRejectsInvalidPipeline(t *testing.T) {
	_, err := Load(writeConfig(t, `
pipeline:
  maxUploadAttempts: 0
  segmentSeconds: 0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxUploadAttempts")
	assert.Contains(t, err.Error(), "segmentSeconds")
}

func TestLoadRejectsUnknownStorageDriver(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: ftp\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp")
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	assert.Error(t, err)
}
