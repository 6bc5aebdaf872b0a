package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "JSON format to stdout",
			config: Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name:   "Console format to stderr",
			config: Config{Level: "debug", Format: "console", Output: "stderr"},
		},
		{
			name:   "Invalid log level defaults to info",
			config: Config{Level: "invalid", Format: "json", Output: "stdout"},
		},
		{
			name:    "Unwritable file path",
			config:  Config{Level: "info", Format: "json", Output: "/nonexistent-dir/sub/log.txt"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("written to file")
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	line := strings.TrimSpace(buf.String())
	lines := strings.Split(line, "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestWithAssetAndVariant(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.DebugLevel)

	logger.WithAssetID(42).WithVariant("720p").Info("encoding")

	entry := decodeLine(t, &buf)
	assert.Equal(t, float64(42), entry["asset_id"])
	assert.Equal(t, "720p", entry["variant"])
	assert.Equal(t, "encoding", entry["message"])
}

func TestLogConversionEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)

	logger.LogConversionEvent(7, "completed", "completed", map[string]interface{}{"variants": 6})

	entry := decodeLine(t, &buf)
	assert.Equal(t, float64(7), entry["asset_id"])
	assert.Equal(t, "completed", entry["event"])
	assert.Equal(t, float64(6), entry["variants"])
}

func TestLogStorageOperationLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)

	logger.LogStorageOperation("upload", "__hls__/u/master.m3u8", 1, 10*time.Millisecond, nil)
	assert.Equal(t, "info", decodeLine(t, &buf)["level"])

	buf.Reset()
	logger.LogStorageOperation("upload", "__hls__/u/master.m3u8", 2, 10*time.Millisecond, errors.New("boom"))
	entry := decodeLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, float64(2), entry["attempt"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.WarnLevel)

	logger.Info("dropped")
	logger.Debug("dropped")
	assert.Empty(t, buf.String())

	logger.Warnf("kept %d", 1)
	assert.Contains(t, buf.String(), "kept 1")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.WithField("ignored", true).WarnWithErr("nothing happens", errors.New("ignored"))
}
