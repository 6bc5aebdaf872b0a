package transcoder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

func TestBuildMasterPlaylist(t *testing.T) {
	results := []models.TranscodeResult{
		{VariantName: "720p", ActualResolution: "1280x720", EstimatedBandwidth: 3000000},
		{VariantName: "source", ActualResolution: "1280x720", EstimatedBandwidth: 8000000},
	}

	want := "#EXTM3U\n\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1280x720\n720p.m3u8\n\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=8000000,RESOLUTION=1280x720\nsource.m3u8\n\n"

	assert.Equal(t, want, BuildMasterPlaylist(results))
}

func TestBuildMasterPlaylist_MissingResolutionAndBandwidth(t *testing.T) {
	results := []models.TranscodeResult{
		{VariantName: "144p"},
	}

	want := "#EXTM3U\n\n#EXT-X-STREAM-INF:BANDWIDTH=2000000\n144p.m3u8\n\n"
	assert.Equal(t, want, BuildMasterPlaylist(results))
}

func TestBuildMasterPlaylist_Deterministic(t *testing.T) {
	results := []models.TranscodeResult{
		{VariantName: "480p", ActualResolution: "854x480", EstimatedBandwidth: 1500000},
		{VariantName: "240p", EstimatedBandwidth: 800000},
	}

	first := BuildMasterPlaylist(results)
	second := BuildMasterPlaylist(results)
	assert.Equal(t, first, second)
	assert.Less(t, strings.Index(first, "480p.m3u8"), strings.Index(first, "240p.m3u8"))
}

func TestBuildMasterPlaylist_Empty(t *testing.T) {
	assert.Equal(t, "#EXTM3U\n\n", BuildMasterPlaylist(nil))
}

func TestEstimateBandwidth(t *testing.T) {
	assert.Equal(t, int64(5000000), EstimateBandwidth(5000))
	assert.Equal(t, int64(0), EstimateBandwidth(0))
}

func TestWriteMasterPlaylist(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteMasterPlaylist(dir, "#EXTM3U\n\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "master.m3u8"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n\n", string(content))
}

func TestWriteMasterPlaylist_MissingDir(t *testing.T) {
	_, err := WriteMasterPlaylist(filepath.Join(t.TempDir(), "gone"), "#EXTM3U\n\n")
	assert.Error(t, err)
}
