package transcoder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// DefaultBandwidth is used when a variant carries no bandwidth estimate
const DefaultBandwidth int64 = 2000000

// EstimateBandwidth converts a configured video bitrate in kbps to bits/sec
func EstimateBandwidth(videoBitrateKbps int) int64 {
	return int64(videoBitrateKbps) * 1000
}

// BuildMasterPlaylist assembles the master playlist text. Entries keep the
// order of results; RESOLUTION is written only when known.
func BuildMasterPlaylist(results []models.TranscodeResult) string {
	var content strings.Builder

	content.WriteString("#EXTM3U\n\n")

	for _, result := range results {
		bandwidth := result.EstimatedBandwidth
		if bandwidth <= 0 {
			bandwidth = DefaultBandwidth
		}

		content.WriteString(fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d", bandwidth))
		if result.ActualResolution != "" {
			content.WriteString(",RESOLUTION=" + result.ActualResolution)
		}
		content.WriteString("\n" + result.VariantName + ".m3u8\n\n")
	}

	return content.String()
}

// WriteMasterPlaylist writes the master playlist into dir and returns its path
func WriteMasterPlaylist(dir, content string) (string, error) {
	path := filepath.Join(dir, models.MasterPlaylistName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write master playlist: %w", err)
	}
	return path, nil
}
