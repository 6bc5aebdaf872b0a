package transcoder

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// ScaleFilter returns the ffmpeg scale filter for a target height. Width
// follows the aspect ratio and both dimensions stay even.
func ScaleFilter(height int) string {
	return fmt.Sprintf("scale=-2:%d:force_original_aspect_ratio=decrease:force_divisible_by=2", height)
}

// VariantArgs builds the ffmpeg arguments producing one HLS rendition
func (f *FFmpeg) VariantArgs(inputPath string, variant models.VariantSpec, workDir string) []string {
	args := []string{
		"-y",
		"-i", inputPath,
		"-vf", ScaleFilter(variant.TargetHeight),
		"-c:v", f.opts.VideoCodec,
		"-b:v", fmt.Sprintf("%dk", variant.VideoBitrateKbps),
	}

	if f.opts.Preset != "" {
		args = append(args, "-preset", f.opts.Preset)
	}

	args = append(args,
		"-c:a", f.opts.AudioCodec,
		"-b:a", fmt.Sprintf("%dk", variant.AudioBitrateKbps),
		"-ac", strconv.Itoa(f.opts.Channels),
		"-ar", strconv.Itoa(f.opts.SampleRate),
		"-hls_time", strconv.Itoa(f.opts.SegmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(workDir, variant.SegmentPattern()),
		filepath.Join(workDir, variant.PlaylistName()),
	)

	return args
}

// TranscodeVariant encodes a single variant into workDir and returns the
// path of its playlist. Segments are written next to the playlist.
func (f *FFmpeg) TranscodeVariant(ctx context.Context, inputPath string, variant models.VariantSpec, workDir string) (string, error) {
	args := f.VariantArgs(inputPath, variant, workDir)

	if _, stderr, err := f.runner.Run(ctx, f.ffmpegPath, args...); err != nil {
		return "", &TranscodeError{
			Variant: variant.Name,
			Stderr:  strings.TrimSpace(string(stderr)),
			Err:     err,
		}
	}

	return filepath.Join(workDir, variant.PlaylistName()), nil
}
