package transcoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FFmpeg wraps FFmpeg operations
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	runner      Runner
	opts        EncodeOptions
}

// EncodeOptions holds the fixed per-variant encoding policy
type EncodeOptions struct {
	VideoCodec     string
	AudioCodec     string
	Preset         string
	SegmentSeconds int
	SampleRate     int
	Channels       int
}

// DefaultEncodeOptions returns the standard HLS encoding policy
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		VideoCodec:     "libx264",
		AudioCodec:     "aac",
		SegmentSeconds: 6,
		SampleRate:     48000,
		Channels:       2,
	}
}

func (o EncodeOptions) withDefaults() EncodeOptions {
	def := DefaultEncodeOptions()
	if o.VideoCodec == "" {
		o.VideoCodec = def.VideoCodec
	}
	if o.AudioCodec == "" {
		o.AudioCodec = def.AudioCodec
	}
	if o.SegmentSeconds <= 0 {
		o.SegmentSeconds = def.SegmentSeconds
	}
	if o.SampleRate <= 0 {
		o.SampleRate = def.SampleRate
	}
	if o.Channels <= 0 {
		o.Channels = def.Channels
	}
	return o
}

// NewFFmpeg creates a new FFmpeg instance
func NewFFmpeg(ffmpegPath, ffprobePath string, runner Runner, opts EncodeOptions) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if runner == nil {
		runner = NewCommandRunner()
	}
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      runner,
		opts:        opts.withDefaults(),
	}
}

// Resolution is a pixel size of a video stream
type Resolution struct {
	Width  int
	Height int
}

// String formats the resolution as "WxH"
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

var errNoDimensions = errors.New("no dimension line in ffprobe output")

// ProbeResolution returns the width and height of the primary video stream.
// It works on source files as well as produced variant playlists.
func (f *FFmpeg) ProbeResolution(ctx context.Context, inputPath string) (Resolution, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0",
		inputPath,
	}

	stdout, stderr, err := f.runner.Run(ctx, f.ffprobePath, args...)
	if err != nil {
		return Resolution{}, &ProbeError{Path: inputPath, Output: strings.TrimSpace(string(stderr)), Err: err}
	}

	res, err := parseResolution(string(stdout))
	if err != nil {
		return Resolution{}, &ProbeError{Path: inputPath, Output: strings.TrimSpace(string(stdout)), Err: err}
	}

	return res, nil
}

// parseResolution reads the first non-empty "width,height" line
func parseResolution(output string) (Resolution, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(strings.TrimSuffix(line, ","), ",")
		if len(parts) < 2 {
			return Resolution{}, fmt.Errorf("unexpected ffprobe line %q", line)
		}

		width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Resolution{}, fmt.Errorf("parse width %q: %w", parts[0], err)
		}
		height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Resolution{}, fmt.Errorf("parse height %q: %w", parts[1], err)
		}
		if width <= 0 || height <= 0 {
			return Resolution{}, fmt.Errorf("invalid dimensions %dx%d", width, height)
		}

		return Resolution{Width: width, Height: height}, nil
	}

	return Resolution{}, errNoDimensions
}

// CheckAvailability verifies that the encoder binary can be executed
func (f *FFmpeg) CheckAvailability(ctx context.Context) error {
	if _, stderr, err := f.runner.Run(ctx, f.ffmpegPath, "-version"); err != nil {
		return fmt.Errorf("ffmpeg not available at %q: %w, stderr: %s", f.ffmpegPath, err, strings.TrimSpace(string(stderr)))
	}
	return nil
}
