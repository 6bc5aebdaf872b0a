package models

import "fmt"

// VariantSpec describes one HLS rendition to produce
type VariantSpec struct {
	Name             string `json:"name"`
	TargetHeight     int    `json:"target_height"`
	VideoBitrateKbps int    `json:"video_bitrate_kbps"`
	AudioBitrateKbps int    `json:"audio_bitrate_kbps"`
}

// PlaylistName returns the variant playlist basename
func (v VariantSpec) PlaylistName() string {
	return v.Name + ".m3u8"
}

// SegmentPattern returns the ffmpeg segment filename pattern for the variant
func (v VariantSpec) SegmentPattern() string {
	return v.Name + "_%03d.ts"
}

// SourceVariantName names the synthetic variant encoded at the source height
const SourceVariantName = "source"

// Source variant bitrates
const (
	SourceVideoBitrateKbps = 8000
	SourceAudioBitrateKbps = 192
)

// VariantLadder is the fixed descending list of candidate heights
var VariantLadder = []int{1080, 720, 480, 240, 144}

// VideoBitrateForHeight returns the fixed video bitrate (kbps) for a ladder height
func VideoBitrateForHeight(height int) int {
	switch {
	case height >= 1080:
		return 5000
	case height >= 720:
		return 3000
	case height >= 480:
		return 1500
	case height >= 240:
		return 800
	default:
		return 400
	}
}

// AudioBitrateForHeight returns the fixed audio bitrate (kbps) for a ladder height
func AudioBitrateForHeight(height int) int {
	switch {
	case height >= 720:
		return 128
	case height >= 480:
		return 96
	default:
		return 64
	}
}

// LadderVariant builds the variant spec for a ladder height
func LadderVariant(height int) VariantSpec {
	return VariantSpec{
		Name:             fmt.Sprintf("%dp", height),
		TargetHeight:     height,
		VideoBitrateKbps: VideoBitrateForHeight(height),
		AudioBitrateKbps: AudioBitrateForHeight(height),
	}
}

// SourceVariant builds the variant spec for the native source height
func SourceVariant(sourceHeight int) VariantSpec {
	return VariantSpec{
		Name:             SourceVariantName,
		TargetHeight:     sourceHeight,
		VideoBitrateKbps: SourceVideoBitrateKbps,
		AudioBitrateKbps: SourceAudioBitrateKbps,
	}
}

// TranscodeResult holds the outcome of encoding one variant
type TranscodeResult struct {
	VariantName        string `json:"variant_name"`
	PlaylistPath       string `json:"playlist_path"`
	ActualResolution   string `json:"actual_resolution,omitempty"`
	EstimatedBandwidth int64  `json:"estimated_bandwidth"`
}
