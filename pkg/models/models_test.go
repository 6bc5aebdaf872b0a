package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetCanStreamVideo(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{"video/mp4", true},
		{"video/quicktime", true},
		{"Video/MP4", true},
		{"image/png", false},
		{"audio/mpeg", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			asset := Asset{MimeType: tt.mimeType}
			assert.Equal(t, tt.want, asset.CanStreamVideo())
		})
	}
}

func TestAssetBaseName(t *testing.T) {
	assert.Equal(t, "holiday", Asset{Filename: "holiday.mp4"}.BaseName())
	assert.Equal(t, "clip.final", Asset{Filename: "uploads/clip.final.mov"}.BaseName())
	assert.Equal(t, "noext", Asset{Filename: "noext"}.BaseName())
}

func TestAssetHLSPrefix(t *testing.T) {
	asset := Asset{UID: "abc-123"}
	assert.Equal(t, "__hls__/abc-123/", asset.HLSPrefix("__hls__"))
	assert.Equal(t, "__hls__/abc-123/", asset.HLSPrefix("/__hls__/"))
	assert.Equal(t, "abc-123/", asset.HLSPrefix(""))
}

func TestAssetValidateUID(t *testing.T) {
	tests := []struct {
		uid   string
		valid bool
	}{
		{"9f0e7c1a-3b2d-4c5e-8f6a-7b8c9d0e1f2a", true},
		{"abc-123", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../uploads", false},
		{"a/b", false},
		{`a\b`, false},
	}

	for _, tt := range tests {
		t.Run(tt.uid, func(t *testing.T) {
			err := Asset{UID: tt.uid}.ValidateUID()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidUID)
			}
		})
	}
}

func TestBitrateTables(t *testing.T) {
	tests := []struct {
		height    int
		wantVideo int
		wantAudio int
	}{
		{1080, 5000, 128},
		{720, 3000, 128},
		{480, 1500, 96},
		{240, 800, 64},
		{144, 400, 64},
	}

	for _, tt := range tests {
		v := LadderVariant(tt.height)
		assert.Equal(t, tt.wantVideo, v.VideoBitrateKbps, "video bitrate for %d", tt.height)
		assert.Equal(t, tt.wantAudio, v.AudioBitrateKbps, "audio bitrate for %d", tt.height)
	}
}

func TestVariantNaming(t *testing.T) {
	v := LadderVariant(720)
	assert.Equal(t, "720p", v.Name)
	assert.Equal(t, "720p.m3u8", v.PlaylistName())
	assert.Equal(t, "720p_%03d.ts", v.SegmentPattern())

	src := SourceVariant(1088)
	assert.Equal(t, SourceVariantName, src.Name)
	assert.Equal(t, 1088, src.TargetHeight)
	assert.Equal(t, 8000, src.VideoBitrateKbps)
	assert.Equal(t, 192, src.AudioBitrateKbps)
}

func TestValidConversionStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "completed", "failed"} {
		assert.True(t, ValidConversionStatus(s), s)
	}
	assert.False(t, ValidConversionStatus("queued"))
	assert.False(t, ValidConversionStatus(""))
}

func TestConversionStatusIsReady(t *testing.T) {
	var missing *ConversionStatus
	assert.False(t, missing.IsReady())
	assert.False(t, (&ConversionStatus{Status: ConversionStatusProcessing}).IsReady())
	assert.True(t, (&ConversionStatus{Status: ConversionStatusCompleted}).IsReady())
}
