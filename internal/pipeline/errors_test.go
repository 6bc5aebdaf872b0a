package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"setup", &SetupError{Op: "create working directory", Err: cause}, "setup"},
		{"probe", &ProbeError{Path: "in.mp4", Err: cause}, "probe"},
		{"transcode", &TranscodeError{Variant: "720p", Err: cause}, "transcode"},
		{"publish", &PublishError{Path: "720p.m3u8", Attempts: 3, Err: cause}, "publish"},
		{"status", &StatusError{Status: "completed", Err: cause}, "status"},
		{"wrapped", fmt.Errorf("run: %w", &TranscodeError{Variant: "source", Err: cause}), "transcode"},
		{"other", cause, "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("disk full")

	assert.ErrorIs(t, &SetupError{Op: "copy source file", Err: cause}, cause)
	assert.ErrorIs(t, &StatusError{Status: "failed", Err: cause}, cause)
	assert.Contains(t, (&SetupError{Op: "copy source file", Err: cause}).Error(), "copy source file")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "processing_variants", StateProcessingVariants.String())
	assert.Equal(t, "publishing_manifest", StatePublishingManifest.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(99).String())
}
