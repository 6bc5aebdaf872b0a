package pipeline

import (
	"errors"
	"fmt"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/publisher"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/transcoder"
)

// Error types surfaced by a run, re-exported for callers classifying failures
type (
	ProbeError     = transcoder.ProbeError
	TranscodeError = transcoder.TranscodeError
	PublishError   = publisher.PublishError
)

// SetupError reports that the working directory or the local source copy
// could not be prepared
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup failed: %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// StatusError reports a failed status transition
type StatusError struct {
	Status string
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to set status %s: %v", e.Status, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// ErrorKind classifies err for metrics and logs
func ErrorKind(err error) string {
	var (
		setupErr     *SetupError
		probeErr     *ProbeError
		transcodeErr *TranscodeError
		publishErr   *PublishError
		statusErr    *StatusError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &setupErr):
		return "setup"
	case errors.As(err, &probeErr):
		return "probe"
	case errors.As(err, &transcodeErr):
		return "transcode"
	case errors.As(err, &publishErr):
		return "publish"
	case errors.As(err, &statusErr):
		return "status"
	default:
		return "other"
	}
}
