package transcoder

import "fmt"

// ProbeError reports that the media-inspection tool failed or produced no
// usable dimensions.
type ProbeError struct {
	Path   string
	Output string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("probe %s: %v: %s", e.Path, e.Err, e.Output)
	}
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// TranscodeError reports a non-zero encoder exit for one variant.
// Stderr holds the encoder's diagnostic output.
type TranscodeError struct {
	Variant string
	Stderr  string
	Err     error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("ffmpeg failed for variant %s: %v, stderr: %s", e.Variant, e.Err, e.Stderr)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
