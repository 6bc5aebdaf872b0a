package pipeline

import "context"

// State is the position of a run in its lifecycle
type State int

const (
	StateIdle State = iota
	StateProbing
	StateProcessingVariants
	StatePublishingManifest
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateProcessingVariants:
		return "processing_variants"
	case StatePublishingManifest:
		return "publishing_manifest"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is one progress report. Fraction is completed steps over total
// steps, where total is the variant count plus one for the manifest.
type Progress struct {
	AssetID  int64
	State    State
	Variant  string
	Step     int
	Total    int
	Fraction float64
	Message  string
}

// ProgressFunc receives progress reports. It must not block for long.
type ProgressFunc func(ctx context.Context, p Progress)
