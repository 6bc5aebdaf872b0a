// Package status tracks the single conversion status record kept per asset.
package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// ErrInvalidStatus is returned for status values outside the known set
var ErrInvalidStatus = errors.New("invalid conversion status")

// Store persists conversion status. SetStatus upserts, so concurrent
// writers for one asset resolve to the last write. FindByAssetID returns
// nil, nil when no record exists.
type Store interface {
	SetStatus(ctx context.Context, assetID int64, status string) error
	FindByAssetID(ctx context.Context, assetID int64) (*models.ConversionStatus, error)
	DeleteByAssetID(ctx context.Context, assetID int64) error
}

// Validate returns ErrInvalidStatus for unknown values
func Validate(status string) error {
	if !models.ValidConversionStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}
