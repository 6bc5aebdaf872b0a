package models

import "time"

// ConversionStatus is the single status record kept per asset
type ConversionStatus struct {
	ID          int64     `json:"id" db:"id"`
	AssetID     int64     `json:"asset_id" db:"asset_id"`
	Status      string    `json:"status" db:"status"`
	UID         string    `json:"uid" db:"uid"`
	DateCreated time.Time `json:"date_created" db:"date_created"`
	DateUpdated time.Time `json:"date_updated" db:"date_updated"`
}

// IsReady reports whether the HLS bundle may be served
func (s *ConversionStatus) IsReady() bool {
	return s != nil && s.Status == ConversionStatusCompleted
}

// ConversionStatus values
const (
	ConversionStatusPending    = "pending"
	ConversionStatusProcessing = "processing"
	ConversionStatusCompleted  = "completed"
	ConversionStatusFailed     = "failed"
)

// ValidConversionStatus reports whether s is a known status value
func ValidConversionStatus(s string) bool {
	switch s {
	case ConversionStatusPending, ConversionStatusProcessing,
		ConversionStatusCompleted, ConversionStatusFailed:
		return true
	}
	return false
}

// ConversionJob is the unit of work handed to a worker
type ConversionJob struct {
	AssetID     int64     `json:"asset_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}
