package models

import "time"

// ConversionEvent is the payload describing a finished conversion
type ConversionEvent struct {
	AssetID     int64  `json:"asset_id"`
	AssetUID    string `json:"asset_uid"`
	Status      string `json:"status"`
	Variants    int    `json:"variants,omitempty"`
	PlaylistKey string `json:"playlist_key,omitempty"`
	Error       string `json:"error,omitempty"`
}

// WebhookEvent represents the payload sent to webhooks
type WebhookEvent struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Webhook event types
const (
	WebhookEventConversionCompleted = "conversion.completed"
	WebhookEventConversionFailed    = "conversion.failed"
)
