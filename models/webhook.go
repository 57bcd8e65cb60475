package models

import "time"

const (
	WebhookReceived  = "RECEIVED"
	WebhookCompleted = "COMPLETED"
	WebhookFailed    = "FAILED"
)

// WebhookLog is an audit row for an inbound gateway callback.
type WebhookLog struct {
	EventID          string    `json:"event_id"`
	Gateway          string    `json:"gateway"`
	EventType        string    `json:"event_type"`
	OrderID          string    `json:"order_id,omitempty"`
	SignatureValid   bool      `json:"signature_valid"`
	Payload          []byte    `json:"-"`
	ProcessingStatus string    `json:"processing_status"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	RetryCount       int       `json:"retry_count"`
	CreatedAt        time.Time `json:"created_at"`
}
