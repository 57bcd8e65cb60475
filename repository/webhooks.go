package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"hackathonwallah/errors"
	"hackathonwallah/models"
)

// WebhookRepository keeps an audit trail of gateway callbacks
type WebhookRepository struct {
	db *sql.DB
}

// NewWebhookRepository creates a new webhook repository instance
func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// Log records a delivery. A redelivery of the same event id bumps retry_count.
func (r *WebhookRepository) Log(ctx context.Context, w *models.WebhookLog) error {
	var payload interface{}
	if json.Valid(w.Payload) {
		payload = string(w.Payload)
	}
	status := w.ProcessingStatus
	if status == "" {
		status = models.WebhookReceived
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_webhooks (event_id, gateway, event_type, order_id, signature_valid, payload, processing_status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
		ON CONFLICT (event_id) DO UPDATE SET
			retry_count = payment_webhooks.retry_count + 1,
			signature_valid = EXCLUDED.signature_valid,
			processing_status = EXCLUDED.processing_status,
			error_message = EXCLUDED.error_message,
			updated_at = NOW()`,
		w.EventID, w.Gateway, nullString(w.EventType), nullString(w.OrderID), w.SignatureValid, payload, status, nullString(w.ErrorMessage))
	if err != nil {
		return errors.FromDB(err, "log webhook")
	}
	return nil
}

// SetStatus records the processing outcome of a delivery.
func (r *WebhookRepository) SetStatus(ctx context.Context, eventID, status, errMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_webhooks SET processing_status = $2, error_message = $3, updated_at = NOW()
		WHERE event_id = $1`, eventID, status, nullString(errMsg))
	if err != nil {
		return errors.FromDB(err, "update webhook status")
	}
	return nil
}
