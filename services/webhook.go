package services

import (
	"context"
	"net/http"

	"hackathonwallah/errors"
	"hackathonwallah/logger"
	"hackathonwallah/models"
	"hackathonwallah/services/gateway"
)

// Reconciler applies gateway-reported order states.
type Reconciler interface {
	Reconcile(ctx context.Context, st gateway.OrderStatus) (*models.PaymentUpdateResult, error)
}

// WebhookService authenticates, audits and applies payment gateway callbacks.
type WebhookService struct {
	gateway    gateway.Gateway
	log        WebhookStore
	reconciler Reconciler
}

func NewWebhookService(gw gateway.Gateway, log WebhookStore, reconciler Reconciler) *WebhookService {
	return &WebhookService{gateway: gw, log: log, reconciler: reconciler}
}

// Handle processes one callback addressed to gatewayName. Errors carry the
// status the gateway should see: client errors stop retries, internal
// errors invite them.
func (s *WebhookService) Handle(ctx context.Context, gatewayName string, body []byte, headers http.Header) error {
	if gatewayName != s.gateway.Name() {
		return errors.NewNotFoundError("no webhook endpoint for gateway " + gatewayName)
	}

	if err := s.gateway.VerifyWebhook(body, headers); err != nil {
		logger.Warn("Rejected %s webhook: %v", gatewayName, err)
		if errors.CodeOf(err) == errors.CodeInvalidSignature {
			s.audit(ctx, &models.WebhookLog{
				EventID:          gateway.FallbackEventID(gatewayName, body),
				Gateway:          gatewayName,
				EventType:        "unverified",
				Payload:          body,
				ProcessingStatus: models.WebhookFailed,
				ErrorMessage:     err.Error(),
			})
		}
		return err
	}

	event, err := s.gateway.ParseWebhook(body, headers)
	if err != nil {
		s.audit(ctx, &models.WebhookLog{
			EventID:          gateway.FallbackEventID(gatewayName, body),
			Gateway:          gatewayName,
			EventType:        "unparsed",
			SignatureValid:   true,
			Payload:          body,
			ProcessingStatus: models.WebhookFailed,
			ErrorMessage:     err.Error(),
		})
		return err
	}

	log := logger.WithFields(map[string]interface{}{
		"gateway":  gatewayName,
		"event_id": event.EventID,
		"event":    event.EventType,
		"order_id": event.OrderID,
	})
	log.Info("Webhook received")

	if err := s.log.Log(ctx, &models.WebhookLog{
		EventID:          event.EventID,
		Gateway:          gatewayName,
		EventType:        event.EventType,
		OrderID:          event.OrderID,
		SignatureValid:   true,
		Payload:          body,
		ProcessingStatus: models.WebhookReceived,
	}); err != nil {
		return err
	}

	if event.OrderID == "" {
		log.Info("Event not handled, acknowledging")
		s.setStatus(ctx, event.EventID, models.WebhookCompleted, "ignored")
		return nil
	}

	if _, err := s.reconciler.Reconcile(ctx, event.OrderStatus); err != nil {
		log.Error("Webhook processing failed: %v", err)
		s.setStatus(ctx, event.EventID, models.WebhookFailed, err.Error())
		return err
	}
	s.setStatus(ctx, event.EventID, models.WebhookCompleted, "")
	return nil
}

func (s *WebhookService) audit(ctx context.Context, w *models.WebhookLog) {
	if err := s.log.Log(ctx, w); err != nil {
		logger.Error("Failed to log webhook %s: %v", w.EventID, err)
	}
}

func (s *WebhookService) setStatus(ctx context.Context, eventID, status, msg string) {
	if len(msg) > 500 {
		msg = msg[:500]
	}
	if err := s.log.SetStatus(ctx, eventID, status, msg); err != nil {
		logger.Error("Failed to update webhook %s status: %v", eventID, err)
	}
}
