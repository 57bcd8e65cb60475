// Package handlers holds the HTTP handlers of the public, user and admin API.
package handlers

import (
	"context"
	"net/http"

	"hackathonwallah/errors"
	"hackathonwallah/http/middleware"
	"hackathonwallah/http/response"
	"hackathonwallah/models"
	"hackathonwallah/services"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type ProfileAPI interface {
	Get(ctx context.Context, userID string) (*services.ProfileView, error)
	Update(ctx context.Context, userID string, in models.ProfileUpdate) (*services.ProfileView, error)
}

type CatalogAPI interface {
	List(ctx context.Context, f models.HackathonFilter) ([]models.Hackathon, error)
	Get(ctx context.Context, id string) (*models.Hackathon, error)
	GetBySlug(ctx context.Context, slug string) (*models.Hackathon, error)
	Create(ctx context.Context, in models.HackathonInput) (*models.Hackathon, error)
	Update(ctx context.Context, id string, in models.HackathonInput) (*models.Hackathon, error)
	Delete(ctx context.Context, id string) error
}

type RegistrationAPI interface {
	Register(ctx context.Context, user *models.User, hackathonID string, req services.RegistrationRequest) (*models.Participant, error)
	Get(ctx context.Context, user *models.User, hackathonID string) (*services.RegistrationView, error)
	Submit(ctx context.Context, user *models.User, hackathonID string, req services.SubmissionRequest) (*models.Participant, error)
}

type PaymentAPI interface {
	CreateOrder(ctx context.Context, user *models.User, req services.CreateOrderRequest) (*services.CreateOrderResult, error)
	Verify(ctx context.Context, user *models.User, orderID string) (*services.VerifyResult, error)
	Receipt(ctx context.Context, user *models.User, orderID string) ([]byte, string, error)
	RecordRefund(ctx context.Context, req services.RefundRequest) (*models.Payment, error)
}

type WebhookAPI interface {
	Handle(ctx context.Context, gatewayName string, body []byte, headers http.Header) error
}

type UserSyncAPI interface {
	Handle(ctx context.Context, body []byte, headers http.Header) (string, error)
}

type NotificationAPI interface {
	List(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type ContactAPI interface {
	Submit(ctx context.Context, req services.ContactRequest) (*models.Contact, error)
}

type RosterAPI interface {
	Export(ctx context.Context, hackathonID string) ([]byte, string, error)
}

type DeadLetterAPI interface {
	List(ctx context.Context, limit int) ([]models.DeadLetter, error)
	Retry(ctx context.Context, messageID string) error
	Resolve(ctx context.Context, messageID, notes string) error
	Stats(ctx context.Context) (*models.DeadLetterStats, error)
}

// Handler serves every API route. A nil service leaves its routes answering 500.
type Handler struct {
	Profiles      ProfileAPI
	Catalog       CatalogAPI
	Registrations RegistrationAPI
	Payments      PaymentAPI
	Webhooks      WebhookAPI
	UserSync      UserSyncAPI
	Notifications NotificationAPI
	Contacts      ContactAPI
	Roster        RosterAPI
	DeadLetters   DeadLetterAPI
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireUser returns the authenticated user or answers 401.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u := middleware.CurrentUser(r.Context())
	if u == nil {
		response.ErrorResponse(w, http.StatusUnauthorized, errors.CodeUnauthorized, "Authentication required.")
		return nil, false
	}
	return u, true
}

// uuidParam reads a uuid path parameter or answers 400.
func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, errors.CodeValidation, "Invalid "+label+" id.")
		return "", false
	}
	return id.String(), true
}
