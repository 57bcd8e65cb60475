package services

import (
	"context"

	"hackathonwallah/models"
)

// Storage interfaces consumed by the services. The repository package
// implements them against Postgres; tests use in-memory fakes.

type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpsertFromIdentity(ctx context.Context, in models.IdentityUser) (*models.User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
	UpdateProfile(ctx context.Context, id string, in models.ProfileUpdate) (*models.User, error)
}

type HackathonStore interface {
	List(ctx context.Context, f models.HackathonFilter) ([]models.Hackathon, error)
	GetByID(ctx context.Context, id string) (*models.Hackathon, error)
	GetBySlug(ctx context.Context, slug string) (*models.Hackathon, error)
	Create(ctx context.Context, h *models.Hackathon) (*models.Hackathon, error)
	Update(ctx context.Context, h *models.Hackathon) (*models.Hackathon, error)
	Delete(ctx context.Context, id string) error
}

// ParticipantStore returns (nil, nil) from Get when the user has not registered.
type ParticipantStore interface {
	Get(ctx context.Context, userID, hackathonID string) (*models.Participant, error)
	GetByID(ctx context.Context, id string) (*models.Participant, error)
	Create(ctx context.Context, p *models.Participant) (*models.Participant, error)
	Submit(ctx context.Context, id, url, description string) (*models.Participant, error)
	ListByHackathon(ctx context.Context, hackathonID string) ([]models.RosterEntry, error)
}

// PaymentStore returns (nil, nil) from GetActiveForParticipant when no
// checkout is open.
type PaymentStore interface {
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetActiveForParticipant(ctx context.Context, participantID string) (*models.Payment, error)
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	ApplyGatewayUpdate(ctx context.Context, upd models.PaymentUpdate) (*models.PaymentUpdateResult, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type ContactStore interface {
	Upsert(ctx context.Context, c *models.Contact) (*models.Contact, error)
}

type WebhookStore interface {
	Log(ctx context.Context, w *models.WebhookLog) error
	SetStatus(ctx context.Context, eventID, status, errMsg string) error
}

type DeadLetterStore interface {
	Store(ctx context.Context, topic, key string, value []byte, errMsg string) (string, error)
	ListUnresolved(ctx context.Context, limit int) ([]models.DeadLetter, error)
	ListRetryable(ctx context.Context, limit int) ([]models.DeadLetter, error)
	Get(ctx context.Context, messageID string) (*models.DeadLetter, error)
	MarkRetried(ctx context.Context, messageID string, succeeded bool, notes string) error
	Resolve(ctx context.Context, messageID, notes string) error
	Stats(ctx context.Context) (*models.DeadLetterStats, error)
}
