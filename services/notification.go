package services

import (
	"context"

	"hackathonwallah/logger"
	"hackathonwallah/models"
)

const (
	DefaultNotificationLimit = 25
	MaxNotificationLimit     = 100
)

// EmailQueue accepts outgoing e-mail.
type EmailQueue interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationService records in-app notifications and mails their e-mail
// counterpart.
type NotificationService struct {
	users  UserStore
	store  NotificationStore
	mailer EmailQueue
}

func NewNotificationService(users UserStore, store NotificationStore, mailer EmailQueue) *NotificationService {
	return &NotificationService{users: users, store: store, mailer: mailer}
}

// Dispatch renders t for the user and delivers it. It never fails the
// caller: problems are logged, and undeliverable mail goes to the
// dead-letter queue through the mailer.
func (s *NotificationService) Dispatch(ctx context.Context, userID string, t Template, data TemplateData) {
	log := logger.WithFields(map[string]interface{}{"user_id": userID, "template": string(t)})

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Warn("Skipping notification, user not loaded: %v", err)
		return
	}
	if data.Name == "" {
		data.Name = user.Name
	}

	rendered, err := Render(t, data)
	if err != nil {
		log.Error("Failed to render notification: %v", err)
		return
	}

	if _, err := s.store.Create(ctx, &models.Notification{
		UserID:    user.ID,
		Title:     rendered.Title,
		Message:   rendered.Message,
		Type:      rendered.Type,
		ActionURL: data.ActionURL,
	}); err != nil {
		log.Error("Failed to store notification: %v", err)
	}

	if s.mailer == nil || user.Email == "" {
		return
	}
	if err := s.mailer.Send(ctx, user.Email, rendered.EmailSubject, rendered.EmailBody); err != nil {
		log.Error("Failed to send notification email: %v", err)
	}
}

// List returns the user's latest notifications. limit is clamped to
// [1, MaxNotificationLimit].
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}
	return s.store.ListForUser(ctx, userID, limit)
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.store.MarkRead(ctx, id, userID)
}
