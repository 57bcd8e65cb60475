package services

import (
	"context"
	"strings"

	"hackathonwallah/logger"
	"hackathonwallah/models"
	"hackathonwallah/utils"
)

// ContactAcknowledgement is returned to the visitor after a contact message.
const ContactAcknowledgement = "Thanks for reaching out. Our team will get back to you within 2-3 business days."

// ContactRequest is the public contact form.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactService struct {
	store ContactStore
}

func NewContactService(store ContactStore) *ContactService {
	return &ContactService{store: store}
}

// Submit validates the form and stores it, one row per e-mail address.
func (s *ContactService) Submit(ctx context.Context, req ContactRequest) (*models.Contact, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	v := utils.NewValidator()
	v.Length("name", req.Name, 1, 150)
	v.Email("email", req.Email)
	v.MaxLength("email", req.Email, 255)
	if req.Phone != "" {
		v.Length("phone", req.Phone, 7, 32)
	}
	v.Length("subject", req.Subject, 1, 200)
	v.Length("message", req.Message, 1, 2000)
	if err := v.Err(); err != nil {
		return nil, err
	}

	c, err := s.store.Upsert(ctx, &models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
		Status:  "new",
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Contact message stored for %s", c.Email)
	return c, nil
}
