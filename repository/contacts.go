package repository

import (
	"context"
	"database/sql"

	"hackathonwallah/errors"
	"hackathonwallah/models"
)

// ContactRepository stores contact-form submissions
type ContactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new contact repository instance
func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Upsert stores the message, replacing an earlier one from the same email.
func (r *ContactRepository) Upsert(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	var out models.Contact
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO contacts (name, email, phone, subject, message, status)
		VALUES ($1, $2, $3, $4, $5, 'new')
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			subject = EXCLUDED.subject,
			message = EXCLUDED.message,
			status = 'new',
			updated_at = NOW()
		RETURNING id, name, email, COALESCE(phone, ''), subject, message, status, created_at, updated_at`,
		c.Name, c.Email, nullString(c.Phone), c.Subject, c.Message).
		Scan(&out.ID, &out.Name, &out.Email, &out.Phone, &out.Subject, &out.Message, &out.Status, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, errors.FromDB(err, "save contact")
	}
	return &out, nil
}
