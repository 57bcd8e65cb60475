package repository

import (
	"context"
	"database/sql"

	"hackathonwallah/errors"
	"hackathonwallah/models"
)

const notificationColumns = `id, user_id, title, message, type, is_read, COALESCE(action_url, ''), created_at`

// NotificationRepository stores in-app notifications
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository instance
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func scanNotification(row scanner) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.ActionURL, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a notification row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	created, err := scanNotification(r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, action_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+notificationColumns,
		n.UserID, n.Title, n.Message, string(n.Type), nullString(n.ActionURL)))
	if err != nil {
		return nil, errors.FromDB(err, "create notification")
	}
	return created, nil
}

// ListForUser returns the newest notifications first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, errors.FromDB(err, "list notifications")
	}
	defer rows.Close()

	list := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.FromDB(err, "scan notification")
		}
		list = append(list, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.FromDB(err, "list notifications")
	}
	return list, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.FromDB(err, "mark notification read")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.E(errors.NotFound, "notification: not found")
	}
	return nil
}
