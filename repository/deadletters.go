package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"hackathonwallah/errors"
	"hackathonwallah/models"
)

const deadLetterColumns = `message_id, topic, COALESCE(key, ''), COALESCE(value, '{}'::jsonb), COALESCE(error_message, ''),
	retry_count, max_retries, resolved, COALESCE(notes, ''), created_at, last_retry_at, resolved_at`

// DeadLetterRepository persists messages that failed delivery or processing
type DeadLetterRepository struct {
	db         *sql.DB
	maxRetries int
}

// NewDeadLetterRepository creates a new dead-letter repository instance
func NewDeadLetterRepository(db *sql.DB, maxRetries int) *DeadLetterRepository {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &DeadLetterRepository{db: db, maxRetries: maxRetries}
}

func scanDeadLetter(row scanner) (*models.DeadLetter, error) {
	var d models.DeadLetter
	var value []byte
	var lastRetry, resolvedAt sql.NullTime
	err := row.Scan(&d.MessageID, &d.Topic, &d.Key, &value, &d.ErrorMessage,
		&d.RetryCount, &d.MaxRetries, &d.Resolved, &d.Notes, &d.CreatedAt, &lastRetry, &resolvedAt)
	if err != nil {
		return nil, err
	}
	d.Value = json.RawMessage(value)
	if lastRetry.Valid {
		t := lastRetry.Time
		d.LastRetryAt = &t
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		d.ResolvedAt = &t
	}
	return &d, nil
}

// Store inserts a dead letter. Non-JSON values are wrapped so they fit the
// jsonb column.
func (r *DeadLetterRepository) Store(ctx context.Context, topic, key string, value []byte, errMsg string) (string, error) {
	if !json.Valid(value) {
		wrapped, _ := json.Marshal(map[string]string{"raw": string(value)})
		value = wrapped
	}
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO dlq_messages (topic, key, value, error_message, max_retries)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		RETURNING message_id`,
		topic, key, string(value), errMsg, r.maxRetries).Scan(&id)
	if err != nil {
		return "", errors.FromDB(err, "store dead letter")
	}
	return id, nil
}

func (r *DeadLetterRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.DeadLetter, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.FromDB(err, "list dead letters")
	}
	defer rows.Close()

	list := []models.DeadLetter{}
	for rows.Next() {
		d, err := scanDeadLetter(rows)
		if err != nil {
			return nil, errors.FromDB(err, "scan dead letter")
		}
		list = append(list, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.FromDB(err, "list dead letters")
	}
	return list, nil
}

// ListUnresolved returns the newest unresolved messages.
func (r *DeadLetterRepository) ListUnresolved(ctx context.Context, limit int) ([]models.DeadLetter, error) {
	return r.list(ctx, `SELECT `+deadLetterColumns+` FROM dlq_messages
		WHERE resolved = FALSE ORDER BY created_at DESC LIMIT $1`, limit)
}

// ListRetryable returns the oldest unresolved messages that still have retries left.
func (r *DeadLetterRepository) ListRetryable(ctx context.Context, limit int) ([]models.DeadLetter, error) {
	return r.list(ctx, `SELECT `+deadLetterColumns+` FROM dlq_messages
		WHERE resolved = FALSE AND retry_count < max_retries ORDER BY created_at ASC LIMIT $1`, limit)
}

// Get loads one message.
func (r *DeadLetterRepository) Get(ctx context.Context, messageID string) (*models.DeadLetter, error) {
	d, err := scanDeadLetter(r.db.QueryRowContext(ctx,
		`SELECT `+deadLetterColumns+` FROM dlq_messages WHERE message_id = $1`, messageID))
	if err != nil {
		return nil, errors.FromDB(err, "dead letter")
	}
	return d, nil
}

// MarkRetried increments retry_count and resolves the message when the retry succeeded.
func (r *DeadLetterRepository) MarkRetried(ctx context.Context, messageID string, succeeded bool, notes string) error {
	query := `
		UPDATE dlq_messages
		SET retry_count = retry_count + 1, last_retry_at = NOW()
		WHERE message_id = $1`
	args := []interface{}{messageID}
	if succeeded {
		query = `
			UPDATE dlq_messages
			SET retry_count = retry_count + 1, last_retry_at = NOW(), resolved = TRUE, resolved_at = NOW(), notes = $2
			WHERE message_id = $1`
		args = append(args, notes)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.FromDB(err, "mark dead letter retried")
	}
	return nil
}

// Resolve closes a message without reprocessing it.
func (r *DeadLetterRepository) Resolve(ctx context.Context, messageID, notes string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dlq_messages SET resolved = TRUE, resolved_at = NOW(), notes = $2
		WHERE message_id = $1`, messageID, notes)
	if err != nil {
		return errors.FromDB(err, "resolve dead letter")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.E(errors.NotFound, "dead letter: not found")
	}
	return nil
}

// Stats counts messages by resolution.
func (r *DeadLetterRepository) Stats(ctx context.Context) (*models.DeadLetterStats, error) {
	var s models.DeadLetterStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE resolved = FALSE),
			COUNT(*) FILTER (WHERE resolved = TRUE)
		FROM dlq_messages`).Scan(&s.Total, &s.Unresolved, &s.Resolved)
	if err != nil {
		return nil, errors.FromDB(err, "dead letter stats")
	}
	return &s, nil
}
