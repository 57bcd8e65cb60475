package models

import (
	"encoding/json"
	"time"
)

// DeadLetter is a message that could not be delivered or processed.
type DeadLetter struct {
	MessageID    string          `json:"message_id"`
	Topic        string          `json:"topic"`
	Key          string          `json:"key"`
	Value        json.RawMessage `json:"value"`
	ErrorMessage string          `json:"error_message"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	Resolved     bool            `json:"resolved"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	LastRetryAt  *time.Time      `json:"last_retry_at,omitempty"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
}

// DeadLetterStats summarises the dead-letter table.
type DeadLetterStats struct {
	Total      int `json:"total_dlq_messages"`
	Unresolved int `json:"unresolved_messages"`
	Resolved   int `json:"resolved_messages"`
}
