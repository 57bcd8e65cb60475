package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"hackathonwallah/errors"
	"hackathonwallah/logger"
	"hackathonwallah/models"
)

const autoRetryBatch = 10

// DeadLetterService stores failed messages and replays them through the
// handler registered for their topic.
type DeadLetterService struct {
	store DeadLetterStore
	bus   EventBus
	topic string

	mu       sync.RWMutex
	handlers map[string]MessageHandler
}

// NewDeadLetterService builds the service. When bus is set and topic is not
// empty every stored message is also mirrored to topic.
func NewDeadLetterService(store DeadLetterStore, bus EventBus, topic string) *DeadLetterService {
	return &DeadLetterService{
		store:    store,
		bus:      bus,
		topic:    topic,
		handlers: make(map[string]MessageHandler),
	}
}

// RegisterHandler sets the replay handler for messages from topic.
func (s *DeadLetterService) RegisterHandler(topic string, h MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[topic] = h
}

func (s *DeadLetterService) handler(topic string) (MessageHandler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[topic]
	return h, ok
}

// Store records a failed message and returns its id.
func (s *DeadLetterService) Store(ctx context.Context, topic, key string, value []byte, cause error) (string, error) {
	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}
	id, err := s.store.Store(ctx, topic, key, value, errMsg)
	if err != nil {
		return "", err
	}
	logger.WithFields(map[string]interface{}{"message_id": id, "topic": topic, "key": key}).
		Warn("Message dead-lettered: %s", errMsg)

	if s.bus != nil && s.topic != "" {
		mirror, _ := json.Marshal(map[string]interface{}{
			"message_id":     id,
			"original_topic": topic,
			"key":            key,
			"value":          string(value),
			"error":          errMsg,
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
		})
		if err := s.bus.Publish(ctx, s.topic, key, mirror); err != nil {
			logger.Warn("Failed to mirror dead letter %s to %s: %v", id, s.topic, err)
		}
	}
	return id, nil
}

// List returns unresolved messages, newest first.
func (s *DeadLetterService) List(ctx context.Context, limit int) ([]models.DeadLetter, error) {
	return s.store.ListUnresolved(ctx, limit)
}

// Stats summarises the queue.
func (s *DeadLetterService) Stats(ctx context.Context) (*models.DeadLetterStats, error) {
	return s.store.Stats(ctx)
}

// Resolve closes a message without replaying it.
func (s *DeadLetterService) Resolve(ctx context.Context, messageID, notes string) error {
	if notes == "" {
		notes = "resolved manually"
	}
	return s.store.Resolve(ctx, messageID, notes)
}

// Retry replays one message. The attempt is recorded either way; a failed
// replay is returned as an error.
func (s *DeadLetterService) Retry(ctx context.Context, messageID string) error {
	msg, err := s.store.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Resolved {
		return errors.E(errors.Conflict, "message is already resolved")
	}
	h, ok := s.handler(msg.Topic)
	if !ok {
		return errors.E(errors.Invalid, fmt.Sprintf("no handler registered for topic %q", msg.Topic))
	}

	if err := h(ctx, msg.Key, msg.Value); err != nil {
		if markErr := s.store.MarkRetried(ctx, messageID, false, err.Error()); markErr != nil {
			logger.Error("Failed to record retry of %s: %v", messageID, markErr)
		}
		return errors.E(errors.Internal, "retry failed", err)
	}
	logger.Info("Dead letter %s replayed on %s", messageID, msg.Topic)
	return s.store.MarkRetried(ctx, messageID, true, "retried successfully")
}

// RetryPending replays up to one batch of retryable messages and reports
// how many succeeded.
func (s *DeadLetterService) RetryPending(ctx context.Context) (int, error) {
	msgs, err := s.store.ListRetryable(ctx, autoRetryBatch)
	if err != nil {
		return 0, err
	}
	ok := 0
	for _, m := range msgs {
		if err := s.Retry(ctx, m.MessageID); err != nil {
			logger.Warn("Auto-retry of %s failed: %v", m.MessageID, err)
			continue
		}
		ok++
	}
	return ok, nil
}

// StartAutoRetry replays pending messages every interval until ctx is done.
func (s *DeadLetterService) StartAutoRetry(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		logger.Info("DLQ auto-retry started (every %s)", interval)
		for {
			select {
			case <-ctx.Done():
				logger.Info("DLQ auto-retry stopped")
				return
			case <-ticker.C:
				if n, err := s.RetryPending(ctx); err != nil {
					logger.Error("DLQ auto-retry: %v", err)
				} else if n > 0 {
					logger.Info("DLQ auto-retry replayed %d message(s)", n)
				}
			}
		}
	}()
}
