package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hackathonwallah/logger"
)

const emailSendEvent = "email.send"

// EmailMessage is the email.send event carried on the e-mail topic.
type EmailMessage struct {
	Event     string `json:"event"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

// DeadLetterSink records messages that could not be delivered.
type DeadLetterSink interface {
	Store(ctx context.Context, topic, key string, value []byte, cause error) (string, error)
}

// Mailer queues e-mail on the bus when one is configured and sends inline
// otherwise. Undeliverable mail is parked in the dead-letter queue.
type Mailer struct {
	sender EmailSender
	bus    EventBus
	topic  string
	dlq    DeadLetterSink
}

// NewMailer builds a mailer. bus and dlq may be nil.
func NewMailer(sender EmailSender, bus EventBus, topic string, dlq DeadLetterSink) *Mailer {
	return &Mailer{sender: sender, bus: bus, topic: topic, dlq: dlq}
}

// Topic is the topic e-mail events are published to and dead-lettered under.
func (m *Mailer) Topic() string {
	return m.topic
}

// Send queues or sends one e-mail.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	msg := EmailMessage{
		Event:     emailSendEvent,
		Recipient: to,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error encoding email event: %w", err)
	}
	key := "email-" + to

	if m.bus != nil {
		err := m.bus.Publish(ctx, m.topic, key, value)
		if err == nil {
			logger.Debug("Email event queued for %s", to)
			return nil
		}
		logger.Warn("Failed to queue email for %s, sending inline: %v", to, err)
	}

	if err := m.Deliver(ctx, key, value); err != nil {
		m.deadLetter(ctx, key, value, err)
		return err
	}
	return nil
}

// Deliver decodes an email.send event and hands it to the SMTP sender.
func (m *Mailer) Deliver(ctx context.Context, key string, value []byte) error {
	var msg EmailMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("invalid email event: %w", err)
	}
	if msg.Event != "" && msg.Event != emailSendEvent {
		return fmt.Errorf("unexpected event %q on email topic", msg.Event)
	}
	if msg.Recipient == "" {
		return fmt.Errorf("email event has no recipient")
	}
	return m.sender.Send(msg.Recipient, msg.Subject, msg.Body)
}

// HandleMessage is the bus consumer for the e-mail topic. Failures are
// dead-lettered so the message is not lost when the offset is committed.
func (m *Mailer) HandleMessage(ctx context.Context, key string, value []byte) error {
	if err := m.Deliver(ctx, key, value); err != nil {
		m.deadLetter(ctx, key, value, err)
		return err
	}
	return nil
}

// Start subscribes the consumer when a bus is configured.
func (m *Mailer) Start(ctx context.Context) error {
	if m.bus == nil {
		return nil
	}
	return m.bus.Subscribe(ctx, m.topic, m.HandleMessage)
}

func (m *Mailer) deadLetter(ctx context.Context, key string, value []byte, cause error) {
	if m.dlq == nil {
		logger.Error("Email %s dropped: %v", key, cause)
		return
	}
	if _, err := m.dlq.Store(ctx, m.topic, key, value, cause); err != nil {
		logger.Error("Failed to dead-letter email %s: %v", key, err)
	}
}
