// Package natsbus is the NATS implementation of the event bus.
package natsbus

import (
	"context"

	"hackathonwallah/logger"

	"github.com/nats-io/nats.go"
)

const (
	headerKey = "Msg-Key"
	queueName = "hackathonwallah"
)

// Bus publishes and queue-subscribes over a NATS connection.
type Bus struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// Connect dials NATS with an optional token.
func Connect(url, token string) (*Bus, error) {
	opts := []nats.Option{
		nats.Name("hackathonwallah"),
		nats.MaxReconnects(-1),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to NATS at %s", conn.ConnectedUrl())
	return &Bus{conn: conn}, nil
}

// Publish sends value on subject topic with key in a header.
func (b *Bus) Publish(ctx context.Context, topic, key string, value []byte) error {
	msg := nats.NewMsg(topic)
	msg.Header.Set(headerKey, key)
	msg.Data = value
	return b.conn.PublishMsg(msg)
}

// Subscribe joins the service queue group on topic so each message is
// handled by one instance.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler func(ctx context.Context, key string, value []byte) error) error {
	sub, err := b.conn.QueueSubscribe(topic, queueName, func(m *nats.Msg) {
		if err := handler(ctx, m.Header.Get(headerKey), m.Data); err != nil {
			logger.Error("Error handling NATS message on %s: %v", m.Subject, err)
		}
	})
	if err != nil {
		return err
	}
	b.subs = append(b.subs, sub)
	logger.Info("NATS subscription started. Subject=%s, Queue=%s", topic, queueName)
	return nil
}

// Close drains subscriptions and the connection.
func (b *Bus) Close() error {
	for _, s := range b.subs {
		_ = s.Unsubscribe()
	}
	return b.conn.Drain()
}
