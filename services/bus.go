package services

import (
	"context"

	"hackathonwallah/config"
	"hackathonwallah/logger"
	"hackathonwallah/services/kafka"
	"hackathonwallah/services/natsbus"
)

// MessageHandler processes one message consumed from a topic.
type MessageHandler = func(ctx context.Context, key string, value []byte) error

// EventBus is the publish/subscribe transport behind e-mail delivery,
// payment events and the dead-letter mirror.
type EventBus interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error
	Close() error
}

const (
	EventBusKafka = "kafka"
	EventBusNats  = "nats"
	EventBusNone  = "none"
)

// NewEventBus connects the bus selected by cfg.EventBus. It returns a nil
// bus when none is configured, in which case callers work synchronously.
func NewEventBus(cfg config.Config) (EventBus, error) {
	switch cfg.EventBus {
	case EventBusKafka:
		logger.Info("Using Kafka event bus at %s", cfg.KafkaBrokers)
		return kafka.NewBus(cfg.KafkaBrokerList(), cfg.KafkaGroupID,
			cfg.KafkaEmailTopic, cfg.KafkaPaymentTopic, cfg.KafkaDLQTopic), nil
	case EventBusNats:
		logger.Info("Using NATS event bus at %s", cfg.NatsURL)
		bus, err := natsbus.Connect(cfg.NatsURL, cfg.NatsToken)
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		logger.Info("No event bus configured, e-mail is sent inline")
		return nil, nil
	}
}
