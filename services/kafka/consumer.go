package kafka

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"hackathonwallah/logger"

	"github.com/segmentio/kafka-go"
)

type consumer struct {
	reader *kafka.Reader
	cancel context.CancelFunc
	done   chan struct{}
}

func (c *consumer) stop() {
	c.cancel()
	<-c.done
	if err := c.reader.Close(); err != nil {
		logger.Error("Error closing consumer: %v", err)
	}
}

// Subscribe starts a consumer-group reader on topic and hands every message
// to handler until the bus is closed. The offset is committed once the
// handler returns. Handler errors are logged; handlers own their
// dead-lettering.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler func(ctx context.Context, key string, value []byte) error) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:          b.brokers,
		Topic:            topic,
		GroupID:          b.groupID,
		StartOffset:      kafka.LastOffset,
		CommitInterval:   time.Second,
		MaxBytes:         10e6,
		SessionTimeout:   20 * time.Second,
		ReadBackoffMin:   100 * time.Millisecond,
		ReadBackoffMax:   1 * time.Second,
		QueueCapacity:    100,
		RebalanceTimeout: 60 * time.Second,
	})

	runCtx, cancel := context.WithCancel(ctx)
	c := &consumer{reader: reader, cancel: cancel, done: make(chan struct{})}

	b.mu.Lock()
	b.consumers = append(b.consumers, c)
	b.mu.Unlock()

	go func() {
		defer close(c.done)
		consumeMessages(runCtx, topic, reader, handler)
	}()

	logger.Info("Kafka consumer started. Topic=%s, ConsumerGroup=%s", topic, b.groupID)
	return nil
}

// messageReader is the part of *kafka.Reader the consume loop uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

func consumeMessages(ctx context.Context, topic string, reader messageReader, handler func(ctx context.Context, key string, value []byte) error) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			// group coordinator is not ready yet during broker startup
			if strings.Contains(err.Error(), "Group Coordinator Not Available") {
				time.Sleep(500 * time.Millisecond)
				continue
			}
			logger.Warn("Kafka read error on %s: %v", topic, err)
			time.Sleep(time.Second)
			continue
		}

		if err := handler(ctx, string(msg.Key), msg.Value); err != nil {
			logger.Error("Error handling message from %s (key=%s): %v", msg.Topic, string(msg.Key), err)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Error committing offset %d on %s: %v", msg.Offset, msg.Topic, err)
		}
	}
}
