package kafka

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"hackathonwallah/logger"

	"github.com/segmentio/kafka-go"
)

// Bus publishes to and consumes from Kafka topics.
type Bus struct {
	brokers []string
	groupID string

	mu        sync.Mutex
	writer    *kafka.Writer
	consumers []*consumer
}

// NewBus creates a Kafka-backed bus and ensures topics exist in the background.
func NewBus(brokers []string, groupID string, topics ...string) *Bus {
	b := &Bus{brokers: brokers, groupID: groupID}
	b.writer = newWriter(brokers)
	ensureTopicsExist(brokers, topics)
	logger.Info("Kafka producer initialized. Brokers=%v, Topics=%v", brokers, topics)
	return b
}

func newWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		Async:        false,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
	}
}

// ensureTopicsExist creates Kafka topics if they don't already exist
// This runs in a background goroutine to avoid blocking initialization
func ensureTopicsExist(brokers []string, topics []string) {
	if len(brokers) == 0 || len(topics) == 0 {
		return
	}
	go func() {
		maxRetries := 5
		for attempt := 0; attempt < maxRetries; attempt++ {
			time.Sleep(time.Duration(math.Pow(2, float64(attempt))) * time.Second)

			conn, err := kafka.Dial("tcp", brokers[0])
			if err != nil {
				if attempt == maxRetries-1 {
					logger.Warn("Could not connect to Kafka broker for topic creation after %d attempts: %v", maxRetries, err)
				}
				continue
			}

			successCount := 0
			for _, topic := range topics {
				err := conn.CreateTopics(kafka.TopicConfig{
					Topic:             topic,
					NumPartitions:     1,
					ReplicationFactor: 1,
				})
				if err == nil || strings.Contains(err.Error(), "already exists") {
					successCount++
				}
			}
			conn.Close()

			if successCount >= len(topics) {
				return
			}
		}
	}()
}

// Publish writes value to topic, retrying with exponential backoff (3 attempts).
func (b *Bus) Publish(ctx context.Context, topic, key string, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		b.mu.Lock()
		writer := b.writer
		b.mu.Unlock()

		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := writer.WriteMessages(writeCtx, msg)
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		logger.Warn("Kafka publish attempt %d to %s failed: %v", attempt+1, topic, err)

		if attempt == 1 {
			// recreate the writer to drop stale broker metadata
			b.mu.Lock()
			_ = b.writer.Close()
			b.writer = newWriter(b.brokers)
			b.mu.Unlock()
		}
		if attempt < 2 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(math.Pow(2, float64(attempt))) * time.Second):
			}
		}
	}
	return lastErr
}

// Close stops consumers and flushes the writer.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.consumers {
		c.stop()
	}
	b.consumers = nil
	if b.writer != nil {
		return b.writer.Close()
	}
	return nil
}
