package kafka

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeReader struct {
	mu       sync.Mutex
	pending  []kafka.Message
	events   []string
	drained  chan struct{}
	notified bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{pending: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		msg := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return msg, nil
	}
	if !r.notified {
		r.notified = true
		close(r.drained)
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.events = append(r.events, "commit:"+string(m.Key))
	}
	return nil
}

func (r *fakeReader) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func TestConsumeCommitsAfterHandler(t *testing.T) {
	reader := newFakeReader(
		kafka.Message{Topic: "emails", Key: []byte("a"), Value: []byte(`{"to":"a@example.com"}`), Offset: 1},
		kafka.Message{Topic: "emails", Key: []byte("b"), Value: []byte(`{"to":"b@example.com"}`), Offset: 2},
	)
	handler := func(ctx context.Context, key string, value []byte) error {
		reader.record("handle:" + key)
		if key == "b" {
			return fmt.Errorf("smtp down")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumeMessages(ctx, "emails", reader, handler)
	}()

	<-reader.drained
	cancel()
	<-done

	want := []string{"handle:a", "commit:a", "handle:b", "commit:b"}
	if fmt.Sprint(reader.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", reader.events, want)
	}
}
