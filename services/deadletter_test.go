package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"hackathonwallah/errors"
)

func TestDeadLetterStoreMirrors(t *testing.T) {
	store := newFakeDeadLetters()
	bus := &fakeBus{}
	s := NewDeadLetterService(store, bus, "dlq")

	id, err := s.Store(context.Background(), "emails", "email-a", []byte(`{"recipient":"a@b.co"}`), fmt.Errorf("smtp down"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if len(bus.published) != 1 || bus.published[0].Topic != "dlq" {
		t.Fatalf("published = %+v", bus.published)
	}
	var mirror map[string]interface{}
	_ = json.Unmarshal(bus.published[0].Value, &mirror)
	if mirror["message_id"] != id || mirror["original_topic"] != "emails" || mirror["error"] != "smtp down" {
		t.Errorf("mirror = %v", mirror)
	}
}

func TestDeadLetterRetry(t *testing.T) {
	ctx := context.Background()
	store := newFakeDeadLetters()
	s := NewDeadLetterService(store, nil, "")

	calls := 0
	s.RegisterHandler("emails", func(ctx context.Context, key string, value []byte) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("still down")
		}
		return nil
	})

	id, _ := s.Store(ctx, "emails", "k", []byte(`{}`), fmt.Errorf("boom"))

	if err := s.Retry(ctx, id); errors.KindOf(err) != errors.Internal {
		t.Fatalf("first retry err = %v", err)
	}
	if store.messages[id].RetryCount != 1 || store.messages[id].Resolved {
		t.Errorf("after failed retry: %+v", store.messages[id])
	}

	if err := s.Retry(ctx, id); err != nil {
		t.Fatalf("second retry: %v", err)
	}
	if !store.messages[id].Resolved {
		t.Error("successful retry should resolve")
	}

	if err := s.Retry(ctx, id); errors.KindOf(err) != errors.Conflict {
		t.Errorf("retry of resolved err = %v", err)
	}
	if err := s.Retry(ctx, "missing"); errors.KindOf(err) != errors.NotFound {
		t.Errorf("retry of missing err = %v", err)
	}

	orphan, _ := s.Store(ctx, "unknown-topic", "k", []byte(`{}`), nil)
	if err := s.Retry(ctx, orphan); errors.KindOf(err) != errors.Invalid {
		t.Errorf("retry without handler err = %v", err)
	}
}

func TestRetryPending(t *testing.T) {
	ctx := context.Background()
	store := newFakeDeadLetters()
	s := NewDeadLetterService(store, nil, "")
	s.RegisterHandler("emails", func(ctx context.Context, key string, value []byte) error {
		if key == "bad" {
			return fmt.Errorf("nope")
		}
		return nil
	})

	s.Store(ctx, "emails", "good", []byte(`{}`), nil)
	s.Store(ctx, "emails", "bad", []byte(`{}`), nil)
	exhausted, _ := s.Store(ctx, "emails", "good", []byte(`{}`), nil)
	store.messages[exhausted].RetryCount = store.messages[exhausted].MaxRetries

	n, err := s.RetryPending(ctx)
	if err != nil {
		t.Fatalf("RetryPending: %v", err)
	}
	if n != 1 {
		t.Errorf("replayed = %d, want 1", n)
	}
	if _, ok := store.retried[exhausted]; ok {
		t.Error("exhausted message must not be retried")
	}

	stats, _ := s.Stats(ctx)
	if stats.Total != 3 || stats.Resolved != 1 || stats.Unresolved != 2 {
		t.Errorf("stats = %+v", stats)
	}

	if err := s.Resolve(ctx, exhausted, ""); err != nil {
		t.Fatal(err)
	}
	if store.messages[exhausted].Notes != "resolved manually" {
		t.Errorf("notes = %q", store.messages[exhausted].Notes)
	}
}
