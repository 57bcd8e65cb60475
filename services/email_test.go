package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
)

func TestMailerQueuesOnBus(t *testing.T) {
	bus := &fakeBus{}
	sender := &fakeSender{}
	m := NewMailer(sender, bus, "emails", nil)

	if err := m.Send(context.Background(), "asha@example.com", "Hello", "<p>hi</p>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("mail should be queued, not sent inline")
	}
	if len(bus.published) != 1 || bus.published[0].Topic != "emails" || bus.published[0].Key != "email-asha@example.com" {
		t.Fatalf("published = %+v", bus.published)
	}
	var msg EmailMessage
	if err := json.Unmarshal(bus.published[0].Value, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != "email.send" || msg.Recipient != "asha@example.com" || msg.Subject != "Hello" {
		t.Errorf("message = %+v", msg)
	}

	// the consumer side delivers it
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := bus.handlers["emails"](context.Background(), bus.published[0].Key, bus.published[0].Value); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "asha@example.com" {
		t.Errorf("sent = %+v", sender.sent)
	}
}

func TestMailerFallsBackInline(t *testing.T) {
	bus := &fakeBus{PublishFunc: func(ctx context.Context, topic, key string, value []byte) error {
		return fmt.Errorf("broker unavailable")
	}}
	sender := &fakeSender{}
	m := NewMailer(sender, bus, "emails", nil)

	if err := m.Send(context.Background(), "asha@example.com", "Hello", "body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Error("mail should be sent inline when the bus rejects it")
	}
}

func TestMailerDeadLettersFailures(t *testing.T) {
	store := newFakeDeadLetters()
	dlq := NewDeadLetterService(store, nil, "")
	sender := &fakeSender{SendFunc: func(to, subject, body string) error { return fmt.Errorf("smtp down") }}
	m := NewMailer(sender, nil, "emails", dlq)

	if err := m.Send(context.Background(), "asha@example.com", "Hello", "body"); err == nil {
		t.Fatal("expected error")
	}
	if len(store.messages) != 1 {
		t.Fatalf("dead letters = %d", len(store.messages))
	}
	for _, msg := range store.messages {
		if msg.Topic != "emails" || msg.ErrorMessage != "smtp down" {
			t.Errorf("dead letter = %+v", msg)
		}
	}

	if err := m.HandleMessage(context.Background(), "k", []byte(`{"event":"email.send","recipient":"x@example.com"}`)); err == nil {
		t.Fatal("expected consumer error")
	}
	if len(store.messages) != 2 {
		t.Errorf("consumer failure should be dead-lettered, got %d", len(store.messages))
	}
}

func TestDeliverRejectsBadEvents(t *testing.T) {
	m := NewMailer(&fakeSender{}, nil, "emails", nil)
	for _, v := range []string{`not json`, `{"event":"lead.created","recipient":"a@b.co"}`, `{"event":"email.send"}`} {
		if err := m.Deliver(context.Background(), "k", []byte(v)); err == nil {
			t.Errorf("Deliver(%s) should fail", v)
		}
	}
	if err := m.Send(context.Background(), "", "s", "b"); err == nil {
		t.Error("empty recipient should fail")
	}
}
