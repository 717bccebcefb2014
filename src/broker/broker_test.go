package broker

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"buildtrend/src/buildstore"
	"buildtrend/src/contracts"
)

func TestInMemoryBroker_PublishSubscribe(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()

	ctx := context.Background()
	topic := "test-topic"
	key := "test-key"
	value := []byte("test message")

	// Subscribe before publishing
	msgChan, err := broker.Subscribe(ctx, topic, "test-group")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Publish message
	if err := broker.Publish(ctx, topic, key, value); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Receive message
	select {
	case msg := <-msgChan:
		if msg.Topic != topic {
			t.Errorf("Expected topic %s, got %s", topic, msg.Topic)
		}
		if msg.Key != key {
			t.Errorf("Expected key %s, got %s", key, msg.Key)
		}
		if string(msg.Value) != string(value) {
			t.Errorf("Expected value %s, got %s", string(value), string(msg.Value))
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for message")
	}
}

func TestInMemoryBroker_MultipleSubscribers(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()

	ctx := context.Background()
	topic := "test-topic"

	// Create two subscribers
	sub1, err := broker.Subscribe(ctx, topic, "group1")
	if err != nil {
		t.Fatalf("Subscribe 1 failed: %v", err)
	}

	sub2, err := broker.Subscribe(ctx, topic, "group2")
	if err != nil {
		t.Fatalf("Subscribe 2 failed: %v", err)
	}

	// Publish message
	value := []byte("broadcast message")
	if err := broker.Publish(ctx, topic, "key", value); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Both subscribers should receive the message
	for i, sub := range []<-chan Message{sub1, sub2} {
		select {
		case msg := <-sub:
			if string(msg.Value) != string(value) {
				t.Errorf("Subscriber %d: expected value %s, got %s", i+1, string(value), string(msg.Value))
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("Subscriber %d: timeout waiting for message", i+1)
		}
	}
}

func TestInMemoryBroker_ClosedBroker(t *testing.T) {
	broker := NewInMemoryBroker()
	broker.Close()

	ctx := context.Background()

	// Publishing to closed broker should fail
	err := broker.Publish(ctx, "test", "key", []byte("value"))
	if err == nil {
		t.Error("Expected error when publishing to closed broker")
	}

	// Subscribing to closed broker should fail
	_, err = broker.Subscribe(ctx, "test", "group")
	if err == nil {
		t.Error("Expected error when subscribing to closed broker")
	}
}

func TestInMemoryBroker_TopicIsolation(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()

	ctx := context.Background()
	builds, _ := broker.Subscribe(ctx, "builds", "g")
	other, _ := broker.Subscribe(ctx, "other", "g")

	if err := broker.Publish(ctx, "builds", "151", []byte("x")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-builds:
		if msg.Offset != 0 {
			t.Errorf("Expected offset 0, got %d", msg.Offset)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for message")
	}

	select {
	case msg := <-other:
		t.Errorf("Unexpected message on other topic: %+v", msg)
	default:
	}
}

func TestInMemoryBroker_ContextCancelClosesChannel(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := broker.Subscribe(ctx, "builds", "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("Channel not closed after context cancel")
	}

	// Publishing after the subscriber left is a no-op.
	if err := broker.Publish(context.Background(), "builds", "1", []byte("x")); err != nil {
		t.Errorf("Publish after unsubscribe failed: %v", err)
	}
}

func TestInMemoryBroker_BlockedPublishReleasedByUnsubscribe(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := broker.Subscribe(ctx, "builds", "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := 0; i < subscriberBuffer; i++ {
		if err := broker.Publish(context.Background(), "builds", "k", []byte("x")); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}

	published := make(chan error, 1)
	go func() {
		published <- broker.Publish(context.Background(), "builds", "k", []byte("overflow"))
	}()
	cancel()

	select {
	case err := <-published:
		if err != nil {
			t.Errorf("blocked Publish returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Publish still blocked after the subscriber left")
	}

	n := 0
	for range ch {
		n++
	}
	if n != subscriberBuffer {
		t.Errorf("drained %d messages, want %d", n, subscriberBuffer)
	}
}

func TestInMemoryBroker_CloseDuringPublish(t *testing.T) {
	broker := NewInMemoryBroker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := broker.Subscribe(ctx, "builds", fmt.Sprintf("g%d", i)); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5*subscriberBuffer; i++ {
			if err := broker.Publish(ctx, "builds", "k", []byte("x")); err != nil {
				return
			}
		}
	}()

	if err := broker.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after Close")
	}
}

func TestMirror_PublishesBuildEvents(t *testing.T) {
	b := NewInMemoryBroker()
	ctx := context.Background()

	ch, err := b.Subscribe(ctx, contracts.BuildsTopic, "test")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	m := NewMirror(b, "", "e2e-aws/")
	m.now = func() time.Time { return time.UnixMilli(1234) }

	entries := []buildstore.Entry{
		{Start: "2018-08-20T10:15:00", Record: buildstore.Record{Duration: 2400, PullRequest: 151, URI: "https://ci.example.com/151/7/"}},
		{Start: "2018-08-20T12:00:00", Record: buildstore.Record{Duration: 2000, PullRequest: 151, URI: "https://ci.example.com/151/8/"}},
	}
	if err := m.Mirror(ctx, entries); err != nil {
		t.Fatalf("Mirror() error = %v", err)
	}

	for i, want := range entries {
		select {
		case msg := <-ch:
			if msg.Key != "151" {
				t.Errorf("event %d key = %q, want 151", i, msg.Key)
			}
			event, err := DecodeBuildEvent(msg)
			if err != nil {
				t.Fatalf("DecodeBuildEvent() error = %v", err)
			}
			if event.Start != want.Start || event.Duration != want.Duration || event.URI != want.URI {
				t.Errorf("event %d = %+v, want %+v", i, event, want)
			}
			if event.Job != "e2e-aws/" || event.RecordedAt != 1234 {
				t.Errorf("event %d job/recorded = %q/%d", i, event.Job, event.RecordedAt)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for event %d", i)
		}
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := b.Publish(ctx, "x", "", nil); err == nil {
		t.Error("Mirror.Close() should close the broker")
	}
}

func TestDecodeBuildEvent_Malformed(t *testing.T) {
	if _, err := DecodeBuildEvent(Message{Value: []byte("{")}); err == nil {
		t.Error("DecodeBuildEvent() expected error, got nil")
	}
}

func TestRedpandaBroker_RequiresAddress(t *testing.T) {
	if _, err := NewRedpandaBroker(nil, nil); err == nil {
		t.Error("NewRedpandaBroker() expected error for empty broker list")
	}
}

func TestRedpandaBroker_Integration(t *testing.T) {
	addr := os.Getenv("BUILDTREND_TEST_REDPANDA")
	if addr == "" {
		t.Skip("BUILDTREND_TEST_REDPANDA not set, skipping integration test")
	}

	b, err := NewRedpandaBroker([]string{addr}, nil)
	if err != nil {
		t.Fatalf("NewRedpandaBroker() error = %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	topic := fmt.Sprintf("buildtrend-test-%d", time.Now().UnixNano())
	ch, err := b.Subscribe(ctx, topic, topic+"-group")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := b.Publish(ctx, topic, "415", []byte(`{"start":"2018-10-04T08:00:03"}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-ch:
		if msg.Key != "415" {
			t.Errorf("Key = %q, want 415", msg.Key)
		}
	case <-ctx.Done():
		t.Fatal("Timeout waiting for message")
	}
}
