package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"buildtrend/src/broker"
	"buildtrend/src/buildstore"
	"buildtrend/src/contracts"
	"buildtrend/src/logger"
)

func TestFollowEvents_RecordsMirroredBuilds(t *testing.T) {
	b := broker.NewInMemoryBroker()
	ctx := context.Background()

	msgs, err := b.Subscribe(ctx, contracts.BuildsTopic, "follow-test")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	entries := []buildstore.Entry{
		{Start: "2018-08-20T10:15:00", Record: buildstore.Record{Duration: 2400, PullRequest: 151, URI: "https://ci.example.com/151/e2e-aws/1/"}},
		{Start: "2018-10-04T08:00:03", Record: buildstore.Record{Duration: 1500, PullRequest: 415, URI: "https://ci.example.com/415/e2e-aws/3/"}},
	}
	if err := broker.NewMirror(b, "", "e2e-aws/").Mirror(ctx, entries); err != nil {
		t.Fatalf("Mirror() error = %v", err)
	}
	// Garbage on the topic is skipped.
	if err := b.Publish(ctx, contracts.BuildsTopic, "1", []byte("not json")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	b.Close()

	store := buildstore.New(filepath.Join(t.TempDir(), "mirror.json"))
	n, err := followEvents(ctx, msgs, store, logger.NewSilentLogger())
	if err != nil {
		t.Fatalf("followEvents() error = %v", err)
	}
	if n != 2 {
		t.Errorf("followEvents() received %d builds, want 2", n)
	}

	saved, err := buildstore.Open(store.Path())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	r, ok := saved.Get("2018-10-04T08:00:03")
	if !ok || r.PullRequest != 415 || r.Duration != 1500 {
		t.Errorf("saved record = %+v, %v", r, ok)
	}
	if saved.Len() != 2 {
		t.Errorf("saved store has %d builds, want 2", saved.Len())
	}
}

func TestFollowEvents_LogOnly(t *testing.T) {
	msgs := make(chan broker.Message, 1)
	msgs <- broker.Message{Value: []byte(`{"start":"2018-10-04T08:00:03","duration":60,"pull_request":1}`)}
	close(msgs)

	n, err := followEvents(context.Background(), msgs, nil, logger.NewSilentLogger())
	if err != nil || n != 1 {
		t.Errorf("followEvents() = %d, %v, want 1, nil", n, err)
	}
}

func TestFollowEvents_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := followEvents(ctx, make(chan broker.Message), nil, logger.NewSilentLogger())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("followEvents() error = %v, want context.Canceled", err)
	}
}
