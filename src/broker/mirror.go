package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"buildtrend/src/buildstore"
	"buildtrend/src/contracts"
)

// Mirror publishes a BuildEvent for every entry the crawler records.
// It satisfies buildstore.Mirror.
type Mirror struct {
	broker Broker
	topic  string
	job    string
	now    func() time.Time
}

// NewMirror creates a Mirror publishing to topic. job is copied into each event.
func NewMirror(b Broker, topic, job string) *Mirror {
	if topic == "" {
		topic = contracts.BuildsTopic
	}
	return &Mirror{broker: b, topic: topic, job: job, now: time.Now}
}

// Mirror publishes one event per entry, keyed by pull request number.
func (m *Mirror) Mirror(ctx context.Context, entries []buildstore.Entry) error {
	for _, e := range entries {
		event := contracts.BuildEvent{
			Start:       e.Start,
			URI:         e.URI,
			Duration:    e.Duration,
			PullRequest: e.PullRequest,
			Job:         m.job,
			RecordedAt:  m.now().UnixMilli(),
		}
		value, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal build event: %w", err)
		}
		if err := m.broker.Publish(ctx, m.topic, strconv.Itoa(e.PullRequest), value); err != nil {
			return fmt.Errorf("failed to publish build %s: %w", e.Start, err)
		}
	}
	return nil
}

// Close closes the underlying broker.
func (m *Mirror) Close() error {
	return m.broker.Close()
}

// DecodeBuildEvent parses a message produced by Mirror.
func DecodeBuildEvent(msg Message) (contracts.BuildEvent, error) {
	var event contracts.BuildEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return event, fmt.Errorf("failed to decode build event at offset %d: %w", msg.Offset, err)
	}
	return event, nil
}
