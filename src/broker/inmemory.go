package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// subscriberBuffer bounds each subscriber channel; Publish blocks when it is full.
const subscriberBuffer = 100

// subscriber is one Subscribe call. done is closed before ch so a blocked
// Publish can give up on it; ch is only closed under sendMu's write lock.
type subscriber struct {
	ch   chan Message
	done chan struct{}
	once sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// InMemoryBroker is the single-process test double for Broker. Every
// published message is delivered to every subscriber of the topic.
type InMemoryBroker struct {
	mu      sync.Mutex
	subs    map[string][]*subscriber
	offsets map[string]int64
	closed  bool

	// sendMu is held for reading while delivering and for writing while
	// closing subscriber channels.
	sendMu sync.RWMutex
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subs:    make(map[string][]*subscriber),
		offsets: make(map[string]int64),
	}
}

// Publish fans value out to the topic's current subscribers. Subscribers
// that leave while Publish waits on them are skipped.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("broker is closed")
	}
	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     value,
		Offset:    b.offsets[topic],
		Timestamp: time.Now().UnixMilli(),
	}
	b.offsets[topic]++
	subs := append([]*subscriber(nil), b.subs[topic]...)
	b.mu.Unlock()

	b.sendMu.RLock()
	defer b.sendMu.RUnlock()

	for _, s := range subs {
		select {
		case <-s.done:
			continue
		default:
		}
		select {
		case s.ch <- msg:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a new subscriber. The channel is closed when ctx is
// cancelled or the broker is closed.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	s := &subscriber{
		ch:   make(chan Message, subscriberBuffer),
		done: make(chan struct{}),
	}
	b.subs[topic] = append(b.subs[topic], s)

	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				b.unsubscribe(topic, s)
			case <-s.done:
			}
		}()
	}

	return s.ch, nil
}

func (b *InMemoryBroker) unsubscribe(topic string, s *subscriber) {
	b.mu.Lock()
	found := false
	subs := b.subs[topic]
	for i, c := range subs {
		if c == s {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			found = true
			break
		}
	}
	b.mu.Unlock()

	if found {
		b.release(s)
	}
}

// release stops s and closes its channel once no Publish is sending.
func (b *InMemoryBroker) release(s *subscriber) {
	s.stop()
	b.sendMu.Lock()
	close(s.ch)
	b.sendMu.Unlock()
}

// Close closes every subscriber channel.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	var all []*subscriber
	for topic, subs := range b.subs {
		all = append(all, subs...)
		delete(b.subs, topic)
	}
	b.mu.Unlock()

	// Stop every subscriber first so a Publish blocked on any of them returns.
	for _, s := range all {
		s.stop()
	}
	b.sendMu.Lock()
	for _, s := range all {
		close(s.ch)
	}
	b.sendMu.Unlock()
	return nil
}
