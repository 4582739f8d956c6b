// Package pubsub fans pipeline outcomes out to progress displays and
// other observers.
package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
)

// EventType says what happened to a design target.
type EventType string

const (
	Stored   EventType = "stored"
	Rejected EventType = "rejected"
	Failed   EventType = "failed"
)

// Event is one outcome as seen by a subscriber.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// subscriberBufferSize bounds how far a subscriber may lag before it
// starts missing events.
const subscriberBufferSize = 64

// Broker delivers outcomes to subscribers without ever blocking the
// publisher. Delivery is best effort: callers that need exact counts keep
// their own, and Dropped reports how many deliveries were skipped.
type Broker[T any] struct {
	mu      sync.RWMutex
	subs    map[chan Event[T]]struct{}
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

// NewBroker returns an open broker with no subscribers.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]struct{}),
		done: make(chan struct{}),
	}
}

// Subscribe registers a subscriber. Its channel is closed when ctx is
// cancelled or the broker is closed, whichever comes first. Subscribing to
// a closed broker returns an already closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	ch := make(chan Event[T], subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.unsubscribe(ch)
	}()

	return ch
}

func (b *Broker[T]) unsubscribe(ch chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish hands an event to every subscriber with room in its buffer.
// Publishing on a closed broker is a no-op.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	evt := Event[T]{Type: eventType, Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close ends every subscription once buffered events have been read.
// Close is idempotent.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broker[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *Broker[T]) Dropped() int64 {
	return b.dropped.Load()
}
