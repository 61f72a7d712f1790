// Package eventbus provides the in-process fan-out bus carrying job
// status updates from the messaging layer to whoever renders or awaits
// them. Delivery is non-blocking: a slow subscriber drops events instead
// of stalling the transport callback.
package eventbus

import (
	"sync"

	"github.com/kverlo/fieldday/core/jobs"
)

// Bus is a publish/subscribe bus for events of type T.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   []chan T
	closed bool
}

// JobStatusBus is the bus type used between infra/mqtt and the app.
type JobStatusBus = Bus[jobs.StatusEvent]

// New creates a new Bus.
func New[T any]() *Bus[T] { return &Bus[T]{} }

// NewJobStatus creates the bus for job status events.
func NewJobStatus() *JobStatusBus { return New[jobs.StatusEvent]() }

// Publish sends the event to all subscribers. Delivery is non-blocking.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, 8)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
