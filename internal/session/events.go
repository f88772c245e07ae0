// Package session owns the hub's canonical auth state: the event stream,
// the state controller and the gateway connectivity monitor.
package session

import (
	"sync"

	"audit-hub/internal/domain"
)

// Broker fans auth-change events out to all active subscribers. The auth
// façade publishes; the controller (and anything else interested) consumes.
// Implements domain.EventPublisher.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan domain.AuthEvent
	next   int
	closed bool
}

// NewBroker initialises an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[int]chan domain.AuthEvent),
	}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. The channel is buffered; a subscriber that falls behind
// loses events rather than blocking publishers.
func (b *Broker) Subscribe() (<-chan domain.AuthEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan domain.AuthEvent, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking.
func (b *Broker) Publish(event domain.AuthEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// slow subscriber, drop
		}
	}
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
