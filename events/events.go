// Package events distributes session and app lifecycle notifications
// to in-process subscribers and connected websocket clients.
package events

import (
	"sync"
	"time"
)

// Event is one lifecycle notification.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Bus is an in-process publish/subscribe fanout. Slow subscribers drop
// events instead of blocking publishers.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Publish delivers an event to every subscriber.
func (b *Bus) Publish(eventType string, payload interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up.
		}
	}
}

// Subscribe registers a new subscriber channel.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 64)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	_, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()

	if ok {
		close(ch)
	}
}
