// Package bus fans session events out to subscribers such as websocket
// clients and the event log.
package bus

import (
	"sync"
	"time"
)

// Event is one session change.
type Event struct {
	Name    string    `json:"event"`
	Owner   string    `json:"-"` // connection or reader that owns the session
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// EventHandler receives events. Handlers must not block.
type EventHandler func(Event)

// EventBus broadcasts events to subscribers.
type EventBus struct {
	subscribers map[string]EventHandler
	subMu       sync.RWMutex
}

func New() *EventBus {
	return &EventBus{subscribers: make(map[string]EventHandler)}
}

// Subscribe registers an event subscriber under id, replacing any previous one.
func (b *EventBus) Subscribe(id string, handler EventHandler) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subscribers[id] = handler
}

// Unsubscribe removes an event subscriber.
func (b *EventBus) Unsubscribe(id string) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	delete(b.subscribers, id)
}

// Broadcast sends an event to all subscribers.
func (b *EventBus) Broadcast(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	for _, handler := range b.subscribers {
		handler(event)
	}
}

// Scoped returns a sink that stamps every event with owner.
func (b *EventBus) Scoped(owner string) *Sink {
	return &Sink{bus: b, owner: owner}
}

// Sink publishes events for one owner.
type Sink struct {
	bus   *EventBus
	owner string
}

// Emit broadcasts a named event.
func (s *Sink) Emit(name string, payload any) {
	s.bus.Broadcast(Event{Name: name, Owner: s.owner, Payload: payload})
}

// Owner returns the stamp applied to events.
func (s *Sink) Owner() string { return s.owner }
