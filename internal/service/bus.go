package service

import "sync"

// Event reports a change to a session.
type Event struct {
	Session  string `json:"session"`
	Action   string `json:"action"` // created, updated or deleted
	Kind     string `json:"kind,omitempty"`
	Revision uint64 `json:"revision"`
}

// EventBus fans session events out to subscribers. A subscriber watches one
// session, or all of them.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]string
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]string)}
}

// Publish delivers e to every matching subscriber. Slow subscribers miss
// events rather than block the session that changed.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, session := range b.subs {
		if session != "" && session != e.Session {
			continue
		}
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a buffered channel of the events of session. An empty
// session subscribes to all sessions.
func (b *EventBus) Subscribe(session string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = session
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

// Subscribers reports the number of open subscriptions.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
