// Package events is a lightweight in-process pub-sub used to fan out
// mark-created notifications to live subscribers (websocket handlers).
package events

import "sync"

// EventKind represents the type of domain event produced by the service layer.
type EventKind string

const (
	EventMarkCreated EventKind = "mark_created"
)

// Event carries the minimum data a subscriber needs. Only the ID is
// carried; subscribers re-query the store for a full snapshot, which
// keeps replace-all delivery semantics trivial.
type Event struct {
	Kind   EventKind
	MarkID string
}

// Bus fans events out to subscribers over buffered channels. Publish never
// blocks: a subscriber whose buffer is full misses the event, which is
// acceptable because every delivery triggers a full re-read anyway.
//
// The bus is injected explicitly wherever it is needed; there is no
// package-level default instance.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	size int
}

// NewBus creates a bus whose subscriber channels hold size buffered events.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = 16
	}
	return &Bus{subs: make(map[chan Event]struct{}), size: size}
}

// Subscribe registers a new subscriber and returns its channel together with
// a cancel function. Cancel closes the channel and discards pending events;
// it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.size)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers evt to every subscriber that has buffer space.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// subscriber lagging; it will catch up on its next snapshot
		}
	}
}
