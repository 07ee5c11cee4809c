package events

import (
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultBuffer is the per-subscriber queue length
const DefaultBuffer = 64

// Subscription is a registered observer. Events that do not fit in its
// buffer are dropped: delivery is at-most-once with no replay.
type Subscription struct {
	id uint64
	ch chan Event

	mu      sync.Mutex
	dropped int
}

// C returns the receive side of the subscription
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Dropped returns how many events did not fit in the buffer
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Sink receives every published event after local subscribers
type Sink interface {
	Forward(Event)
}

// Hub is the in-process pub-sub channel between the services and observers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	sinks  []Sink
	nextID uint64
	closed bool
}

// NewHub creates a new event hub
func NewHub() *Hub {
	return &Hub{
		subs: make(map[uint64]*Subscription),
	}
}

// Subscribe registers a new observer with the given buffer size
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{id: h.nextID, ch: make(chan Event, buffer)}
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the observer and closes its channel.
// Returns false if it was not registered.
func (h *Hub) Unsubscribe(sub *Subscription) bool {
	if sub == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return false
	}
	delete(h.subs, sub.id)
	close(sub.ch)
	return true
}

// AddSink attaches a sink that sees every published event
func (h *Hub) AddSink(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, s)
}

// Publish delivers evt to every subscriber without blocking.
func (h *Hub) Publish(evt Event) {
	h.mu.RLock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- evt:
		default:
			sub.mu.Lock()
			sub.dropped++
			sub.mu.Unlock()
		}
	}
	sinks := make([]Sink, len(h.sinks))
	copy(sinks, h.sinks)
	h.mu.RUnlock()

	for _, s := range sinks {
		h.safeForward(s, evt)
	}
}

// safeForward keeps a panicking sink from taking the publisher down
func (h *Hub) safeForward(s Sink, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("event", evt.Type).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("event sink panicked")
		}
	}()
	s.Forward(evt)
}

// SubscriberCount returns the number of registered observers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unsubscribes everyone. Later subscriptions are returned closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
	h.closed = true
}
