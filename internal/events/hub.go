package events

import (
	"sync"
	"time"
)

// Event types mirror what a client subscription cares about: the order row
// changed, or its assignment changed. Subscribers are expected to re-fetch
// the order on any event rather than consuming the payload for state, which
// makes duplicate notifications harmless.
const (
	EventOrderUpdated      = "order.updated"
	EventAssignmentChanged = "assignment.changed"
)

type Event struct {
	Type    string    `json:"type"`
	OrderID string    `json:"orderId"`
	Status  string    `json:"status,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher is the mutation-side view of the hub.
type Publisher interface {
	Publish(e Event)
}

// Hub fans order events out to per-order subscribers. Sends never block:
// a subscriber that cannot keep up misses an event, which is fine because
// every event is just a re-fetch hint.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{} // orderID -> subscribers
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a channel for one order's events. The returned cancel
// func unregisters and closes it; calling cancel twice is safe.
func (h *Hub) Subscribe(orderID string) (<-chan Event, func()) {
	ch := make(chan Event, 8)

	h.mu.Lock()
	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[chan Event]struct{})
	}
	h.subs[orderID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[orderID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, orderID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[e.OrderID] {
		select {
		case ch <- e:
		default:
			// Slow subscriber; drop. The next event or manual refresh
			// triggers the same re-fetch.
		}
	}
}

// SubscriberCount reports active subscriptions for an order.
func (h *Hub) SubscriberCount(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}
