package notify

import (
	"sync"
)

// Notifier is the fire-and-forget "data changed" signal raised after any
// successful creation, edit or deletion of a live record. There is no
// payload contract: subscribers only learn that new data exists and are
// expected to refetch.
type Notifier interface {
	Changed()
}

// Hub fans the changed signal out to subscriber channels. Broadcast never
// blocks: a subscriber that has an undelivered signal pending is skipped,
// which is harmless because the signal is level- rather than edge-coded.
type Hub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan struct{}]struct{})}
}

func (h *Hub) Changed() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// NopNotifier satisfies Notifier when the push channel is disabled.
type NopNotifier struct{}

func (NopNotifier) Changed() {}
