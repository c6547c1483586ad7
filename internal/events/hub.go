package events

import (
	"context"
	"sync"
)

// Hub broadcasts batches to in-process subscribers. Slow subscribers lose
// batches instead of stalling the acquisition loop.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Batch]struct{}
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Batch]struct{})}
}

// Subscribe registers a subscriber. The returned cancel func must be called
// to unregister it; it closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Batch, func()) {
	ch := make(chan Batch, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of registered subscribers
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Emit implements Sink
func (h *Hub) Emit(ctx context.Context, b Batch) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- b:
		default:
		}
	}
	return nil
}
