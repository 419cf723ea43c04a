package stream

import (
	"sync"

	"github.com/coindash/coindash/internal/models"
)

const subscriberBuffer = 16

// Hub fans live quotes out to websocket subscribers. Publishing never
// blocks: a subscriber that cannot keep up misses updates instead of
// stalling the broadcast.
type Hub struct {
	mu   sync.Mutex
	subs map[chan models.Quote]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan models.Quote]struct{})}
}

func (h *Hub) Subscribe() chan models.Quote {
	ch := make(chan models.Quote, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan models.Quote) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(q models.Quote) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- q:
		default:
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
