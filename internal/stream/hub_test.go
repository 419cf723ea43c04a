package stream

import (
	"testing"

	"github.com/coindash/coindash/internal/models"
)

func TestHub_PublishReachesSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()

	if h.SubscriberCount() != 2 {
		t.Fatalf("subscriber count = %d", h.SubscriberCount())
	}

	h.Publish(models.Quote{Symbol: "BTC-USD", Price: 64000})

	for _, ch := range []chan models.Quote{a, b} {
		select {
		case q := <-ch:
			if q.Symbol != "BTC-USD" || q.Price != 64000 {
				t.Fatalf("quote mismatch: %+v", q)
			}
		default:
			t.Fatal("subscriber did not receive quote")
		}
	}
}

func TestHub_SlowSubscriberDropsUpdates(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()

	// Overfill the buffer; Publish must not block.
	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish(models.Quote{Symbol: "ETH-USD", Price: float64(i)})
	}

	if len(ch) != subscriberBuffer {
		t.Fatalf("expected full buffer of %d, got %d", subscriberBuffer, len(ch))
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Fatal("expected closed channel")
	}
	if h.SubscriberCount() != 0 {
		t.Fatalf("subscriber count = %d", h.SubscriberCount())
	}

	// Double unsubscribe must be safe.
	h.Unsubscribe(ch)

	// Publishing with no subscribers must be safe.
	h.Publish(models.Quote{Symbol: "BTC-USD", Price: 1})
}
