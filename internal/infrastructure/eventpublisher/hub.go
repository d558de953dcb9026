package eventpublisher

import (
	"context"
	"sync"

	"github.com/infisparks/gautami-ledger/internal/domain"
)

// Hub is an in-process Publisher that fans events out to record-level
// subscribers. A UI session subscribes to one record and gets every
// committed change for it; the outbox ordering guarantees the events
// arrive in commit order.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[int]func(*domain.OutboxEvent)
	next int

	// downstream, optional: events are forwarded after fanout.
	downstream Publisher
}

// NewHub creates a new Hub. downstream may be nil.
func NewHub(downstream Publisher) *Hub {
	return &Hub{
		subs:       make(map[string]map[int]func(*domain.OutboxEvent)),
		downstream: downstream,
	}
}

// Subscribe registers onChange for every event of one aggregate. The
// returned cancel func removes the subscription; it is safe to call
// more than once.
func (h *Hub) Subscribe(aggregateID string, onChange func(*domain.OutboxEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next

	if h.subs[aggregateID] == nil {
		h.subs[aggregateID] = make(map[int]func(*domain.OutboxEvent))
	}
	h.subs[aggregateID][id] = onChange

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if subs, ok := h.subs[aggregateID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.subs, aggregateID)
			}
		}
	}
}

// Publish delivers the event to the aggregate's subscribers, then to
// the downstream publisher. Callbacks run on the publisher goroutine;
// subscribers must not block.
func (h *Hub) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	h.mu.RLock()
	callbacks := make([]func(*domain.OutboxEvent), 0, len(h.subs[event.AggregateID]))
	for _, cb := range h.subs[event.AggregateID] {
		callbacks = append(callbacks, cb)
	}
	h.mu.RUnlock()

	for _, cb := range callbacks {
		cb(event)
	}

	if h.downstream != nil {
		return h.downstream.Publish(ctx, event)
	}

	return nil
}
