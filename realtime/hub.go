package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"lingokit/core"
	"lingokit/engine"
)

// Hub fans engine events out to live subscribers. A subscription may be
// scoped to one learner; the empty UserID receives everything.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

type subscriber struct {
	user core.UserID
	ch   chan core.Event
}

func NewHub() *Hub { return &Hub{subs: map[int]subscriber{}} }

// Subscribe registers a buffered receiver. user narrows delivery to that
// learner's events; empty receives all.
func (h *Hub) Subscribe(user core.UserID, buffer int) (int, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan core.Event, buffer)
	h.subs[id] = subscriber{user: user, ch: ch}
	return id, ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
	}
}

func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	// copy to avoid holding lock during send
	receivers := make([]chan core.Event, 0, len(h.subs))
	for _, s := range h.subs {
		if s.user != "" && s.user != ev.UserID {
			continue
		}
		receivers = append(receivers, s.ch)
	}
	h.mu.RUnlock()
	for _, ch := range receivers {
		select {
		case ch <- ev:
		default: /* drop if full */
		}
	}
}

// Attach subscribes the hub to every engine event type. Returns a detach func.
func (h *Hub) Attach(bus *engine.EventBus) func() {
	types := []core.EventType{
		core.EventPointsAwarded,
		core.EventLevelUp,
		core.EventBadgeUnlocked,
		core.EventStreakExtended,
		core.EventPointsRedeemed,
	}
	unsubs := make([]func(), 0, len(types))
	for _, typ := range types {
		unsubs = append(unsubs, bus.Subscribe(typ, h.Broadcast))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// MarshalJSON is a helper to convert events to JSON bytes for WebSocket/SSE.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
