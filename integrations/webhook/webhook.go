package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lingokit/core"
	"lingokit/engine"
)

// Sink posts domain events to configured HTTP endpoints so the surrounding
// backend (notifications, study planner) can react to awards and level-ups.
// It is synchronous for determinism; keep receivers fast or wrap with
// buffering if needed.
type Sink struct {
	client    *http.Client
	endpoints []string
	types     map[core.EventType]struct{}
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithEventTypes narrows delivery to the given types (default: all).
func WithEventTypes(types ...core.EventType) Option {
	return func(s *Sink) {
		s.types = make(map[core.EventType]struct{}, len(types))
		for _, t := range types {
			s.types[t] = struct{}{}
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// OnEvent posts the event JSON to all endpoints; delivery failures are
// dropped rather than retried.
func (s *Sink) OnEvent(e core.Event) {
	if len(s.endpoints) == 0 {
		return
	}
	if s.types != nil {
		if _, ok := s.types[e.Type]; !ok {
			return
		}
	}
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		_, _ = s.client.Do(req)
	}
}

// Attach subscribes the sink to every engine event type. Returns a detach func.
func (s *Sink) Attach(bus *engine.EventBus) func() {
	types := []core.EventType{
		core.EventPointsAwarded,
		core.EventLevelUp,
		core.EventBadgeUnlocked,
		core.EventStreakExtended,
		core.EventPointsRedeemed,
	}
	unsubs := make([]func(), 0, len(types))
	for _, typ := range types {
		unsubs = append(unsubs, bus.Subscribe(typ, func(_ context.Context, ev core.Event) {
			s.OnEvent(ev)
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
