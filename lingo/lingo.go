// Package lingo is the batteries-included entry point: one call wires
// storage, scoring policy, event dispatch, and optional realtime streaming
// into a ready-to-use points service.
package lingo

import (
	"lingokit/adapters/memory"
	"lingokit/core"
	"lingokit/engine"
	"lingokit/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	storage engine.Storage
	users   engine.UserDirectory
	policy  core.Policy
	mode    engine.DispatchMode
	hub     *realtime.Hub
	retries int
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithDirectory sets the user directory used to reject unknown learners.
func WithDirectory(d engine.UserDirectory) Option { return func(c *config) { c.users = d } }

// WithPolicy replaces the scoring policy.
func WithPolicy(p core.Policy) Option { return func(c *config) { c.policy = p } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithAwardRetries bounds the optimistic-concurrency retry loop.
func WithAwardRetries(n int) Option { return func(c *config) { c.retries = n } }

// New builds a configured points service. Defaults: in-memory storage,
// the stock scoring policy, async event dispatch, every user accepted.
func New(opts ...Option) *engine.Service {
	cfg := &config{mode: engine.DispatchAsync, policy: core.DefaultPolicy()}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = memory.New()
	}
	bus := engine.NewEventBus(cfg.mode)

	var engineOpts []engine.Option
	if cfg.retries > 0 {
		engineOpts = append(engineOpts, engine.WithAwardRetries(cfg.retries))
	}
	svc := engine.NewService(cfg.storage, cfg.users, bus, cfg.policy, engineOpts...)

	if cfg.hub != nil {
		cfg.hub.Attach(bus)
	}
	return svc
}
