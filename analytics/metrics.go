package analytics

import "lingokit/core"

// BridgeHook fans a single event stream out to several hooks.
type BridgeHook struct {
	hooks []Hook
}

func NewBridge(hooks ...Hook) *BridgeHook {
	return &BridgeHook{hooks: hooks}
}

func (b *BridgeHook) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// Add registers another hook on the bridge.
func (b *BridgeHook) Add(h Hook) {
	b.hooks = append(b.hooks, h)
}
