package analytics

import (
	"context"
	"io"
	"sync"
	"time"

	"lingokit/core"
)

// StreamEvent is the wire form of a real-time analytics event.
type StreamEvent struct {
	Type       string                 `json:"type"`
	UserID     core.UserID            `json:"user_id"`
	Activity   core.ActivityType      `json:"activity,omitempty"`
	Badge      core.Badge             `json:"badge,omitempty"`
	Points     int64                  `json:"points,omitempty"`
	Level      int                    `json:"level,omitempty"`
	StreakDays int                    `json:"streak_days,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// StreamSubscriber receives real-time analytics events.
type StreamSubscriber interface {
	OnStreamEvent(event *StreamEvent)
	Close() error
}

// StreamPublisher fans analytics events out to live subscribers while also
// feeding the metrics aggregates. It doubles as the engine Hook.
type StreamPublisher struct {
	mu          sync.RWMutex
	subscribers map[string]StreamSubscriber
	metrics     *LearningMetrics

	recent    []*StreamEvent
	maxRecent int
}

func NewStreamPublisher(metrics *LearningMetrics) *StreamPublisher {
	return &StreamPublisher{
		subscribers: make(map[string]StreamSubscriber),
		metrics:     metrics,
		maxRecent:   100,
	}
}

// Subscribe adds a subscriber to receive real-time events
func (sp *StreamPublisher) Subscribe(id string, subscriber StreamSubscriber) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.subscribers[id] = subscriber
}

// Unsubscribe removes a subscriber
func (sp *StreamPublisher) Unsubscribe(id string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if subscriber, exists := sp.subscribers[id]; exists {
		_ = subscriber.Close()
		delete(sp.subscribers, id)
	}
}

// PublishEvent publishes an event to all subscribers
func (sp *StreamPublisher) PublishEvent(event *StreamEvent) {
	sp.mu.Lock()
	sp.recent = append(sp.recent, event)
	if len(sp.recent) > sp.maxRecent {
		sp.recent = sp.recent[1:]
	}
	subscribers := make([]StreamSubscriber, 0, len(sp.subscribers))
	for _, subscriber := range sp.subscribers {
		subscribers = append(subscribers, subscriber)
	}
	sp.mu.Unlock()

	for _, subscriber := range subscribers {
		func(sub StreamSubscriber) {
			defer func() {
				if r := recover(); r != nil {
					// swallow subscriber panic to keep publisher alive
				}
			}()
			sub.OnStreamEvent(event)
		}(subscriber)
	}
}

// OnEvent processes engine events and publishes them as stream events
func (sp *StreamPublisher) OnEvent(e core.Event) {
	sp.metrics.OnEvent(e)
	sp.PublishEvent(sp.convertToStreamEvent(e))
}

func (sp *StreamPublisher) convertToStreamEvent(e core.Event) *StreamEvent {
	return &StreamEvent{
		Type:       string(e.Type),
		UserID:     e.UserID,
		Activity:   e.Activity,
		Badge:      e.Badge,
		Points:     e.Points,
		Level:      e.Level,
		StreakDays: e.StreakDays,
		Timestamp:  e.Time,
	}
}

// GetRealtimeStats returns current real-time statistics
func (sp *StreamPublisher) GetRealtimeStats() map[string]interface{} {
	points, badges, levelUps := sp.metrics.GetRealtimeStats()

	sp.mu.RLock()
	subs := len(sp.subscribers)
	sp.mu.RUnlock()

	return map[string]interface{}{
		"points_awarded_24h": points,
		"badges_awarded_24h": badges,
		"level_ups_24h":      levelUps,
		"active_subscribers": subs,
		"timestamp":          time.Now(),
	}
}

// RecentEvents returns a copy of the rolling recent-event window.
func (sp *StreamPublisher) RecentEvents() []*StreamEvent {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	out := make([]*StreamEvent, len(sp.recent))
	copy(out, sp.recent)
	return out
}

// ChannelSubscriber buffers events on a channel for pull-based consumers.
type ChannelSubscriber struct {
	id        string
	sendChan  chan *StreamEvent
	closeChan chan struct{}
}

func NewChannelSubscriber(id string, bufferSize int) *ChannelSubscriber {
	return &ChannelSubscriber{
		id:        id,
		sendChan:  make(chan *StreamEvent, bufferSize),
		closeChan: make(chan struct{}),
	}
}

func (cs *ChannelSubscriber) OnStreamEvent(event *StreamEvent) {
	select {
	case cs.sendChan <- event:
	case <-cs.closeChan:
	default:
		// Channel is full, drop the event
	}
}

// ReadEvent reads an event from the subscriber channel
func (cs *ChannelSubscriber) ReadEvent(ctx context.Context) (*StreamEvent, error) {
	select {
	case event := <-cs.sendChan:
		return event, nil
	case <-cs.closeChan:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (cs *ChannelSubscriber) Close() error {
	select {
	case <-cs.closeChan:
		// Already closed
	default:
		close(cs.closeChan)
	}
	return nil
}

// InMemorySubscriber stores events in memory for testing/debugging
type InMemorySubscriber struct {
	id     string
	events []*StreamEvent
	mu     sync.RWMutex
}

func NewInMemorySubscriber(id string) *InMemorySubscriber {
	return &InMemorySubscriber{
		id:     id,
		events: make([]*StreamEvent, 0),
	}
}

func (ims *InMemorySubscriber) OnStreamEvent(event *StreamEvent) {
	ims.mu.Lock()
	defer ims.mu.Unlock()
	ims.events = append(ims.events, event)
}

func (ims *InMemorySubscriber) GetEvents() []*StreamEvent {
	ims.mu.RLock()
	defer ims.mu.RUnlock()
	result := make([]*StreamEvent, len(ims.events))
	copy(result, ims.events)
	return result
}

func (ims *InMemorySubscriber) ClearEvents() {
	ims.mu.Lock()
	defer ims.mu.Unlock()
	ims.events = ims.events[:0]
}

func (ims *InMemorySubscriber) Close() error {
	return nil
}
