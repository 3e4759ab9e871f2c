package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lingokit/core"
)

func TestEventBusSyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var got core.Event
	bus.Subscribe(core.EventPointsAwarded, func(_ context.Context, ev core.Event) {
		got = ev
	})
	bus.Publish(context.Background(), core.NewPointsAwarded("alice", core.ActivityChatTurn, 3, 3))
	if got.UserID != "alice" || got.Points != 3 {
		t.Fatalf("event not delivered: %+v", got)
	}
}

func TestEventBusTypeFiltering(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var levelUps int
	bus.Subscribe(core.EventLevelUp, func(context.Context, core.Event) { levelUps++ })
	bus.Publish(context.Background(), core.NewPointsAwarded("bob", core.ActivityChatTurn, 3, 3))
	bus.Publish(context.Background(), core.NewLevelUp("bob", 2, 150))
	if levelUps != 1 {
		t.Fatalf("levelUps = %d", levelUps)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var calls int
	unsub := bus.Subscribe(core.EventPointsAwarded, func(context.Context, core.Event) { calls++ })
	bus.Publish(context.Background(), core.NewPointsAwarded("c", core.ActivityChatTurn, 1, 1))
	unsub()
	bus.Publish(context.Background(), core.NewPointsAwarded("c", core.ActivityChatTurn, 1, 2))
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestEventBusPublishAllOrder(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var order []core.EventType
	for _, typ := range []core.EventType{core.EventPointsAwarded, core.EventLevelUp, core.EventBadgeUnlocked} {
		typ := typ
		bus.Subscribe(typ, func(_ context.Context, ev core.Event) { order = append(order, ev.Type) })
	}
	bus.PublishAll(context.Background(),
		core.NewPointsAwarded("d", core.ActivityChatTurn, 1, 1),
		core.NewLevelUp("d", 2, 150),
		core.NewBadgeUnlocked("d", core.BadgeFirstSteps),
	)
	if len(order) != 3 || order[0] != core.EventPointsAwarded || order[2] != core.EventBadgeUnlocked {
		t.Fatalf("order = %v", order)
	}
}

func TestEventBusAsyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(10)
	bus.Subscribe(core.EventPointsAwarded, func(context.Context, core.Event) {
		count.Add(1)
		wg.Done()
	})
	for i := 0; i < 10; i++ {
		bus.Publish(context.Background(), core.NewPointsAwarded("e", core.ActivityChatTurn, 1, int64(i)))
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async events not delivered")
	}
	if count.Load() != 10 {
		t.Fatalf("count = %d", count.Load())
	}
}
