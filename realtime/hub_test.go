package realtime

import (
	"context"
	"testing"

	"lingokit/core"
	"lingokit/engine"
)

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe("", 4)
	defer h.Unsubscribe(id)

	h.Broadcast(context.Background(), core.NewPointsAwarded("alice", core.ActivityChatTurn, 3, 3))
	select {
	case ev := <-ch:
		if ev.UserID != "alice" {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestHubUserFilter(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe("bob", 4)
	defer h.Unsubscribe(id)

	h.Broadcast(context.Background(), core.NewPointsAwarded("alice", core.ActivityChatTurn, 3, 3))
	h.Broadcast(context.Background(), core.NewPointsAwarded("bob", core.ActivityChatTurn, 5, 5))

	select {
	case ev := <-ch:
		if ev.UserID != "bob" || ev.Points != 5 {
			t.Fatalf("wrong event: %+v", ev)
		}
	default:
		t.Fatal("bob's event not delivered")
	}
	select {
	case ev := <-ch:
		t.Fatalf("alice's event leaked: %+v", ev)
	default:
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe("", 1)
	defer h.Unsubscribe(id)

	h.Broadcast(context.Background(), core.NewPointsAwarded("a", core.ActivityChatTurn, 1, 1))
	h.Broadcast(context.Background(), core.NewPointsAwarded("a", core.ActivityChatTurn, 2, 3))

	if got := len(ch); got != 1 {
		t.Fatalf("buffered = %d", got)
	}
}

func TestHubAttach(t *testing.T) {
	bus := engine.NewEventBus(engine.DispatchSync)
	defer bus.Close()

	h := NewHub()
	detach := h.Attach(bus)
	id, ch := h.Subscribe("", 4)
	defer h.Unsubscribe(id)

	bus.Publish(context.Background(), core.NewLevelUp("carol", 2, 150))
	select {
	case ev := <-ch:
		if ev.Type != core.EventLevelUp {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("bus event not bridged")
	}

	detach()
	bus.Publish(context.Background(), core.NewLevelUp("carol", 3, 350))
	if len(ch) != 0 {
		t.Fatal("detached hub still receiving")
	}
}
