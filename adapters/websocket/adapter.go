package websocket

import (
	"net/http"
	"time"

	"lingokit/core"
	"lingokit/realtime"

	gorillaws "github.com/gorilla/websocket"
)

// Handler returns an http.Handler that upgrades to WebSocket and streams hub
// events. The optional ?user= query parameter narrows the stream to one
// learner's events.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		user := core.UserID(r.URL.Query().Get("user"))
		id, ch := hub.Subscribe(user, 256)
		defer hub.Unsubscribe(id)

		for ev := range ch {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
				return
			}
		}
	})
}
