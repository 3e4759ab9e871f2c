package main

import (
	"log/slog"
	"net/http"
	"os"

	mem "lingokit/adapters/memory"
	"lingokit/api/httpapi"
	"lingokit/core"
	"lingokit/engine"
	"lingokit/realtime"
)

// Minimal demo: in-memory storage, no auth, text logs, everything on :8080.
func main() {
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	bus := engine.NewEventBus(engine.DispatchAsync)
	svc := engine.NewService(mem.New(), nil, bus, core.DefaultPolicy())
	defer svc.Close()

	hub := realtime.NewHub()
	hub.Attach(bus)

	handler := httpapi.NewMux(svc, hub, httpapi.Options{
		DefaultLeaderboardLimit: 10,
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", handler); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}
