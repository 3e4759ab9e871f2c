package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"lingokit/adapters/jsonfile"
	mem "lingokit/adapters/memory"
	redisAdapter "lingokit/adapters/redis"
	sqlxAdapter "lingokit/adapters/sqlx"
	"lingokit/analytics"
	"lingokit/api/httpapi"
	"lingokit/config"
	"lingokit/core"
	"lingokit/engine"
	"lingokit/integrations/webhook"
	"lingokit/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Bus       *engine.EventBus
	Hub       *realtime.Hub
	Service   *engine.Service
	Analytics *analytics.AnalyticsService
	Webhooks  *webhook.Sink
	Handler   http.Handler
	Server    *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideBus(cfg *config.Config) *engine.EventBus {
	mode := engine.DispatchSync
	if cfg.Engine.AsyncEvents {
		mode = engine.DispatchAsync
	}
	return engine.NewEventBus(mode)
}

func provideHub(bus *engine.EventBus) *realtime.Hub {
	hub := realtime.NewHub()
	hub.Attach(bus)
	return hub
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	return setupStorage(ctx, cfg)
}

func provideService(ctx context.Context, cfg *config.Config, storage engine.Storage, bus *engine.EventBus) (*engine.Service, error) {
	svc := engine.NewService(storage, nil, bus, core.DefaultPolicy(),
		engine.WithAwardRetries(cfg.Engine.AwardRetries))
	if err := svc.RebuildBoard(ctx); err != nil {
		return nil, fmt.Errorf("rebuild leaderboard from storage: %w", err)
	}
	return svc, nil
}

func provideAnalytics(logger *slog.Logger, bus *engine.EventBus) *analytics.AnalyticsService {
	svc := analytics.NewAnalyticsService()
	svc.Attach(bus)
	logger.Debug("analytics service attached to event bus")
	return svc
}

func provideWebhooks(cfg *config.Config, bus *engine.EventBus) *webhook.Sink {
	if len(cfg.Webhooks.Endpoints) == 0 {
		return nil
	}
	sink := webhook.New(cfg.Webhooks.Endpoints)
	sink.Attach(bus)
	return sink
}

func provideHandler(svc *engine.Service, hub *realtime.Hub, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, httpapi.Options{
		PathPrefix:              cfg.Server.PathPrefix,
		AllowCORSOrigin:         cfg.Server.CORSOrigin,
		APIKeys:                 cfg.Security.APIKeys,
		RateLimitEnabled:        cfg.Security.EnableRateLimit,
		RateLimitRPM:            cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:          cfg.Security.RateLimit.BurstSize,
		DefaultLeaderboardLimit: cfg.Engine.LeaderboardLimit,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		store, err := sqlxAdapter.New(cfg.Storage.SQL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "file":
		return jsonfile.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
