package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lingokit/core"
	"lingokit/engine"
)

// AnalyticsService ties metrics, aggregation, streaming, and export into a
// single component that can be attached to an engine event bus.
type AnalyticsService struct {
	metrics    *LearningMetrics
	aggregator *AggregationEngine
	publisher  *StreamPublisher
	exporter   *ExportManager
	log        *slog.Logger

	exportInterval time.Duration
}

// NewAnalyticsService creates a fully wired analytics service with sensible defaults
func NewAnalyticsService() *AnalyticsService {
	metrics := NewLearningMetrics()

	return &AnalyticsService{
		metrics:        metrics,
		aggregator:     NewAggregationEngine(metrics, 1*time.Hour),
		publisher:      NewStreamPublisher(metrics),
		exporter:       NewExportManager(NewConsoleExporter("lingokit")),
		log:            slog.Default(),
		exportInterval: 6 * time.Hour,
	}
}

// AnalyticsConfig configures a customized analytics service.
type AnalyticsConfig struct {
	AggregationInterval time.Duration
	ExportInterval      time.Duration
	Exporters           []ExporterConfig
}

// ExporterConfig describes one export destination.
type ExporterConfig struct {
	Type      string // "http" or "console"
	Endpoint  string
	APIKey    string
	BatchSize int
}

// NewAnalyticsServiceWithConfig creates an analytics service from configuration
func NewAnalyticsServiceWithConfig(cfg AnalyticsConfig) (*AnalyticsService, error) {
	if cfg.AggregationInterval <= 0 {
		cfg.AggregationInterval = 1 * time.Hour
	}
	if cfg.ExportInterval <= 0 {
		cfg.ExportInterval = 6 * time.Hour
	}

	exporters := make([]Exporter, 0, len(cfg.Exporters))
	for _, ec := range cfg.Exporters {
		switch ec.Type {
		case "http":
			if ec.Endpoint == "" {
				return nil, fmt.Errorf("http exporter requires an endpoint")
			}
			batch := ec.BatchSize
			if batch <= 0 {
				batch = 10
			}
			exporters = append(exporters, NewHTTPExporter(ec.Endpoint, ec.APIKey, batch))
		case "console":
			exporters = append(exporters, NewConsoleExporter("lingokit"))
		default:
			return nil, fmt.Errorf("unknown exporter type: %q", ec.Type)
		}
	}
	if len(exporters) == 0 {
		exporters = append(exporters, NewConsoleExporter("lingokit"))
	}

	metrics := NewLearningMetrics()
	return &AnalyticsService{
		metrics:        metrics,
		aggregator:     NewAggregationEngine(metrics, cfg.AggregationInterval),
		publisher:      NewStreamPublisher(metrics),
		exporter:       NewExportManager(exporters...),
		log:            slog.Default(),
		exportInterval: cfg.ExportInterval,
	}, nil
}

// GetHook returns the hook that should receive engine events
func (as *AnalyticsService) GetHook() Hook {
	// The publisher feeds metrics before streaming, so one hook covers both.
	return as.publisher
}

// Attach subscribes the analytics hook to every engine event type.
// Returns a detach func.
func (as *AnalyticsService) Attach(bus *engine.EventBus) func() {
	types := []core.EventType{
		core.EventPointsAwarded,
		core.EventLevelUp,
		core.EventBadgeUnlocked,
		core.EventStreakExtended,
		core.EventPointsRedeemed,
	}
	hook := as.GetHook()
	forward := func(_ context.Context, ev core.Event) { hook.OnEvent(ev) }
	unsubs := make([]func(), 0, len(types))
	for _, typ := range types {
		unsubs = append(unsubs, bus.Subscribe(typ, forward))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Start begins background aggregation and periodic export. Blocks until ctx
// is cancelled.
func (as *AnalyticsService) Start(ctx context.Context) {
	go as.aggregator.Start(ctx)

	ticker := time.NewTicker(as.exportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := as.exportAll(ctx); err != nil {
				as.log.Error("analytics export failed", "error", err)
			}
		}
	}
}

func (as *AnalyticsService) exportAll(ctx context.Context) error {
	for _, period := range []AggregationPeriod{PeriodDaily, PeriodWeekly, PeriodMonthly} {
		data := as.aggregator.GetAllAggregatedData(period)
		if len(data) == 0 {
			continue
		}
		if err := as.exporter.ExportData(ctx, data); err != nil {
			return err
		}
	}
	return nil
}

// ForceAggregation triggers an immediate aggregation pass
func (as *AnalyticsService) ForceAggregation() error {
	return as.aggregator.AggregateNow()
}

// GetRealtimeStats returns current real-time statistics
func (as *AnalyticsService) GetRealtimeStats() map[string]interface{} {
	return as.publisher.GetRealtimeStats()
}

// GetDashboardData returns a reporting snapshot for dashboards
func (as *AnalyticsService) GetDashboardData() map[string]interface{} {
	data := as.metrics.GetTopActivities(5)
	data["realtime"] = as.publisher.GetRealtimeStats()
	data["recent_events"] = as.publisher.RecentEvents()
	return data
}

// GetAggregatedData returns aggregated data for a period and key
func (as *AnalyticsService) GetAggregatedData(period AggregationPeriod, key string) (*AggregatedData, bool) {
	return as.aggregator.GetAggregatedData(period, key)
}

// SubscribeToRealtime adds a real-time event subscriber
func (as *AnalyticsService) SubscribeToRealtime(id string, subscriber StreamSubscriber) {
	as.publisher.Subscribe(id, subscriber)
}

// UnsubscribeFromRealtime removes a real-time event subscriber
func (as *AnalyticsService) UnsubscribeFromRealtime(id string) {
	as.publisher.Unsubscribe(id)
}

// Close flushes and closes all exporters
func (as *AnalyticsService) Close() error {
	return as.exporter.Close()
}
