package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lingokit/core"
)

// AggregationPeriod represents different time periods for aggregation
type AggregationPeriod string

const (
	PeriodDaily   AggregationPeriod = "daily"
	PeriodWeekly  AggregationPeriod = "weekly"
	PeriodMonthly AggregationPeriod = "monthly"
)

// AggregatedData is one period's rollup of the learning KPIs.
type AggregatedData struct {
	Period    AggregationPeriod `json:"period"`
	Key       string            `json:"key"` // e.g., "2026-03-01" for daily, "2026-W09" for weekly
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`

	// Learner engagement
	ActiveUsers int `json:"active_users"`

	// Points
	PointsAwarded    int64                        `json:"points_awarded"`
	PointsRedeemed   int64                        `json:"points_redeemed"`
	PointsByActivity map[core.ActivityType]int64 `json:"points_by_activity"`

	// Badges
	BadgesAwarded int64                `json:"badges_awarded"`
	BadgesByType  map[core.Badge]int64 `json:"badges_by_type"`

	// Levels
	LevelUps int64 `json:"level_ups"`

	// Metadata
	CreatedAt time.Time `json:"created_at"`
}

// AggregationEngine handles periodic aggregation of analytics data
type AggregationEngine struct {
	mu sync.RWMutex

	metrics *LearningMetrics
	hook    Hook
	log     *slog.Logger

	dailyAggregations   map[string]*AggregatedData
	weeklyAggregations  map[string]*AggregatedData
	monthlyAggregations map[string]*AggregatedData

	aggregationInterval time.Duration
	lastAggregation     time.Time
}

func NewAggregationEngine(metrics *LearningMetrics, aggregationInterval time.Duration) *AggregationEngine {
	return &AggregationEngine{
		metrics:             metrics,
		hook:                metrics,
		log:                 slog.Default(),
		dailyAggregations:   make(map[string]*AggregatedData),
		weeklyAggregations:  make(map[string]*AggregatedData),
		monthlyAggregations: make(map[string]*AggregatedData),
		aggregationInterval: aggregationInterval,
		lastAggregation:     time.Now(),
	}
}

// OnEvent forwards events to the underlying metrics hook
func (ae *AggregationEngine) OnEvent(e core.Event) {
	ae.hook.OnEvent(e)
}

// AggregateNow forces an immediate aggregation of all periods
func (ae *AggregationEngine) AggregateNow() error {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	now := time.Now().UTC()

	if err := ae.aggregateDaily(now); err != nil {
		return fmt.Errorf("failed to aggregate daily data: %w", err)
	}

	if err := ae.aggregateWeekly(now); err != nil {
		return fmt.Errorf("failed to aggregate weekly data: %w", err)
	}

	if err := ae.aggregateMonthly(now); err != nil {
		return fmt.Errorf("failed to aggregate monthly data: %w", err)
	}

	ae.lastAggregation = now
	return nil
}

func (ae *AggregationEngine) newData(period AggregationPeriod, key string, start, end, now time.Time) *AggregatedData {
	return &AggregatedData{
		Period:           period,
		Key:              key,
		StartTime:        start,
		EndTime:          end,
		CreatedAt:        now,
		PointsByActivity: make(map[core.ActivityType]int64),
		BadgesByType:     make(map[core.Badge]int64),
	}
}

func (ae *AggregationEngine) aggregateDaily(now time.Time) error {
	today := now.Format("2006-01-02")
	startTime := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endTime := startTime.Add(24 * time.Hour)

	data := ae.newData(PeriodDaily, today, startTime, endTime, now)
	data.ActiveUsers = ae.metrics.GetDailyActiveUsers(today)
	data.PointsAwarded = ae.metrics.GetPointsAwardedByDay(today)
	data.PointsRedeemed = ae.metrics.GetPointsRedeemedByDay(today)
	data.BadgesAwarded = ae.metrics.GetBadgesAwardedByDay(today)
	data.LevelUps = ae.metrics.GetLevelUpsByDay(today)
	for _, activity := range core.ActivityTypes {
		if pts := ae.metrics.GetPointsAwardedByActivity(activity); pts > 0 {
			data.PointsByActivity[activity] = pts
		}
	}

	ae.dailyAggregations[today] = data
	return nil
}

// aggregateWeekly aggregates data for the current week
func (ae *AggregationEngine) aggregateWeekly(now time.Time) error {
	year, week := now.ISOWeek()
	weekKey := fmt.Sprintf("%d-W%02d", year, week)

	// Calculate week start (Monday)
	daysSinceMonday := int(now.Weekday()-time.Monday) % 7
	if daysSinceMonday < 0 {
		daysSinceMonday += 7
	}
	startTime := time.Date(now.Year(), now.Month(), now.Day()-daysSinceMonday, 0, 0, 0, 0, time.UTC)
	endTime := startTime.Add(7 * 24 * time.Hour)

	data := ae.newData(PeriodWeekly, weekKey, startTime, endTime, now)
	data.ActiveUsers = ae.metrics.GetWeeklyActiveUsers(weekKey)

	for i := 0; i < 7; i++ {
		dayKey := startTime.AddDate(0, 0, i).Format("2006-01-02")
		data.PointsAwarded += ae.metrics.GetPointsAwardedByDay(dayKey)
		data.PointsRedeemed += ae.metrics.GetPointsRedeemedByDay(dayKey)
		data.BadgesAwarded += ae.metrics.GetBadgesAwardedByDay(dayKey)
		data.LevelUps += ae.metrics.GetLevelUpsByDay(dayKey)
	}

	ae.weeklyAggregations[weekKey] = data
	return nil
}

// aggregateMonthly aggregates data for the current month
func (ae *AggregationEngine) aggregateMonthly(now time.Time) error {
	monthKey := now.Format("2006-01")

	startTime := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	endTime := startTime.AddDate(0, 1, 0)

	data := ae.newData(PeriodMonthly, monthKey, startTime, endTime, now)
	data.ActiveUsers = ae.metrics.GetMonthlyActiveUsers(monthKey)

	daysInMonth := int(endTime.Sub(startTime).Hours() / 24)
	for i := 0; i < daysInMonth; i++ {
		dayKey := startTime.AddDate(0, 0, i).Format("2006-01-02")
		data.PointsAwarded += ae.metrics.GetPointsAwardedByDay(dayKey)
		data.PointsRedeemed += ae.metrics.GetPointsRedeemedByDay(dayKey)
		data.BadgesAwarded += ae.metrics.GetBadgesAwardedByDay(dayKey)
		data.LevelUps += ae.metrics.GetLevelUpsByDay(dayKey)
	}

	ae.monthlyAggregations[monthKey] = data
	return nil
}

// GetAggregatedData returns aggregated data for a specific period and key
func (ae *AggregationEngine) GetAggregatedData(period AggregationPeriod, key string) (*AggregatedData, bool) {
	ae.mu.RLock()
	defer ae.mu.RUnlock()

	var aggregations map[string]*AggregatedData
	switch period {
	case PeriodDaily:
		aggregations = ae.dailyAggregations
	case PeriodWeekly:
		aggregations = ae.weeklyAggregations
	case PeriodMonthly:
		aggregations = ae.monthlyAggregations
	default:
		return nil, false
	}

	data, exists := aggregations[key]
	return data, exists
}

// GetAllAggregatedData returns all aggregated data for a specific period
func (ae *AggregationEngine) GetAllAggregatedData(period AggregationPeriod) []*AggregatedData {
	ae.mu.RLock()
	defer ae.mu.RUnlock()

	var aggregations map[string]*AggregatedData
	switch period {
	case PeriodDaily:
		aggregations = ae.dailyAggregations
	case PeriodWeekly:
		aggregations = ae.weeklyAggregations
	case PeriodMonthly:
		aggregations = ae.monthlyAggregations
	default:
		return nil
	}

	result := make([]*AggregatedData, 0, len(aggregations))
	for _, data := range aggregations {
		result = append(result, data)
	}
	return result
}

// Start begins periodic aggregation in a background goroutine
func (ae *AggregationEngine) Start(ctx context.Context) {
	ticker := time.NewTicker(ae.aggregationInterval)
	defer ticker.Stop()

	// Initial aggregation
	if err := ae.AggregateNow(); err != nil {
		ae.log.Error("initial aggregation failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ae.AggregateNow(); err != nil {
				ae.log.Error("periodic aggregation failed", "error", err)
			}
		}
	}
}

// ExportData exports aggregated data to JSON format
func (ae *AggregationEngine) ExportData(period AggregationPeriod) ([]byte, error) {
	data := ae.GetAllAggregatedData(period)
	return json.MarshalIndent(data, "", "  ")
}
