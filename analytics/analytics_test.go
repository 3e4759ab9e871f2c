package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingokit/core"
)

func TestLearningMetrics_OnEvent(t *testing.T) {
	metrics := NewLearningMetrics()

	userID := core.UserID("maria")
	now := time.Now().UTC()

	metrics.OnEvent(core.Event{
		Type:     core.EventPointsAwarded,
		UserID:   userID,
		Time:     now,
		Activity: core.ActivityAIVocabGeneration,
		Points:   30,
	})
	metrics.OnEvent(core.Event{
		Type:   core.EventBadgeUnlocked,
		UserID: userID,
		Time:   now,
		Badge:  core.BadgeFirstSteps,
	})
	metrics.OnEvent(core.Event{
		Type:   core.EventLevelUp,
		UserID: userID,
		Time:   now,
		Level:  2,
	})
	metrics.OnEvent(core.Event{
		Type:       core.EventStreakExtended,
		UserID:     userID,
		Time:       now,
		StreakDays: 9,
	})
	metrics.OnEvent(core.Event{
		Type:   core.EventPointsRedeemed,
		UserID: userID,
		Time:   now,
		Points: 10,
	})

	dayKey := now.Format("2006-01-02")
	assert.Equal(t, int64(30), metrics.GetPointsAwardedByDay(dayKey))
	assert.Equal(t, int64(30), metrics.GetPointsAwardedByActivity(core.ActivityAIVocabGeneration))
	assert.Equal(t, int64(10), metrics.GetPointsRedeemedByDay(dayKey))
	assert.Equal(t, int64(1), metrics.GetBadgesAwardedByDay(dayKey))
	assert.Equal(t, int64(1), metrics.GetBadgesAwardedByType(core.BadgeFirstSteps))
	assert.Equal(t, 1, metrics.GetUniqueBadgeHolders(core.BadgeFirstSteps))
	assert.Equal(t, int64(1), metrics.GetLevelUpsByDay(dayKey))
	assert.Equal(t, 9, metrics.GetLongestStreak(userID))
	assert.Equal(t, 1, metrics.GetDailyActiveUsers(dayKey))
	assert.Equal(t, 1, metrics.GetWeeklyActiveUsers(getWeekKey(now)))
	assert.Equal(t, 1, metrics.GetMonthlyActiveUsers(getMonthKey(now)))

	points, badges, levels := metrics.GetRealtimeStats()
	assert.Equal(t, int64(30), points)
	assert.Equal(t, int64(1), badges)
	assert.Equal(t, int64(1), levels)
}

func TestLearningMetrics_GetTopActivities(t *testing.T) {
	metrics := NewLearningMetrics()
	now := time.Now().UTC()

	award := func(activity core.ActivityType, points int64) {
		metrics.OnEvent(core.Event{
			Type:     core.EventPointsAwarded,
			UserID:   "maria",
			Time:     now,
			Activity: activity,
			Points:   points,
		})
	}
	award(core.ActivityAIVocabGeneration, 120)
	award(core.ActivityChatTurn, 300)
	award(core.ActivityFlashcardReview, 60)

	report := metrics.GetTopActivities(2)
	top, ok := report["top_activities_by_points"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, top, 2)
	assert.Equal(t, core.ActivityChatTurn, top[0]["activity"])
	assert.Equal(t, int64(300), top[0]["points"])
	assert.Equal(t, int64(480), report["total_points_awarded"])
}

func TestDAU(t *testing.T) {
	dau := NewDAU()
	now := time.Now().UTC()
	day := now.Format("2006-01-02")

	dau.OnEvent(core.Event{Type: core.EventPointsAwarded, UserID: "a", Time: now})
	dau.OnEvent(core.Event{Type: core.EventPointsAwarded, UserID: "b", Time: now})
	dau.OnEvent(core.Event{Type: core.EventLevelUp, UserID: "a", Time: now})

	assert.Equal(t, 2, dau.Count(day))
	assert.Equal(t, 0, dau.Count("1999-01-01"))
}

func TestAggregationEngine(t *testing.T) {
	metrics := NewLearningMetrics()
	aggregator := NewAggregationEngine(metrics, 1*time.Hour)

	now := time.Now().UTC()
	aggregator.OnEvent(core.Event{
		Type:     core.EventPointsAwarded,
		UserID:   "maria",
		Time:     now,
		Activity: core.ActivitySpacedRepetition,
		Points:   50,
	})
	aggregator.OnEvent(core.Event{
		Type:   core.EventBadgeUnlocked,
		UserID: "maria",
		Time:   now,
		Badge:  core.BadgeFirstSteps,
	})

	require.NoError(t, aggregator.AggregateNow())

	dayKey := now.Format("2006-01-02")
	daily, exists := aggregator.GetAggregatedData(PeriodDaily, dayKey)
	require.True(t, exists)
	assert.Equal(t, 1, daily.ActiveUsers)
	assert.Equal(t, int64(50), daily.PointsAwarded)
	assert.Equal(t, int64(50), daily.PointsByActivity[core.ActivitySpacedRepetition])
	assert.Equal(t, int64(1), daily.BadgesAwarded)

	weekly, exists := aggregator.GetAggregatedData(PeriodWeekly, getWeekKey(now))
	require.True(t, exists)
	assert.Equal(t, 1, weekly.ActiveUsers)
	assert.GreaterOrEqual(t, weekly.PointsAwarded, int64(50))

	monthly, exists := aggregator.GetAggregatedData(PeriodMonthly, getMonthKey(now))
	require.True(t, exists)
	assert.Equal(t, 1, monthly.ActiveUsers)

	exported, err := aggregator.ExportData(PeriodDaily)
	require.NoError(t, err)
	var rows []*AggregatedData
	require.NoError(t, json.Unmarshal(exported, &rows))
	require.NotEmpty(t, rows)
}

func TestHTTPExporter(t *testing.T) {
	var received []*AggregatedData
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exporter := NewHTTPExporter(srv.URL, "secret", 2)
	ctx := context.Background()

	require.NoError(t, exporter.Export(ctx, &AggregatedData{Period: PeriodDaily, Key: "2026-03-01"}))
	assert.Empty(t, received) // below batch size, nothing sent yet

	require.NoError(t, exporter.Export(ctx, &AggregatedData{Period: PeriodDaily, Key: "2026-03-02"}))
	require.Len(t, received, 2)
	assert.Equal(t, "2026-03-01", received[0].Key)
}

func TestHTTPExporter_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	exporter := NewHTTPExporter(srv.URL, "", 1)
	err := exporter.Export(context.Background(), &AggregatedData{Period: PeriodDaily, Key: "x"})
	assert.Error(t, err)
}

func TestExportManager(t *testing.T) {
	var batches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batches++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	manager := NewExportManager(
		NewHTTPExporter(srv.URL, "", 100),
		NewConsoleExporter("test"),
	)

	data := []*AggregatedData{
		{Period: PeriodDaily, Key: "2026-03-01"},
		{Period: PeriodDaily, Key: "2026-03-02"},
	}
	require.NoError(t, manager.ExportData(context.Background(), data))
	assert.Equal(t, 1, batches) // flushed as a single batch
	require.NoError(t, manager.Close())
}
