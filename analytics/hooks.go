package analytics

import (
	"fmt"
	"sync"
	"time"

	"lingokit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// DAU tracks daily active learners.
type DAU struct {
	mu   sync.Mutex
	days map[string]map[core.UserID]struct{}
}

func NewDAU() *DAU { return &DAU{days: map[string]map[core.UserID]struct{}{}} }

func (d *DAU) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		d.days[day] = m
	}
	m[e.UserID] = struct{}{}
}

func (d *DAU) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// LearningMetrics aggregates study KPIs across the event stream: active
// learners by day/week/month, points earned per activity, level and streak
// progression, badge reach, and redemption volume.
type LearningMetrics struct {
	mu sync.RWMutex

	// Learner engagement
	dailyActiveUsers   map[string]map[core.UserID]struct{}
	weeklyActiveUsers  map[string]map[core.UserID]struct{}
	monthlyActiveUsers map[string]map[core.UserID]struct{}

	// Points
	pointsAwardedByDay      map[string]int64
	pointsAwardedByActivity map[core.ActivityType]int64
	pointsRedeemedByDay     map[string]int64

	// Badges
	badgesAwardedByDay  map[string]int64
	badgesAwardedByType map[core.Badge]int64
	uniqueBadgeHolders  map[core.Badge]map[core.UserID]struct{}

	// Levels
	levelUpsByDay     map[string]int64
	levelDistribution map[int]int // level reached -> count of level-ups into it

	// Streaks
	longestStreakByUser map[core.UserID]int

	// Real-time counters (last 24 hours)
	realtimeCounters struct {
		pointsAwarded int64
		badgesAwarded int64
		levelUps      int64
		lastReset     time.Time
	}
}

func NewLearningMetrics() *LearningMetrics {
	now := time.Now()
	lm := &LearningMetrics{
		dailyActiveUsers:        make(map[string]map[core.UserID]struct{}),
		weeklyActiveUsers:       make(map[string]map[core.UserID]struct{}),
		monthlyActiveUsers:      make(map[string]map[core.UserID]struct{}),
		pointsAwardedByDay:      make(map[string]int64),
		pointsAwardedByActivity: make(map[core.ActivityType]int64),
		pointsRedeemedByDay:     make(map[string]int64),
		badgesAwardedByDay:      make(map[string]int64),
		badgesAwardedByType:     make(map[core.Badge]int64),
		uniqueBadgeHolders:      make(map[core.Badge]map[core.UserID]struct{}),
		levelUpsByDay:           make(map[string]int64),
		levelDistribution:       make(map[int]int),
		longestStreakByUser:     make(map[core.UserID]int),
	}
	lm.realtimeCounters.lastReset = now
	return lm
}

func (lm *LearningMetrics) OnEvent(e core.Event) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	day := e.Time.UTC().Format("2006-01-02")
	week := getWeekKey(e.Time)
	month := getMonthKey(e.Time)

	lm.trackEngagement(e.UserID, day, week, month)

	switch e.Type {
	case core.EventPointsAwarded:
		if e.Points > 0 {
			lm.pointsAwardedByDay[day] += e.Points
			lm.pointsAwardedByActivity[e.Activity] += e.Points
			lm.realtimeCounters.pointsAwarded += e.Points
		}
	case core.EventPointsRedeemed:
		lm.pointsRedeemedByDay[day] += e.Points
	case core.EventLevelUp:
		lm.levelUpsByDay[day]++
		lm.levelDistribution[e.Level]++
		lm.realtimeCounters.levelUps++
	case core.EventBadgeUnlocked:
		lm.badgesAwardedByDay[day]++
		lm.badgesAwardedByType[e.Badge]++
		if lm.uniqueBadgeHolders[e.Badge] == nil {
			lm.uniqueBadgeHolders[e.Badge] = make(map[core.UserID]struct{})
		}
		lm.uniqueBadgeHolders[e.Badge][e.UserID] = struct{}{}
		lm.realtimeCounters.badgesAwarded++
	case core.EventStreakExtended:
		if e.StreakDays > lm.longestStreakByUser[e.UserID] {
			lm.longestStreakByUser[e.UserID] = e.StreakDays
		}
	}

	// Reset realtime counters if needed (every 24 hours)
	if time.Since(lm.realtimeCounters.lastReset) > 24*time.Hour {
		lm.realtimeCounters.pointsAwarded = 0
		lm.realtimeCounters.badgesAwarded = 0
		lm.realtimeCounters.levelUps = 0
		lm.realtimeCounters.lastReset = time.Now()
	}
}

func (lm *LearningMetrics) trackEngagement(userID core.UserID, day, week, month string) {
	if lm.dailyActiveUsers[day] == nil {
		lm.dailyActiveUsers[day] = make(map[core.UserID]struct{})
	}
	lm.dailyActiveUsers[day][userID] = struct{}{}

	if lm.weeklyActiveUsers[week] == nil {
		lm.weeklyActiveUsers[week] = make(map[core.UserID]struct{})
	}
	lm.weeklyActiveUsers[week][userID] = struct{}{}

	if lm.monthlyActiveUsers[month] == nil {
		lm.monthlyActiveUsers[month] = make(map[core.UserID]struct{})
	}
	lm.monthlyActiveUsers[month][userID] = struct{}{}
}

// GetDailyActiveUsers returns the count of daily active learners for a specific day
func (lm *LearningMetrics) GetDailyActiveUsers(day string) int {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return len(lm.dailyActiveUsers[day])
}

// GetWeeklyActiveUsers returns the count of weekly active learners for a specific week
func (lm *LearningMetrics) GetWeeklyActiveUsers(week string) int {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return len(lm.weeklyActiveUsers[week])
}

// GetMonthlyActiveUsers returns the count of monthly active learners for a specific month
func (lm *LearningMetrics) GetMonthlyActiveUsers(month string) int {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return len(lm.monthlyActiveUsers[month])
}

// GetPointsAwardedByDay returns total points awarded on a specific day
func (lm *LearningMetrics) GetPointsAwardedByDay(day string) int64 {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.pointsAwardedByDay[day]
}

// GetPointsAwardedByActivity returns total points awarded for an activity type
func (lm *LearningMetrics) GetPointsAwardedByActivity(activity core.ActivityType) int64 {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.pointsAwardedByActivity[activity]
}

// GetPointsRedeemedByDay returns total points redeemed on a specific day
func (lm *LearningMetrics) GetPointsRedeemedByDay(day string) int64 {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.pointsRedeemedByDay[day]
}

// GetBadgesAwardedByDay returns total badges unlocked on a specific day
func (lm *LearningMetrics) GetBadgesAwardedByDay(day string) int64 {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.badgesAwardedByDay[day]
}

// GetBadgesAwardedByType returns how many times a badge has been unlocked
func (lm *LearningMetrics) GetBadgesAwardedByType(badge core.Badge) int64 {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.badgesAwardedByType[badge]
}

// GetUniqueBadgeHolders returns the count of unique learners holding a badge
func (lm *LearningMetrics) GetUniqueBadgeHolders(badge core.Badge) int {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return len(lm.uniqueBadgeHolders[badge])
}

// GetLevelUpsByDay returns the number of level-ups on a specific day
func (lm *LearningMetrics) GetLevelUpsByDay(day string) int64 {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.levelUpsByDay[day]
}

// GetLongestStreak returns the longest streak observed for a learner
func (lm *LearningMetrics) GetLongestStreak(user core.UserID) int {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.longestStreakByUser[user]
}

// GetRealtimeStats returns real-time statistics for the last 24 hours
func (lm *LearningMetrics) GetRealtimeStats() (points int64, badges int64, levelUps int64) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.realtimeCounters.pointsAwarded,
		lm.realtimeCounters.badgesAwarded,
		lm.realtimeCounters.levelUps
}

// GetTopActivities returns the highest-earning activity types for reporting
func (lm *LearningMetrics) GetTopActivities(limit int) map[string]interface{} {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	result := make(map[string]interface{})

	top := make([]struct {
		activity core.ActivityType
		points   int64
	}, 0, len(lm.pointsAwardedByActivity))
	for activity, points := range lm.pointsAwardedByActivity {
		top = append(top, struct {
			activity core.ActivityType
			points   int64
		}{activity, points})
	}

	// Sort by points (simple bubble sort for small datasets)
	for i := 0; i < len(top); i++ {
		for j := i + 1; j < len(top); j++ {
			if top[i].points < top[j].points {
				top[i], top[j] = top[j], top[i]
			}
		}
	}

	if len(top) > limit {
		top = top[:limit]
	}

	topData := make([]map[string]interface{}, len(top))
	for i, ta := range top {
		topData[i] = map[string]interface{}{
			"activity": ta.activity,
			"points":   ta.points,
		}
	}

	var totalPoints int64
	for _, v := range lm.pointsAwardedByActivity {
		totalPoints += v
	}
	var totalBadges int64
	for _, v := range lm.badgesAwardedByType {
		totalBadges += v
	}

	result["top_activities_by_points"] = topData
	result["total_points_awarded"] = totalPoints
	result["total_badges_awarded"] = totalBadges

	return result
}

// Helper functions
func getWeekKey(t time.Time) string {
	tt := t.UTC()
	year, week := tt.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func getMonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
