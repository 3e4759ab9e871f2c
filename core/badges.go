package core

// Stock badge identifiers. Unlock conditions are evaluated against the
// post-award record; granting an already-held badge is a no-op because the
// badge set is a set.
const (
	BadgeFirstSteps     Badge = "first_steps"     // first ever award
	BadgeWeekWarrior    Badge = "week_warrior"    // 7-day streak
	BadgeStreakWarrior  Badge = "streak_warrior"  // 30-day streak
	BadgePointCollector Badge = "point_collector" // 1000 total points
	BadgeLevelExplorer  Badge = "level_explorer"  // reached level 5
)

type badgeRule struct {
	badge Badge
	met   func(prev, next PointRecord) bool
}

var badgeRules = []badgeRule{
	{BadgeFirstSteps, func(prev, next PointRecord) bool {
		return prev.TotalPoints == 0 && next.TotalPoints > 0
	}},
	{BadgeWeekWarrior, func(_, next PointRecord) bool {
		return next.StreakDays >= 7
	}},
	{BadgeStreakWarrior, func(_, next PointRecord) bool {
		return next.StreakDays >= 30
	}},
	{BadgePointCollector, func(_, next PointRecord) bool {
		return next.TotalPoints >= 1000
	}},
	{BadgeLevelExplorer, func(_, next PointRecord) bool {
		return next.Level >= 5
	}},
}

// EvaluateBadges returns the badges whose unlock condition is newly
// satisfied by the transition from prev to next, excluding any already held.
func EvaluateBadges(prev, next PointRecord) []Badge {
	var unlocked []Badge
	for _, r := range badgeRules {
		if next.HasBadge(r.badge) {
			continue
		}
		if r.met(prev, next) {
			unlocked = append(unlocked, r.badge)
		}
	}
	return unlocked
}
