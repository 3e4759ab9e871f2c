package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventPointsAwarded  EventType = "points_awarded"
	EventLevelUp        EventType = "level_up"
	EventBadgeUnlocked  EventType = "badge_unlocked"
	EventStreakExtended EventType = "streak_extended"
	EventPointsRedeemed EventType = "points_redeemed"
)

// Event represents an immutable domain event.
type Event struct {
	Type       EventType      `json:"type"`
	Time       time.Time      `json:"time"`
	UserID     UserID         `json:"user_id"`
	Activity   ActivityType   `json:"activity,omitempty"`
	Points     int64          `json:"points,omitempty"`
	Total      int64          `json:"total,omitempty"`
	Level      int            `json:"level,omitempty"`
	Badge      Badge          `json:"badge,omitempty"`
	StreakDays int            `json:"streak_days,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewPointsAwarded(user UserID, activity ActivityType, points, total int64) Event {
	return Event{Type: EventPointsAwarded, Time: time.Now().UTC(), UserID: user, Activity: activity, Points: points, Total: total}
}

func NewLevelUp(user UserID, level int, total int64) Event {
	return Event{Type: EventLevelUp, Time: time.Now().UTC(), UserID: user, Level: level, Total: total}
}

func NewBadgeUnlocked(user UserID, badge Badge) Event {
	return Event{Type: EventBadgeUnlocked, Time: time.Now().UTC(), UserID: user, Badge: badge}
}

func NewStreakExtended(user UserID, days int) Event {
	return Event{Type: EventStreakExtended, Time: time.Now().UTC(), UserID: user, StreakDays: days}
}

func NewPointsRedeemed(user UserID, points, remaining int64) Event {
	return Event{Type: EventPointsRedeemed, Time: time.Now().UTC(), UserID: user, Points: points, Total: remaining}
}
