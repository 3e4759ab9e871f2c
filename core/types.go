package core

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// UserID uniquely identifies a learner.
type UserID string

// Badge represents a named badge identifier.
type Badge string

// CEFRLevel is a language proficiency tier on the CEFR scale (A1..C2).
type CEFRLevel string

const (
	CEFRA1 CEFRLevel = "A1"
	CEFRA2 CEFRLevel = "A2"
	CEFRB1 CEFRLevel = "B1"
	CEFRB2 CEFRLevel = "B2"
	CEFRC1 CEFRLevel = "C1"
	CEFRC2 CEFRLevel = "C2"
)

// CEFRLevels lists all tiers in ascending order of difficulty.
var CEFRLevels = []CEFRLevel{CEFRA1, CEFRA2, CEFRB1, CEFRB2, CEFRC1, CEFRC2}

// ParseCEFR normalizes a CEFR string ("b1" -> B1). ok is false for
// unrecognized values; the empty string parses to the empty level.
func ParseCEFR(s string) (CEFRLevel, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", true
	}
	for _, l := range CEFRLevels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Known reports whether the level is one of the six CEFR tiers.
func (l CEFRLevel) Known() bool {
	for _, k := range CEFRLevels {
		if l == k {
			return true
		}
	}
	return false
}

// PointRecord is a snapshot of a learner's accumulated points state.
// Implementations should return deep copies to maintain immutability guarantees.
type PointRecord struct {
	UserName        UserID             `json:"user_name"`
	TotalPoints     int64              `json:"total_points"`
	AvailablePoints int64              `json:"available_points"`
	Level           int                `json:"level"`
	StreakDays      int                `json:"streak_days"`
	Badges          map[Badge]struct{} `json:"badges"`
	CreatedAt       time.Time          `json:"created_at"`
	LastActivity    time.Time          `json:"last_activity"`
	Updated         time.Time          `json:"updated"`
}

// NewPointRecord returns the zero-valued record a learner starts with.
func NewPointRecord(user UserID, now time.Time) PointRecord {
	return PointRecord{
		UserName:  user,
		Level:     1,
		Badges:    map[Badge]struct{}{},
		CreatedAt: now,
		Updated:   now,
	}
}

// Clone returns a deep copy of the record to uphold immutability.
func (r PointRecord) Clone() PointRecord {
	cp := r
	cp.Badges = make(map[Badge]struct{}, len(r.Badges))
	for b := range r.Badges {
		cp.Badges[b] = struct{}{}
	}
	return cp
}

// HasBadge reports whether the badge has already been unlocked.
func (r PointRecord) HasBadge(b Badge) bool {
	_, ok := r.Badges[b]
	return ok
}

// BadgeList returns the badge set as a sorted slice for stable output.
func (r PointRecord) BadgeList() []Badge {
	out := make([]Badge, 0, len(r.Badges))
	for b := range r.Badges {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AwardResult describes the outcome of a single award transaction.
type AwardResult struct {
	PointsAwarded  int64   `json:"points_awarded"`
	TotalPoints    int64   `json:"total_points"`
	NewLevel       int     `json:"new_level"`
	LeveledUp      bool    `json:"leveled_up"`
	StreakDays     int     `json:"streak_days"`
	BadgesUnlocked []Badge `json:"badges_unlocked,omitempty"`
}

// PointsSummary is the read-only view returned for a single learner.
type PointsSummary struct {
	UserName        UserID  `json:"user_name"`
	TotalPoints     int64   `json:"total_points"`
	AvailablePoints int64   `json:"available_points"`
	RedeemedPoints  int64   `json:"redeemed_points"`
	Level           int     `json:"level"`
	NextLevelPoints int64   `json:"next_level_points"`
	StreakDays      int     `json:"streak_days"`
	Badges          []Badge `json:"badges"`
}

// LeaderboardEntry is one ranked row of the leaderboard view.
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	UserName    UserID  `json:"user_name"`
	TotalPoints int64   `json:"total_points"`
	Level       int     `json:"level"`
	StreakDays  int     `json:"streak_days"`
	Badges      []Badge `json:"badges"`
}

// LeaderboardView is the paged leaderboard plus the requesting user's own
// standing computed against the full population.
type LeaderboardView struct {
	Entries    []LeaderboardEntry `json:"entries"`
	UserRank   int                `json:"user_rank,omitempty"`
	UserPoints int64              `json:"user_points,omitempty"`
	TotalUsers int                `json:"total_users"`
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

// ValidateBadgeID ensures non-empty badge id with simple charset check.
func ValidateBadgeID(b Badge) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return errors.New("empty badge id")
	}
	// simple check: alnum, dash, underscore
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return errors.New("invalid badge id")
	}
	return nil
}
