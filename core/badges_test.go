package core

import (
	"testing"
	"time"
)

func TestEvaluateBadgesFirstAward(t *testing.T) {
	now := time.Now().UTC()
	prev := NewPointRecord("alice", now)
	next := prev.Clone()
	next.TotalPoints = 47
	next.StreakDays = 1

	unlocked := EvaluateBadges(prev, next)
	if len(unlocked) != 1 || unlocked[0] != BadgeFirstSteps {
		t.Fatalf("unexpected badges: %v", unlocked)
	}
}

func TestEvaluateBadgesThresholds(t *testing.T) {
	now := time.Now().UTC()
	prev := NewPointRecord("bob", now)
	prev.TotalPoints = 900
	next := prev.Clone()
	next.TotalPoints = 1050
	next.StreakDays = 30
	next.Level = 5

	unlocked := EvaluateBadges(prev, next)
	want := map[Badge]bool{
		BadgeWeekWarrior:    true,
		BadgeStreakWarrior:  true,
		BadgePointCollector: true,
		BadgeLevelExplorer:  true,
	}
	if len(unlocked) != len(want) {
		t.Fatalf("unexpected badges: %v", unlocked)
	}
	for _, b := range unlocked {
		if !want[b] {
			t.Fatalf("unexpected badge %s", b)
		}
	}
}

func TestEvaluateBadgesAlreadyHeld(t *testing.T) {
	now := time.Now().UTC()
	prev := NewPointRecord("carol", now)
	prev.TotalPoints = 10
	prev.Badges[BadgeWeekWarrior] = struct{}{}
	next := prev.Clone()
	next.TotalPoints = 20
	next.StreakDays = 8

	for _, b := range EvaluateBadges(prev, next) {
		if b == BadgeWeekWarrior {
			t.Fatal("already-held badge must not unlock again")
		}
	}
}
