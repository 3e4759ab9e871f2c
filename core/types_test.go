package core

import (
	"math"
	"testing"
	"time"
)

func TestAddSafe(t *testing.T) {
	if v, err := AddSafe(10, 5); err != nil || v != 15 {
		t.Fatalf("got %v %v", v, err)
	}
	if _, err := AddSafe(math.MaxInt64, 1); err == nil {
		t.Fatalf("expected overflow")
	}
}

func TestNormalizeUserID(t *testing.T) {
	id, err := NormalizeUserID(" Alice ")
	if err != nil || id != "alice" {
		t.Fatalf("got %v %v", id, err)
	}
	if _, err := NormalizeUserID("   "); err == nil {
		t.Fatalf("expected empty error")
	}
}

func TestParseCEFR(t *testing.T) {
	if l, ok := ParseCEFR("b1"); !ok || l != CEFRB1 {
		t.Fatalf("got %v %v", l, ok)
	}
	if l, ok := ParseCEFR(""); !ok || l != "" {
		t.Fatalf("empty should parse to empty level, got %v %v", l, ok)
	}
	if _, ok := ParseCEFR("D1"); ok {
		t.Fatal("D1 should not parse")
	}
}

func TestPointRecordClone(t *testing.T) {
	rec := NewPointRecord("alice", time.Now().UTC())
	rec.Badges[BadgeFirstSteps] = struct{}{}
	cp := rec.Clone()
	cp.Badges[BadgeWeekWarrior] = struct{}{}
	if rec.HasBadge(BadgeWeekWarrior) {
		t.Fatal("clone should not share badge set")
	}
	if !cp.HasBadge(BadgeFirstSteps) {
		t.Fatal("clone lost badge")
	}
}

func TestBadgeListSorted(t *testing.T) {
	rec := NewPointRecord("alice", time.Now().UTC())
	rec.Badges[BadgeWeekWarrior] = struct{}{}
	rec.Badges[BadgeFirstSteps] = struct{}{}
	list := rec.BadgeList()
	if len(list) != 2 || list[0] != BadgeFirstSteps || list[1] != BadgeWeekWarrior {
		t.Fatalf("unexpected order: %v", list)
	}
}

func TestValidateBadgeID(t *testing.T) {
	if err := ValidateBadgeID("week_warrior-2"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := ValidateBadgeID("bad badge"); err == nil {
		t.Fatalf("expected invalid badge err")
	}
}
