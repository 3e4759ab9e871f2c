package leaderboard

import (
	"testing"
	"time"

	"lingokit/core"
)

func entry(u string, score int64, created string) Entry {
	t, _ := time.Parse(time.RFC3339, created)
	return Entry{User: core.UserID(u), Score: score, Created: t}
}

func TestSkipListBasic(t *testing.T) {
	s := NewSkipList()
	s.Update(entry("a", 10, "2026-01-01T00:00:00Z"))
	s.Update(entry("b", 20, "2026-01-02T00:00:00Z"))
	s.Update(entry("c", 15, "2026-01-03T00:00:00Z"))
	top := s.TopN(3)
	if len(top) != 3 || top[0].User != "b" || top[1].User != "c" || top[2].User != "a" {
		t.Fatalf("unexpected order: %#v", top)
	}
	s.Update(entry("a", 25, "2026-01-01T00:00:00Z"))
	top = s.TopN(1)
	if top[0].User != "a" {
		t.Fatalf("top should be a, got %#v", top)
	}
}

func TestSkipListTieBreakByCreation(t *testing.T) {
	s := NewSkipList()
	s.Update(entry("late", 300, "2026-02-01T00:00:00Z"))
	s.Update(entry("early", 300, "2026-01-01T00:00:00Z"))
	top := s.TopN(1)
	if len(top) != 1 || top[0].User != "early" {
		t.Fatalf("earlier account must win ties: %#v", top)
	}
	if r, ok := s.Rank("late"); !ok || r != 2 {
		t.Fatalf("late rank = %d %v", r, ok)
	}
}

func TestSkipListRankAndLen(t *testing.T) {
	s := NewSkipList()
	s.Update(entry("a", 5, "2026-01-01T00:00:00Z"))
	s.Update(entry("b", 50, "2026-01-01T00:00:00Z"))
	s.Update(entry("c", 30, "2026-01-01T00:00:00Z"))
	if s.Len() != 3 {
		t.Fatalf("len = %d", s.Len())
	}
	if r, ok := s.Rank("a"); !ok || r != 3 {
		t.Fatalf("rank a = %d %v", r, ok)
	}
	if _, ok := s.Rank("nobody"); ok {
		t.Fatal("unknown user should have no rank")
	}
	s.Remove("b")
	if r, _ := s.Rank("c"); r != 1 {
		t.Fatalf("after removal c should lead, rank %d", r)
	}
}
