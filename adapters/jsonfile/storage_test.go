package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lingokit/core"
)

func TestPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := core.NewPointRecord("alice", time.Now().UTC())
	rec.TotalPoints = 120
	rec.AvailablePoints = 100
	rec.Level = 2
	rec.Badges[core.BadgeFirstSteps] = struct{}{}
	if _, err := s.Put(ctx, "alice", rec, 0); err != nil {
		t.Fatalf("put: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, version, err := s2.Get(ctx, "alice")
	if err != nil || version != 1 {
		t.Fatalf("get: %v version %d", err, version)
	}
	if got.TotalPoints != 120 || got.Level != 2 || !got.HasBadge(core.BadgeFirstSteps) {
		t.Fatalf("got = %+v", got)
	}
}

func TestVersionConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	ctx := context.Background()
	s, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := core.NewPointRecord("bob", time.Now().UTC())
	if _, err := s.Put(ctx, "bob", rec, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Put(ctx, "bob", rec, 0); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("stale write should conflict, got %v", err)
	}
}

func TestFailedPersistLeavesStoreUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	ctx := context.Background()
	s, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := core.NewPointRecord("carol", time.Now().UTC())
	rec.TotalPoints = 10
	if _, err := s.Put(ctx, "carol", rec, 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Replace the file with a directory so the atomic rename fails.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	rec.TotalPoints = 20
	if _, err := s.Put(ctx, "carol", rec, 1); err == nil {
		t.Fatal("put should fail when the file cannot be written")
	}

	// The failed write must not be visible: same record, same version.
	got, version, err := s.Get(ctx, "carol")
	if err != nil || version != 1 {
		t.Fatalf("get: %v version %d", err, version)
	}
	if got.TotalPoints != 10 {
		t.Fatalf("failed put leaked into store: total %d", got.TotalPoints)
	}

	// Once the file is writable again the same CAS attempt succeeds.
	if err := os.Remove(path); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	version, err = s.Put(ctx, "carol", rec, 1)
	if err != nil || version != 2 {
		t.Fatalf("retry put: %v version %d", err, version)
	}
	got, _, _ = s.Get(ctx, "carol")
	if got.TotalPoints != 20 {
		t.Fatalf("retried put not applied: total %d", got.TotalPoints)
	}
}

func TestFailedCreateLeavesNoRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	ctx := context.Background()
	s, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := s.Put(ctx, "dave", core.NewPointRecord("dave", time.Now().UTC()), 0); err == nil {
		t.Fatal("create should fail when the file cannot be written")
	}
	_, version, err := s.Get(ctx, "dave")
	if err != nil || version != 0 {
		t.Fatalf("failed create left a record: version %d err %v", version, err)
	}
}

func TestMissingFileIsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "points.json")
	s, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	recs, err := s.List(context.Background())
	if err != nil || len(recs) != 0 {
		t.Fatalf("list: %v len %d", err, len(recs))
	}
}

func TestListReturnsAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	ctx := context.Background()
	s, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, u := range []core.UserID{"a", "b"} {
		if _, err := s.Put(ctx, u, core.NewPointRecord(u, time.Now().UTC()), 0); err != nil {
			t.Fatalf("put %s: %v", u, err)
		}
	}
	recs, err := s.List(ctx)
	if err != nil || len(recs) != 2 {
		t.Fatalf("list: %v len %d", err, len(recs))
	}
}
