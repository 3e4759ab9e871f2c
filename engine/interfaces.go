package engine

import (
	"context"

	"lingokit/core"
)

// Storage abstracts persistence for point records. Implementations must
// provide per-key optimistic concurrency: Put succeeds only when the stored
// version still equals expected, so concurrent awards for the same user
// cannot lose an update.
type Storage interface {
	// Get returns the record and its current version. A user with no record
	// yields a zero record and version 0, not an error (get-or-create is the
	// documented default).
	Get(ctx context.Context, user core.UserID) (core.PointRecord, uint64, error)

	// Put writes the record iff the stored version equals expected (0 means
	// "create, must not exist"). Returns the new version, or core.ErrConflict
	// when the conditional write loses the race.
	Put(ctx context.Context, user core.UserID, rec core.PointRecord, expected uint64) (uint64, error)

	// List returns every persisted record; used to rebuild the ranking index.
	List(ctx context.Context) ([]core.PointRecord, error)
}

// UserDirectory answers whether a user account exists, distinguishing
// "unknown user" from "exists but has never earned points".
type UserDirectory interface {
	Exists(ctx context.Context, user core.UserID) (bool, error)
}

// AllowAllDirectory accepts every user; useful when account management
// lives entirely outside the engine.
type AllowAllDirectory struct{}

func (AllowAllDirectory) Exists(context.Context, core.UserID) (bool, error) { return true, nil }
