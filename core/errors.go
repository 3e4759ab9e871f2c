package core

import "errors"

// Error taxonomy. Caller errors (unknown user, malformed events) are surfaced
// as-is and never retried; conflict and unavailable are the storage-facing
// pair used by the optimistic-retry award path.
var (
	// ErrUserNotFound indicates the user directory does not know the user.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidActivityType indicates an unrecognized activity tag.
	ErrInvalidActivityType = errors.New("invalid activity type")

	// ErrInvalidMetadata indicates malformed activity metadata.
	ErrInvalidMetadata = errors.New("invalid activity metadata")

	// ErrInsufficientPoints indicates a redemption exceeding the available balance.
	ErrInsufficientPoints = errors.New("insufficient available points")

	// ErrConflict is returned by storage when a conditional write loses the race.
	ErrConflict = errors.New("storage version conflict")

	// ErrUnavailable is returned after transient storage failures exhaust retries.
	// No partial update has been committed when this is returned.
	ErrUnavailable = errors.New("storage unavailable")
)
