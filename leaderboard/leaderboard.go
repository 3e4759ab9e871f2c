package leaderboard

import (
	"time"

	"lingokit/core"
)

// Entry represents a score entry. Created is the account-creation time used
// as the deterministic tie-break: of two users on equal points, the earlier
// account ranks higher.
type Entry struct {
	User    core.UserID
	Score   int64
	Created time.Time
}

// Board abstracts leaderboard operations.
type Board interface {
	Update(e Entry)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
	Rank(user core.UserID) (int, bool)
	Len() int
}
