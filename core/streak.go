package core

import "time"

// NextStreak applies the consecutive-day rule: the streak grows by one when
// the new activity falls on the calendar day after the last one, resets to 1
// after a gap, and is unchanged by same-day repeats. Days are UTC calendar
// days, not 24h windows.
func NextStreak(current int, last, now time.Time) int {
	if current < 1 {
		current = 0
	}
	if last.IsZero() {
		return 1
	}
	lastDay := dayOf(last)
	nowDay := dayOf(now)
	switch {
	case nowDay.Equal(lastDay):
		if current == 0 {
			return 1
		}
		return current
	case nowDay.Equal(lastDay.AddDate(0, 0, 1)):
		return current + 1
	case nowDay.Before(lastDay):
		// out-of-order delivery; never shrink an established streak
		if current == 0 {
			return 1
		}
		return current
	default:
		return 1
	}
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
