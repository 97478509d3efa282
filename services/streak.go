package services

import "time"

type StreakOutcome string

const (
	StreakStarted  StreakOutcome = "started"
	StreakExtended StreakOutcome = "extended"
	StreakSameDay  StreakOutcome = "same_day"
	StreakReset    StreakOutcome = "reset"
)

// StreakPolicy controls how activity days are compared.
type StreakPolicy struct {
	// Location defines calendar day boundaries. Nil means UTC.
	Location *time.Location
	// CountSameDay increments the streak on every activity within the same
	// calendar day. When false a repeat on the same day leaves it unchanged.
	CountSameDay bool
}

// NextStreak computes the streak after an activity at now, given the
// previous activity time and the current streak.
func NextStreak(last *time.Time, now time.Time, current int, policy StreakPolicy) (int, StreakOutcome) {
	if current < 0 {
		current = 0
	}
	if last == nil || last.IsZero() {
		return 1, StreakStarted
	}

	loc := policy.Location
	if loc == nil {
		loc = time.UTC
	}
	today := calendarDay(now, loc)
	lastDay := calendarDay(*last, loc)

	switch {
	case lastDay.Equal(today):
		if policy.CountSameDay {
			return current + 1, StreakSameDay
		}
		if current < 1 {
			return 1, StreakSameDay
		}
		return current, StreakSameDay
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		return current + 1, StreakExtended
	default:
		return 1, StreakReset
	}
}

// calendarDay maps t to midnight UTC of its date in loc, so day arithmetic
// is free of DST shifts.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
