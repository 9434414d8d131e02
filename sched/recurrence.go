package sched

import "time"

// NextOccurrence returns when the next occurrence of a recurring scheduled
// task should fire, relative to ref. ok is false for ONCE and unknown
// patterns.
//
// ref is the processing instant, not the original scheduled time, so a
// delayed run shifts all future occurrences forward by the same delay.
// MONTHLY is a fixed 30 days, not a calendar month; that approximation is
// inherited behavior and callers depend on it being exact.
func NextOccurrence(p RecurrencePattern, ref time.Time) (time.Time, bool) {
	switch p {
	case RecurDaily:
		return ref.Add(24 * time.Hour), true
	case RecurWeekly:
		return ref.Add(7 * 24 * time.Hour), true
	case RecurMonthly:
		return ref.Add(30 * 24 * time.Hour), true
	}
	return time.Time{}, false
}
