package util

import "time"

// MonthStart returns midnight on the first day of t's month, in loc
func MonthStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// YearStart returns midnight on January 1 of t's year, in loc
func YearStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
}

// MonthsBefore returns t moved back by the given number of months, clamped to
// the last day of the target month (Mar 31 minus one month is Feb 28/29)
func MonthsBefore(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month-time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := CalculateActualDate(target.Year(), target.Month(), day).Day()
	return time.Date(target.Year(), target.Month(), lastDay, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// CalculateActualDate returns the actual date for a target day in a given month,
// handling months with fewer days (e.g., day 31 in February returns Feb 28/29)
func CalculateActualDate(year int, month time.Month, targetDay int) time.Time {
	// Get last day of month by going to day 0 of next month
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	actualDay := targetDay
	if actualDay > lastDay {
		actualDay = lastDay
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, time.UTC)
}
