package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidOpeningDay   = errors.New("opening hours day must be a weekday name")
	ErrInvalidOpeningTime  = errors.New("opening hours time must be HH:MM")
	ErrOpeningAfterClosing = errors.New("opening time must be before closing time")
	ErrDuplicateOpeningDay = errors.New("opening hours may only list each day once")
)

const minutesPerDay = 24 * 60

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// OpeningHoursEntry is the open window for one weekday, times in 24h HH:MM
type OpeningHoursEntry struct {
	Day   string `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// OpeningHours is a weekly schedule. An empty schedule means unrestricted.
type OpeningHours []OpeningHoursEntry

// ParseClock converts "HH:MM" into minutes after midnight. "24:00" is accepted
// so a window can close at the end of the day.
func ParseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, ErrInvalidOpeningTime
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, ErrInvalidOpeningTime
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, ErrInvalidOpeningTime
	}
	if minutes < 0 || minutes > 59 || hours < 0 || hours > 24 {
		return 0, ErrInvalidOpeningTime
	}
	total := hours*60 + minutes
	if total > minutesPerDay {
		return 0, ErrInvalidOpeningTime
	}
	return total, nil
}

// Normalize lower-cases day names and trims whitespace
func (h OpeningHours) Normalize() OpeningHours {
	out := make(OpeningHours, len(h))
	for i, entry := range h {
		out[i] = OpeningHoursEntry{
			Day:   strings.ToLower(strings.TrimSpace(entry.Day)),
			Open:  strings.TrimSpace(entry.Open),
			Close: strings.TrimSpace(entry.Close),
		}
	}
	return out
}

// Validate checks day names, time format, ordering and uniqueness
func (h OpeningHours) Validate() error {
	seen := make(map[time.Weekday]bool, len(h))
	for _, entry := range h {
		day, ok := weekdayNames[entry.Day]
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidOpeningDay, entry.Day)
		}
		if seen[day] {
			return fmt.Errorf("%w: %s", ErrDuplicateOpeningDay, entry.Day)
		}
		seen[day] = true

		open, err := ParseClock(entry.Open)
		if err != nil {
			return err
		}
		closing, err := ParseClock(entry.Close)
		if err != nil {
			return err
		}
		if open >= closing {
			return fmt.Errorf("%w: %s", ErrOpeningAfterClosing, entry.Day)
		}
	}
	return nil
}

func (h OpeningHours) entryFor(day time.Weekday) (OpeningHoursEntry, bool) {
	for _, entry := range h {
		if d, ok := weekdayNames[entry.Day]; ok && d == day {
			return entry, true
		}
	}
	return OpeningHoursEntry{}, false
}

// Contains reports whether [start, end) falls inside the schedule when both
// instants are read in loc. A booking that ends exactly at the following
// midnight is treated as ending at 24:00 on the start day; any other end on a
// later date spans a day boundary and is rejected.
func (h OpeningHours) Contains(start, end time.Time, loc *time.Location) bool {
	if len(h) == 0 {
		return true
	}
	if loc == nil {
		loc = time.UTC
	}
	start = start.In(loc)
	end = end.In(loc)

	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)

	startMinute := start.Hour()*60 + start.Minute()
	endMinute := end.Hour()*60 + end.Minute()
	if end.Second() > 0 || end.Nanosecond() > 0 {
		// partial minutes past the close still count as past the close
		endMinute++
	}

	switch {
	case startDay.Equal(endDay):
	case endDay.Equal(startDay.AddDate(0, 0, 1)) && endMinute == 0:
		endMinute = minutesPerDay
	default:
		return false
	}

	entry, ok := h.entryFor(start.Weekday())
	if !ok {
		return false
	}
	open, err := ParseClock(entry.Open)
	if err != nil {
		return false
	}
	closing, err := ParseClock(entry.Close)
	if err != nil {
		return false
	}
	return open <= startMinute && endMinute <= closing
}
