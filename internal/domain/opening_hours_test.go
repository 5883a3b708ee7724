package domain

import (
	"errors"
	"testing"
	"time"
)

// 2026-11-02 is a Monday
func monday(hour, minute int) time.Time {
	return time.Date(2026, 11, 2, hour, minute, 0, 0, time.UTC)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"8:30", 0, true},
		{"08:60", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOpeningHours_Validate(t *testing.T) {
	tests := []struct {
		name    string
		hours   OpeningHours
		wantErr error
	}{
		{"empty schedule", OpeningHours{}, nil},
		{"valid week", OpeningHours{
			{Day: "monday", Open: "08:00", Close: "20:00"},
			{Day: "sunday", Open: "10:00", Close: "24:00"},
		}, nil},
		{"unknown day", OpeningHours{{Day: "funday", Open: "08:00", Close: "20:00"}}, ErrInvalidOpeningDay},
		{"bad time", OpeningHours{{Day: "monday", Open: "8am", Close: "20:00"}}, ErrInvalidOpeningTime},
		{"open after close", OpeningHours{{Day: "monday", Open: "20:00", Close: "08:00"}}, ErrOpeningAfterClosing},
		{"zero length", OpeningHours{{Day: "monday", Open: "08:00", Close: "08:00"}}, ErrOpeningAfterClosing},
		{"duplicate day", OpeningHours{
			{Day: "monday", Open: "08:00", Close: "12:00"},
			{Day: "monday", Open: "13:00", Close: "20:00"},
		}, ErrDuplicateOpeningDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hours.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOpeningHours_Normalize(t *testing.T) {
	hours := OpeningHours{{Day: " Monday ", Open: " 08:00", Close: "20:00 "}}.Normalize()
	if hours[0].Day != "monday" || hours[0].Open != "08:00" || hours[0].Close != "20:00" {
		t.Errorf("Unexpected normalized entry: %+v", hours[0])
	}
}

func TestOpeningHours_Contains(t *testing.T) {
	hours := OpeningHours{
		{Day: "monday", Open: "08:00", Close: "20:00"},
		{Day: "tuesday", Open: "18:00", Close: "24:00"},
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"inside", monday(9, 0), monday(10, 0), true},
		{"exactly the window", monday(8, 0), monday(20, 0), true},
		{"starts before open", monday(7, 30), monday(9, 0), false},
		{"ends after close", monday(19, 0), monday(20, 30), false},
		{"entirely outside", monday(21, 0), monday(22, 0), false},
		{"day without entry", monday(9, 0).AddDate(0, 0, 2), monday(10, 0).AddDate(0, 0, 2), false},
		{"spans midnight", monday(19, 0), monday(1, 0).AddDate(0, 0, 1), false},
		{"ends at midnight with 24:00 close", monday(22, 0).AddDate(0, 0, 1), monday(0, 0).AddDate(0, 0, 2), true},
		{"ends a second past close", monday(19, 0), monday(20, 0).Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hours.Contains(tt.start, tt.end, time.UTC)
			if got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestOpeningHours_ContainsEmptyIsUnrestricted(t *testing.T) {
	var hours OpeningHours
	if !hours.Contains(monday(2, 0), monday(5, 0).AddDate(0, 0, 3), time.UTC) {
		t.Error("Expected empty schedule to accept any range")
	}
}

func TestOpeningHours_ContainsUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	hours := OpeningHours{{Day: "monday", Open: "08:00", Close: "20:00"}}

	// 14:00-15:00 UTC is 09:00-10:00 at UTC-5
	if !hours.Contains(monday(14, 0), monday(15, 0), loc) {
		t.Error("Expected booking to be inside hours in the building location")
	}
	// 09:00-10:00 UTC is 04:00-05:00 at UTC-5
	if hours.Contains(monday(9, 0), monday(10, 0), loc) {
		t.Error("Expected booking to be outside hours in the building location")
	}
}
