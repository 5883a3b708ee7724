package util

import (
	"testing"
	"time"
)

func TestMonthStart(t *testing.T) {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	// 2026-03-01 03:00 UTC is still February 28 in Toronto
	got := MonthStart(time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC), loc)
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("MonthStart() = %v, want %v", got, want)
	}
}

func TestMonthStart_NilLocation(t *testing.T) {
	got := MonthStart(time.Date(2026, 7, 19, 15, 4, 5, 0, time.UTC), nil)
	want := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("MonthStart() = %v, want %v", got, want)
	}
}

func TestYearStart(t *testing.T) {
	got := YearStart(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), time.UTC)
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("YearStart() = %v, want %v", got, want)
	}
}

func TestMonthsBefore(t *testing.T) {
	tests := []struct {
		name   string
		in     time.Time
		months int
		want   time.Time
	}{
		{
			name:   "twelve months",
			in:     time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
			months: 12,
			want:   time.Date(2025, 10, 18, 9, 30, 0, 0, time.UTC),
		},
		{
			name:   "clamps to end of shorter month",
			in:     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "crosses year boundary",
			in:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			months: 2,
			want:   time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthsBefore(tt.in, tt.months)
			if !got.Equal(tt.want) {
				t.Errorf("MonthsBefore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateActualDate(t *testing.T) {
	tests := []struct {
		year      int
		month     time.Month
		targetDay int
		wantDay   int
	}{
		{2026, time.January, 31, 31},
		{2026, time.February, 31, 28},
		{2028, time.February, 30, 29}, // leap year
		{2026, time.April, 31, 30},
		{2026, time.June, 15, 15},
	}

	for _, tt := range tests {
		got := CalculateActualDate(tt.year, tt.month, tt.targetDay)
		if got.Day() != tt.wantDay {
			t.Errorf("CalculateActualDate(%d, %v, %d) = day %d, want %d",
				tt.year, tt.month, tt.targetDay, got.Day(), tt.wantDay)
		}
	}
}
