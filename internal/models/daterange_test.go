package models

import (
	"testing"
	"time"
)

func TestDateRange_String(t *testing.T) {
	tests := []struct {
		name string
		r    DateRange
		want string
	}{
		{"Today", DateRangeToday, "Today"},
		{"3Days", DateRange3Days, "Last 3 days"},
		{"7Days", DateRange7Days, "Last 7 days"},
		{"30Days", DateRange30Days, "Last 30 days"},
		{"90Days", DateRange90Days, "Last 90 days"},
		{"None", DateRangeNone, "No range"},
		{"Unknown", DateRange(999), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.String(); got != tt.want {
				t.Errorf("DateRange.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateRange_Next(t *testing.T) {
	tests := []struct {
		name string
		r    DateRange
		want DateRange
	}{
		{"Today -> 3Days", DateRangeToday, DateRange3Days},
		{"7Days -> 30Days", DateRange7Days, DateRange30Days},
		{"90Days -> None", DateRange90Days, DateRangeNone},
		{"None -> Today", DateRangeNone, DateRangeToday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Next(); got != tt.want {
				t.Errorf("DateRange.Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateRange_Bounds(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	from, to := DateRange7Days.Bounds(now)
	if from == nil || to == nil {
		t.Fatal("expected bounds for 7 days")
	}
	wantFrom := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	if !from.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", from, wantFrom)
	}
	if !to.Equal(now) {
		t.Errorf("to = %v, want %v", to, now)
	}

	from, _ = DateRangeToday.Bounds(now)
	if want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Errorf("today from = %v, want %v", from, want)
	}

	from, to = DateRangeNone.Bounds(now)
	if from != nil || to != nil {
		t.Errorf("expected nil bounds for DateRangeNone, got %v %v", from, to)
	}
}

func TestParseDateRange(t *testing.T) {
	for r := DateRangeToday; r <= DateRangeNone; r++ {
		got, ok := ParseDateRange(r.Code())
		if !ok || got != r {
			t.Errorf("ParseDateRange(%q) = %v, %v; want %v", r.Code(), got, ok, r)
		}
	}

	if got, ok := ParseDateRange(" 30D "); !ok || got != DateRange30Days {
		t.Errorf("ParseDateRange(\" 30D \") = %v, %v", got, ok)
	}
	if _, ok := ParseDateRange("week"); ok {
		t.Error("expected unknown code to fail")
	}
}
