package models

import (
	"strconv"
	"strings"
	"time"
)

// DateRange is a preset window for the usage view.
type DateRange int

const (
	// DateRangeToday covers the current calendar day.
	DateRangeToday DateRange = iota
	// DateRange3Days covers today and the two days before it.
	DateRange3Days
	// DateRange7Days covers the last 7 calendar days.
	DateRange7Days
	// DateRange30Days covers the last 30 calendar days.
	DateRange30Days
	// DateRange90Days covers the last 90 calendar days.
	DateRange90Days
	// DateRangeNone leaves the window unset.
	DateRangeNone

	dateRangeCount = int(DateRangeNone) + 1
)

// DefaultDateRange is the preset selected on startup.
const DefaultDateRange = DateRange7Days

// String returns the display name for a date range.
func (r DateRange) String() string {
	switch r {
	case DateRangeToday:
		return "Today"
	case DateRange3Days:
		return "Last 3 days"
	case DateRange7Days:
		return "Last 7 days"
	case DateRange30Days:
		return "Last 30 days"
	case DateRange90Days:
		return "Last 90 days"
	case DateRangeNone:
		return "No range"
	default:
		return "Unknown"
	}
}

// Days returns the number of calendar days covered (0 = unset).
func (r DateRange) Days() int {
	switch r {
	case DateRangeToday:
		return 1
	case DateRange3Days:
		return 3
	case DateRange7Days:
		return 7
	case DateRange30Days:
		return 30
	case DateRange90Days:
		return 90
	default:
		return 0
	}
}

// Next cycles to the next date range.
func (r DateRange) Next() DateRange {
	return DateRange((int(r) + 1) % dateRangeCount)
}

// Bounds resolves the preset against now. Both bounds are nil for
// DateRangeNone. The start is the beginning of the first covered day.
func (r DateRange) Bounds(now time.Time) (from, to *time.Time) {
	days := r.Days()
	if days == 0 {
		return nil, nil
	}
	y, m, d := now.Date()
	start := time.Date(y, m, d-(days-1), 0, 0, 0, 0, now.Location())
	end := now
	return &start, &end
}

// Code returns the short form used in query strings, e.g. "7d".
func (r DateRange) Code() string {
	switch r {
	case DateRangeToday:
		return "today"
	case DateRangeNone:
		return "none"
	default:
		if d := r.Days(); d > 0 {
			return strconv.Itoa(d) + "d"
		}
		return ""
	}
}

// ParseDateRange parses the form produced by Code.
func ParseDateRange(s string) (DateRange, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r := range DateRange(dateRangeCount) {
		if r.Code() == s {
			return r, true
		}
	}
	return 0, false
}
