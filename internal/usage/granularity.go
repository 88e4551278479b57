// Package usage turns raw per-call usage events into dense, zero-filled time
// series. Everything here is pure: no I/O and no state shared between calls.
package usage

import "time"

// HourlyThreshold is the longest span that is still charted hourly.
const HourlyThreshold = 3 * 24 * time.Hour

// BucketKey labels one time slot. Keys produced by the same Granularity
// compare equal exactly when they denote the same slot.
type BucketKey string

// Granularity is the bucket strategy: how far one step advances and how an
// instant is formatted into a key.
type Granularity struct {
	name   string
	layout string
	label  string
	step   func(time.Time) time.Time
}

var (
	// Hourly buckets advance one hour at a time. The key carries the zone
	// offset so the repeated hour at a DST fall-back stays distinct.
	Hourly = Granularity{
		name:   "hourly",
		layout: "2006-01-02T15:00Z07:00",
		label:  "Jan 2 15:00",
		step:   func(t time.Time) time.Time { return t.Add(time.Hour) },
	}

	// Daily buckets advance one calendar day at a time.
	Daily = Granularity{
		name:   "daily",
		layout: "2006-01-02",
		label:  "Jan 2",
		step: func(t time.Time) time.Time {
			y, m, d := t.Date()
			return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
		},
	}
)

// SelectGranularity picks Hourly when end is at most HourlyThreshold after
// start and Daily otherwise. The bounds are taken as given, before any
// whole-day widening.
func SelectGranularity(start, end time.Time) Granularity {
	if end.Sub(start) <= HourlyThreshold {
		return Hourly
	}
	return Daily
}

// String returns "hourly" or "daily".
func (g Granularity) String() string {
	return g.name
}

// Key formats t into its bucket key. t should already be in the location
// the range was materialized in.
func (g Granularity) Key(t time.Time) BucketKey {
	return BucketKey(t.Format(g.layout))
}

// Label formats t for display.
func (g Granularity) Label(t time.Time) string {
	return t.Format(g.label)
}

// Next returns the start of the bucket following the one starting at t.
func (g Granularity) Next(t time.Time) time.Time {
	return g.step(t)
}

// EventKeyFunc returns a formatter that keys events by their timestamp as
// seen in loc.
func (g Granularity) EventKeyFunc(loc *time.Location) func(e Event) BucketKey {
	return func(e Event) BucketKey {
		return g.Key(e.Timestamp.In(loc))
	}
}
