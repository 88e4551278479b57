package usage

import (
	"fmt"
	"time"
)

// InvalidRangeError is returned when a range starts after it ends.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s is after end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// Bucket is one materialized slot.
type Bucket struct {
	Start time.Time
	Key   BucketKey
}

// Materialize lists every bucket between start and end inclusive. start is
// widened to 00:00:00 of its calendar day and end to 23:59:59 of its day,
// both in start's location, so whole days are always covered.
func Materialize(start, end time.Time, g Granularity) ([]Bucket, error) {
	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	if g.step == nil {
		return nil, fmt.Errorf("materialize: zero granularity")
	}

	from, to := DayBounds(start, end)

	var buckets []Bucket
	for cursor := from; !cursor.After(to); cursor = g.Next(cursor) {
		buckets = append(buckets, Bucket{Start: cursor, Key: g.Key(cursor)})
	}
	return buckets, nil
}

// DayBounds widens start and end to whole calendar days in start's location.
func DayBounds(start, end time.Time) (from, to time.Time) {
	loc := start.Location()
	end = end.In(loc)

	y, m, d := start.Date()
	from = time.Date(y, m, d, 0, 0, 0, 0, loc)
	y, m, d = end.Date()
	to = time.Date(y, m, d, 23, 59, 59, 0, loc)
	return from, to
}
