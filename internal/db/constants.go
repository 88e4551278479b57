package db

import "time"

// timestampLayout is how every timestamp is written: UTC, second precision,
// comparable as text and understood by SQLite's date functions.
const timestampLayout = "2006-01-02 15:04:05"

var timeFormats = []string{
	timestampLayout,
	"2006-01-02T15:04:05Z",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
