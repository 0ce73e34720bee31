package data

import "time"

// timeLayout is RFC3339 with fixed-width nanoseconds. RFC3339Nano trims
// trailing zeros, which breaks lexicographic ordering in SQL; the fixed
// width keeps string order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime converts a time.Time to a sortable UTC timestamp string, the
// canonical representation in the AnonVerse tables.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses a canonical timestamp string back to time.Time. Accepts
// any RFC3339 variant, not just the fixed-width form.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
