package utils

import "time"

// FormatTimestamp renders a timestamp in RFC3339Nano. Stored timestamps
// double as sort key attributes, so the format must stay stable.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTimestamp parses an RFC3339Nano timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
