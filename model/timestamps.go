package model

import "time"

// TimestampLayout is the layout used for timestamps embedded in entities and user data
const TimestampLayout = time.RFC3339

// FormatTimestamp formats the time in UTC using TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a timestamp produced by FormatTimestamp
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}
