package utils

import "time"

// TimestampLayout is a fixed-width UTC layout. Stored timestamps sort
// lexicographically in the same order as chronologically, which the
// entity_type/created_at index relies on.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout and falls back to RFC3339 with
// fractional seconds. Empty input yields the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
