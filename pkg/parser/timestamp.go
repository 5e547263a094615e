package parser

import (
	"fmt"
	"time"
)

// NaiveLayout is the "YYYY-MM-DD HH:MM:SS" form, interpreted as UTC.
const NaiveLayout = "2006-01-02 15:04:05"

// timestampLayouts are tried in order. RFC3339 also accepts fractional seconds.
var timestampLayouts = []string{
	time.RFC3339,
	NaiveLayout,
}

// ParseTimestamp parses an RFC3339 timestamp, falling back to the naive
// "YYYY-MM-DD HH:MM:SS" form which is assumed to be UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: not RFC3339 or %q", s, NaiveLayout)
}

// ParseBound parses a --since/--until value, which must be strict RFC3339.
func ParseBound(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid RFC3339 timestamp %q: %w", s, err)
	}
	return ts, nil
}
