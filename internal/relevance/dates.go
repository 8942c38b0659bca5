package relevance

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Feeds report publication dates as ISO 8601, RFC 2822, or LinkedIn-style
// relative tokens ("3d", "2w", "1mo", "1yr").
var linkedinRelativeRe = regexp.MustCompile(`(?i)^\s*(\d+)\s*(mo|min|mi|yr|hr|w|d|h|m|s)\w*\s*$`)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 GMT",
	"2 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 -0700",
}

// ParsePublishedDate parses a feed-reported publication date into UTC.
// Relative tokens are resolved against the current clock. Returns false for
// empty or unparseable input.
func ParsePublishedDate(raw string) (time.Time, bool) {
	return ParsePublishedDateAt(raw, time.Now().UTC())
}

// ParsePublishedDateAt is ParsePublishedDate with an explicit clock for
// resolving relative tokens.
func ParsePublishedDateAt(raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if m := linkedinRelativeRe.FindStringSubmatch(raw); m != nil {
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		unitSeconds, ok := relativeUnitSeconds(strings.ToLower(m[2]))
		if !ok {
			return time.Time{}, false
		}
		delta := time.Duration(amount) * time.Duration(unitSeconds) * time.Second
		return now.UTC().Add(-delta), true
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func relativeUnitSeconds(unit string) (int64, bool) {
	switch unit {
	case "s":
		return 1, true
	case "m", "mi", "min":
		return 60, true
	case "h", "hr":
		return 3600, true
	case "d":
		return 86400, true
	case "w":
		return 7 * 86400, true
	case "mo":
		return 30 * 86400, true
	case "yr":
		return 365 * 86400, true
	}
	return 0, false
}

// MonthsSince returns the fractional number of 30-day months between t and
// now, floored at zero.
func MonthsSince(t, now time.Time) float64 {
	seconds := now.Sub(t).Seconds()
	if seconds < 0 {
		return 0
	}
	return seconds / (30 * 86400)
}
