package article

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the normalized form of a publish date.
const DateLayout = "2006-01-02 15:04:05-07:00"

// maxDateLength bounds the prefix tried when the full string matches no
// layout, so trailing text after a date is ignored.
const maxDateLength = 25

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05-0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"1/2/2006",
	"2/1/2006",
}

// ParseDate tries every known layout in order. Dates without an offset are
// taken as UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, ok := parseLayouts(raw); ok {
		return t, true
	}
	if len(raw) > maxDateLength {
		return parseLayouts(raw[:maxDateLength])
	}
	return time.Time{}, false
}

func parseLayouts(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate formats raw with DateLayout, or returns it trimmed when no
// layout matches.
func NormalizeDate(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	return t.Format(DateLayout)
}

// WithinRecencyWindow keeps dates at or after cutoff. Missing and
// unparseable dates are kept.
func WithinRecencyWindow(date string, cutoff time.Time) (bool, string) {
	t, ok := ParseDate(date)
	if !ok {
		return true, ""
	}
	if !t.Before(cutoff) {
		return true, ""
	}
	return false, fmt.Sprintf("date %s older than cutoff %s", t.Format(time.DateOnly), cutoff.Format(time.DateOnly))
}
