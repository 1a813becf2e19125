package models

import (
	"strings"
	"time"
)

// DisplayDateLayout is the calendar format used in tables.
const DisplayDateLayout = "2006/01/02"

const secondsPerDay = 24 * 60 * 60

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	DisplayDateLayout,
}

// ParseDate parses a date in any of the layouts seen in fetched records and
// exported tables. It never fails: blank, "none" or unparseable input reports false.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "none") || strings.EqualFold(raw, "null") {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a raw date for display, or "" when it does not parse.
func FormatDate(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// DaysBetween returns the whole calendar days elapsed from `from` to `to`.
// Partial days are dropped, negative spans floor toward the earlier day.
func DaysBetween(from, to time.Time) int {
	d := to.Unix() - from.Unix()
	days := d / secondsPerDay
	if d%secondsPerDay != 0 && d < 0 {
		days--
	}
	return int(days)
}
