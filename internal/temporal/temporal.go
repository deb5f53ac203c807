// Package temporal parses the date, time and date-time literal forms
// accepted in filters and records.
package temporal

import (
	"strings"
	"time"
)

// Accepted date-time layouts, tried in order. Layouts without a zone are
// read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Accepted time-of-day layouts.
var timeOfDayLayouts = []string{
	"15:04:05.999999999",
	"15:04",
}

// ParseDateTime parses a date or date-time and returns the instant in UTC.
func ParseDateTime(s string) (time.Time, bool) {
	t, ok := parse(s)
	if !ok {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// ParseWallClock parses a date or date-time and returns its wall clock as
// written, relabelled as UTC. The offset of a zoned literal is dropped.
func ParseWallClock(s string) (time.Time, bool) {
	t, ok := parse(s)
	if !ok {
		return time.Time{}, false
	}
	return WallClock(t), true
}

// ParseDate parses a date or date-time and returns midnight UTC of the
// calendar day as written.
func ParseDate(s string) (time.Time, bool) {
	t, ok := parse(s)
	if !ok {
		return time.Time{}, false
	}
	return StartOfDay(t), true
}

func parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimeOfDay parses a time of day into the offset since midnight. A full
// date-time contributes its time of day in UTC.
func ParseTimeOfDay(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return SinceMidnight(t), true
		}
	}
	if t, ok := ParseDateTime(s); ok {
		return SinceMidnight(t), true
	}
	return 0, false
}

// SinceMidnight returns the time of day of t in UTC.
func SinceMidnight(t time.Time) time.Duration {
	t = t.UTC()
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

// WallClock returns the wall clock of t in its own zone, relabelled as UTC.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// StartOfDay returns midnight UTC of the calendar day of t in its own zone.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
