package agents

import (
	"strings"
	"time"
)

// endOfDay is the default hour a spoken deadline lands on.
const endOfDay = 17

// ParseDeadline turns the router's deadline string ("tomorrow", "friday",
// "2026-03-10", "next week") into a concrete time. Returns nil when the
// string is empty or unrecognized.
func ParseDeadline(s string, now time.Time) *time.Time {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		at := time.Date(t.Year(), t.Month(), t.Day(), endOfDay, 0, 0, 0, now.Location())
		return &at
	}

	switch s {
	case "today", "eod", "end of day", "tonight":
		return atHour(now, 0)
	case "tomorrow":
		return atHour(now, 1)
	case "next week":
		return atHour(now, 7)
	}

	if days, ok := daysUntilWeekday(s, now.Weekday()); ok {
		return atHour(now, days)
	}
	return nil
}

func atHour(now time.Time, daysAhead int) *time.Time {
	d := now.AddDate(0, 0, daysAhead)
	t := time.Date(d.Year(), d.Month(), d.Day(), endOfDay, 0, 0, 0, now.Location())
	return &t
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// daysUntilWeekday maps "friday" or "next friday" to a day offset: the
// next occurrence of that weekday, rolling a full week when it names
// today.
func daysUntilWeekday(s string, today time.Weekday) (int, bool) {
	name := strings.TrimPrefix(s, "next ")
	wd, ok := weekdays[name]
	if !ok {
		return 0, false
	}
	days := (int(wd) - int(today) + 7) % 7
	if days == 0 {
		days = 7
	}
	return days, true
}
