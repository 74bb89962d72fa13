package sla

import (
	"fmt"
	"time"
)

// Period names accepted by the lead listing filters.
const (
	PeriodToday      = "today"
	Period7Days      = "7days"
	Period15Days     = "15days"
	Period30Days     = "30days"
	PeriodAll        = "all"
	DefaultPeriod    = Period30Days
	BusinessDayStart = 6
	BusinessDayEnd   = 22
)

// DayStart returns midnight of the given instant in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// MonthStart returns the first day of the month of t in loc, at midnight.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// DaysAgo returns midnight of the day `days` before t in loc.
func DaysAgo(t time.Time, days int, loc *time.Location) time.Time {
	return DayStart(t, loc).AddDate(0, 0, -days)
}

// PeriodStart converts a period name to its window start. The zero time with
// ok=false means no lower bound ("all"). Unrecognized periods fall back to
// the 30-day window.
func PeriodStart(period string, now time.Time, loc *time.Location) (time.Time, bool) {
	switch period {
	case PeriodToday:
		return DayStart(now, loc), true
	case Period7Days:
		return DaysAgo(now, 7, loc), true
	case Period15Days:
		return DaysAgo(now, 15, loc), true
	case Period30Days, "":
		return DaysAgo(now, 30, loc), true
	case PeriodAll:
		return time.Time{}, false
	default:
		return DaysAgo(now, 30, loc), true
	}
}

// FormatHourRange renders an hour bucket label, e.g. "08h–09h".
func FormatHourRange(hour int) string {
	return fmt.Sprintf("%02dh–%02dh", hour, (hour+1)%24)
}
