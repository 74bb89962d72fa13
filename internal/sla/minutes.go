package sla

import (
	"math"
	"time"
)

// MinutesBetween returns the elapsed minutes between entry and attendance,
// rounded to the nearest minute and clamped at zero. Clock skew between the
// CRM and this service can make attendance appear to precede entry; that
// never yields a negative SLA.
func MinutesBetween(enteredAt, attendedAt time.Time) int {
	minutes := int(math.Round(attendedAt.Sub(enteredAt).Minutes()))
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Thresholds holds one pair of status boundaries in minutes. The dashboard
// cards and the hourly chart legend carry separately tuned pairs.
type Thresholds struct {
	GoodMax     int
	ModerateMax int
}

// Status labels used by the dashboard.
const (
	StatusGood     = "Bom"
	StatusModerate = "Moderado"
	StatusCritical = "Crítico"
)

// Status classifies an average response time against the given thresholds.
func (t Thresholds) Status(avgMinutes int) string {
	switch {
	case avgMinutes <= t.GoodMax:
		return StatusGood
	case avgMinutes <= t.ModerateMax:
		return StatusModerate
	default:
		return StatusCritical
	}
}
