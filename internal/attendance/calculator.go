package attendance

import (
	"sort"
	"time"

	"github.com/lead-speed/sla-monitor/internal/domain"
)

// Shift windows in local hours of the reference time zone. Both windows are
// half-open: an action at 12:30 belongs to neither shift but still counts
// toward the day total.
const (
	MorningStartHour   = 6
	MorningEndHour     = 12
	AfternoonStartHour = 13
	AfternoonEndHour   = 18
)

// FlowEvent is one lead movement performed by an SDR, as fed into the
// journey calculator.
type FlowEvent struct {
	SDRID      string
	SDRName    string
	Timestamp  time.Time
	DealID     string
	EventType  string
	PipelineID string
	StageID    string
}

func inMorning(hour int) bool {
	return hour >= MorningStartHour && hour < MorningEndHour
}

func inAfternoon(hour int) bool {
	return hour >= AfternoonStartHour && hour < AfternoonEndHour
}

// Calculate groups events per SDR per calendar day in loc and summarizes
// morning and afternoon activity. Events without an SDR id or timestamp are
// skipped. Output is ordered by date descending, then SDR name.
func Calculate(events []FlowEvent, loc *time.Location) []domain.SDRDailyShiftMetrics {
	if len(events) == 0 {
		return []domain.SDRDailyShiftMetrics{}
	}

	type key struct {
		sdrID string
		date  string
	}
	groups := map[key]*domain.SDRDailyShiftMetrics{}

	for i := range events {
		ev := &events[i]
		if ev.SDRID == "" || ev.Timestamp.IsZero() {
			continue
		}
		local := ev.Timestamp.In(loc)
		k := key{sdrID: ev.SDRID, date: local.Format("2006-01-02")}

		m, ok := groups[k]
		if !ok {
			m = &domain.SDRDailyShiftMetrics{
				SDRID:   ev.SDRID,
				SDRName: ev.SDRName,
				Date:    k.date,
			}
			groups[k] = m
		}
		if m.SDRName == "" {
			m.SDRName = ev.SDRName
		}

		switch hour := local.Hour(); {
		case inMorning(hour):
			recordAction(&m.Morning, ev.Timestamp)
		case inAfternoon(hour):
			recordAction(&m.Afternoon, ev.Timestamp)
		}
		m.TotalActions++
	}

	result := make([]domain.SDRDailyShiftMetrics, 0, len(groups))
	for _, m := range groups {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return displayName(result[i]) < displayName(result[j])
	})
	return result
}

// CalculateForSDR restricts the journey to one SDR.
func CalculateForSDR(events []FlowEvent, sdrID string, loc *time.Location) []domain.SDRDailyShiftMetrics {
	filtered := make([]FlowEvent, 0, len(events))
	for _, ev := range events {
		if ev.SDRID == sdrID {
			filtered = append(filtered, ev)
		}
	}
	return Calculate(filtered, loc)
}

// CalculateForDate restricts the journey to one calendar day (YYYY-MM-DD in
// loc).
func CalculateForDate(events []FlowEvent, date string, loc *time.Location) []domain.SDRDailyShiftMetrics {
	all := Calculate(events, loc)
	filtered := make([]domain.SDRDailyShiftMetrics, 0, len(all))
	for _, m := range all {
		if m.Date == date {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func recordAction(shift *domain.ShiftMetrics, ts time.Time) {
	if shift.FirstAction == nil || ts.Before(*shift.FirstAction) {
		t := ts
		shift.FirstAction = &t
	}
	if shift.LastAction == nil || ts.After(*shift.LastAction) {
		t := ts
		shift.LastAction = &t
	}
	shift.ActionCount++
}

func displayName(m domain.SDRDailyShiftMetrics) string {
	if m.SDRName != "" {
		return m.SDRName
	}
	return m.SDRID
}
