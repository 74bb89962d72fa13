package sla

import (
	"math"
	"sort"
	"time"

	"github.com/lead-speed/sla-monitor/internal/domain"
)

// GeneralMetrics summarizes the operation over a window of leads.
type GeneralMetrics struct {
	TotalLeads    int `json:"total_leads"`
	AttendedLeads int `json:"attended_leads"`
	PendingLeads  int `json:"pending_leads"`
	AvgSLAMinutes int `json:"avg_sla_minutes"`
	MaxSLAMinutes int `json:"max_sla_minutes"`
	MinSLAMinutes int `json:"min_sla_minutes"`
}

// SDRPerformance is one row of the response-time ranking.
type SDRPerformance struct {
	SDRID         string `json:"sdr_id"`
	SDRName       string `json:"sdr_name"`
	AverageTime   int    `json:"average_time"`
	LeadsAttended int    `json:"leads_attended"`
}

// TimelinePoint is one day of the intake timeline chart.
type TimelinePoint struct {
	Date    string `json:"date"`
	Average int    `json:"average"`
	Count   int    `json:"count"`
}

// DailyAverage is one day of the trailing-week chart.
type DailyAverage struct {
	Date   string `json:"date"`
	AvgSLA int    `json:"avg_sla"`
}

// HourlyPerformance is one business-hour bucket of today's attendance.
type HourlyPerformance struct {
	Hour   int    `json:"hour"`
	Label  string `json:"label"`
	AvgSLA int    `json:"avg_sla"`
	Count  int    `json:"count"`
	Status string `json:"status"`
}

// General computes the headline counters over a snapshot of leads. Empty
// input yields all zeros.
func General(leads []domain.Lead) GeneralMetrics {
	m := GeneralMetrics{TotalLeads: len(leads)}
	sum := 0
	for i := range leads {
		if leads[i].SLAMinutes == nil {
			continue
		}
		v := *leads[i].SLAMinutes
		if m.AttendedLeads == 0 {
			m.MaxSLAMinutes = v
			m.MinSLAMinutes = v
		} else {
			if v > m.MaxSLAMinutes {
				m.MaxSLAMinutes = v
			}
			if v < m.MinSLAMinutes {
				m.MinSLAMinutes = v
			}
		}
		m.AttendedLeads++
		sum += v
	}
	m.PendingLeads = m.TotalLeads - m.AttendedLeads
	if m.AttendedLeads > 0 {
		m.AvgSLAMinutes = roundedMean(sum, m.AttendedLeads)
	}
	return m
}

// Ranking groups attended leads by SDR and orders them by ascending average
// response time. SDRs without attended leads never appear; ties keep the
// order in which the SDRs were first seen in the input.
func Ranking(leads []domain.Lead) []SDRPerformance {
	type group struct {
		name  string
		total int
		count int
	}
	groups := map[string]*group{}
	order := []string{}

	for i := range leads {
		l := &leads[i]
		if l.SDRID == nil || l.SLAMinutes == nil {
			continue
		}
		g, ok := groups[*l.SDRID]
		if !ok {
			name := "Desconhecido"
			if l.SDRName != nil && *l.SDRName != "" {
				name = *l.SDRName
			}
			g = &group{name: name}
			groups[*l.SDRID] = g
			order = append(order, *l.SDRID)
		}
		g.total += *l.SLAMinutes
		g.count++
	}

	ranking := make([]SDRPerformance, 0, len(order))
	for _, id := range order {
		g := groups[id]
		ranking = append(ranking, SDRPerformance{
			SDRID:         id,
			SDRName:       g.name,
			AverageTime:   roundedMean(g.total, g.count),
			LeadsAttended: g.count,
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].AverageTime < ranking[j].AverageTime
	})
	return ranking
}

// Timeline groups leads by the calendar day they entered the funnel and
// averages the computed SLA of that day's intake. Leads still pending are
// excluded. Output is ordered by day.
func Timeline(leads []domain.Lead, loc *time.Location) []TimelinePoint {
	type bucket struct {
		total int
		count int
	}
	buckets := map[string]*bucket{}
	for i := range leads {
		l := &leads[i]
		if l.SLAMinutes == nil {
			continue
		}
		day := l.EnteredAt.In(loc).Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.total += *l.SLAMinutes
		b.count++
	}

	points := make([]TimelinePoint, 0, len(buckets))
	for day, b := range buckets {
		points = append(points, TimelinePoint{
			Date:    day,
			Average: roundedMean(b.total, b.count),
			Count:   b.count,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// TrailingDailyAverage builds the trailing 7-calendar-day series ending on
// the day of now, inclusive. Days without attended leads are emitted with a
// zero average so the series always has 7 points.
func TrailingDailyAverage(leads []domain.Lead, now time.Time, loc *time.Location) []DailyAverage {
	type bucket struct {
		total int
		count int
	}
	buckets := map[string]*bucket{}
	for i := range leads {
		l := &leads[i]
		if l.AttendedAt == nil || l.SLAMinutes == nil {
			continue
		}
		day := l.AttendedAt.In(loc).Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.total += *l.SLAMinutes
		b.count++
	}

	series := make([]DailyAverage, 0, 7)
	start := DaysAgo(now, 6, loc)
	for d := 0; d < 7; d++ {
		day := start.AddDate(0, 0, d)
		entry := DailyAverage{Date: day.Format("02/01")}
		if b, ok := buckets[day.Format("2006-01-02")]; ok {
			entry.AvgSLA = roundedMean(b.total, b.count)
		}
		series = append(series, entry)
	}
	return series
}

// Hourly buckets leads attended during the current calendar day by the hour
// of attendance, restricted to business hours. Every business hour is
// present even when empty, so past bars stay visible until midnight.
func Hourly(leads []domain.Lead, now time.Time, loc *time.Location, t Thresholds) []HourlyPerformance {
	type bucket struct {
		total int
		count int
	}
	dayStart := DayStart(now, loc)
	buckets := map[int]*bucket{}

	for i := range leads {
		l := &leads[i]
		if l.AttendedAt == nil || l.SLAMinutes == nil {
			continue
		}
		attended := l.AttendedAt.In(loc)
		if attended.Before(dayStart) || attended.After(now.In(loc)) {
			continue
		}
		hour := attended.Hour()
		if hour < BusinessDayStart || hour > BusinessDayEnd {
			continue
		}
		b, ok := buckets[hour]
		if !ok {
			b = &bucket{}
			buckets[hour] = b
		}
		b.total += *l.SLAMinutes
		b.count++
	}

	result := make([]HourlyPerformance, 0, BusinessDayEnd-BusinessDayStart+1)
	for h := BusinessDayStart; h <= BusinessDayEnd; h++ {
		avg, count := 0, 0
		if b, ok := buckets[h]; ok {
			avg = roundedMean(b.total, b.count)
			count = b.count
		}
		result = append(result, HourlyPerformance{
			Hour:   h,
			Label:  FormatHourRange(h),
			AvgSLA: avg,
			Count:  count,
			Status: t.Status(avg),
		})
	}
	return result
}

func roundedMean(total, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(count)))
}
