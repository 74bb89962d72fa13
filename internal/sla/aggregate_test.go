package sla

import (
	"testing"
	"time"

	"github.com/lead-speed/sla-monitor/internal/domain"
)

func attendedLead(sdrID, sdrName string, enteredAt time.Time, minutes int) domain.Lead {
	attendedAt := enteredAt.Add(time.Duration(minutes) * time.Minute)
	return domain.Lead{
		LeadID:     "deal-" + sdrID,
		SDRID:      &sdrID,
		SDRName:    &sdrName,
		EnteredAt:  enteredAt,
		AttendedAt: &attendedAt,
		SLAMinutes: &minutes,
	}
}

func TestGeneral(t *testing.T) {
	t.Run("empty input yields zeros", func(t *testing.T) {
		got := General(nil)
		if got.TotalLeads != 0 || got.AttendedLeads != 0 || got.PendingLeads != 0 ||
			got.AvgSLAMinutes != 0 || got.MaxSLAMinutes != 0 || got.MinSLAMinutes != 0 {
			t.Fatalf("expected all zeros, got %+v", got)
		}
	})

	t.Run("mixed attended and pending", func(t *testing.T) {
		entered := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		leads := []domain.Lead{
			attendedLead("a", "Ana", entered, 10),
			attendedLead("b", "Bia", entered, 30),
			{LeadID: "deal-p", EnteredAt: entered},
		}
		got := General(leads)
		if got.TotalLeads != 3 || got.AttendedLeads != 2 || got.PendingLeads != 1 {
			t.Fatalf("unexpected counters: %+v", got)
		}
		if got.AvgSLAMinutes != 20 || got.MaxSLAMinutes != 30 || got.MinSLAMinutes != 10 {
			t.Fatalf("unexpected sla stats: %+v", got)
		}
	})
}

func TestRanking(t *testing.T) {
	entered := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("orders by ascending average", func(t *testing.T) {
		leads := []domain.Lead{
			attendedLead("s1", "Ana", entered, 42),
			attendedLead("s2", "Bia", entered, 10),
			attendedLead("s3", "Caio", entered, 25),
		}
		got := Ranking(leads)
		if len(got) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(got))
		}
		wantOrder := []int{10, 25, 42}
		for i, want := range wantOrder {
			if got[i].AverageTime != want {
				t.Fatalf("row %d: expected average %d, got %d", i, want, got[i].AverageTime)
			}
		}
	})

	t.Run("excludes SDRs without attended leads", func(t *testing.T) {
		sdrID := "s4"
		leads := []domain.Lead{
			attendedLead("s1", "Ana", entered, 5),
			{LeadID: "deal-x", SDRID: &sdrID, EnteredAt: entered},
		}
		got := Ranking(leads)
		if len(got) != 1 {
			t.Fatalf("expected 1 row, got %d", len(got))
		}
		if got[0].SDRID != "s1" {
			t.Fatalf("expected s1, got %s", got[0].SDRID)
		}
	})

	t.Run("averages multiple leads per SDR", func(t *testing.T) {
		leads := []domain.Lead{
			attendedLead("s1", "Ana", entered, 10),
			attendedLead("s1", "Ana", entered, 20),
		}
		got := Ranking(leads)
		if len(got) != 1 {
			t.Fatalf("expected 1 row, got %d", len(got))
		}
		if got[0].AverageTime != 15 || got[0].LeadsAttended != 2 {
			t.Fatalf("unexpected row: %+v", got[0])
		}
	})
}

func TestTimeline(t *testing.T) {
	day1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	leads := []domain.Lead{
		attendedLead("s1", "Ana", day1, 10),
		attendedLead("s2", "Bia", day1, 20),
		attendedLead("s3", "Caio", day2, 8),
		{LeadID: "pending", EnteredAt: day2},
	}

	got := Timeline(leads, time.UTC)
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	if got[0].Date != "2025-03-10" || got[0].Average != 15 || got[0].Count != 2 {
		t.Fatalf("unexpected first point: %+v", got[0])
	}
	if got[1].Date != "2025-03-11" || got[1].Average != 8 || got[1].Count != 1 {
		t.Fatalf("unexpected second point: %+v", got[1])
	}
}

func TestTrailingDailyAverage(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	t.Run("always seven points", func(t *testing.T) {
		got := TrailingDailyAverage(nil, now, time.UTC)
		if len(got) != 7 {
			t.Fatalf("expected 7 points, got %d", len(got))
		}
		for _, p := range got {
			if p.AvgSLA != 0 {
				t.Fatalf("expected zero average for empty input, got %+v", p)
			}
		}
	})

	t.Run("gap days emitted with zero", func(t *testing.T) {
		leads := []domain.Lead{
			attendedLead("s1", "Ana", now.AddDate(0, 0, -2), 30),
			attendedLead("s2", "Bia", now, 10),
		}
		got := TrailingDailyAverage(leads, now, time.UTC)
		if len(got) != 7 {
			t.Fatalf("expected 7 points, got %d", len(got))
		}
		if got[0].Date != "04/03" {
			t.Fatalf("expected series to start at 04/03, got %s", got[0].Date)
		}
		if got[4].AvgSLA != 30 {
			t.Fatalf("expected 30 two days back, got %+v", got[4])
		}
		if got[5].AvgSLA != 0 {
			t.Fatalf("expected gap day zero, got %+v", got[5])
		}
		if got[6].Date != "10/03" || got[6].AvgSLA != 10 {
			t.Fatalf("unexpected last point: %+v", got[6])
		}
	})
}

func TestHourly(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	thresholds := Thresholds{GoodMax: 15, ModerateMax: 20}

	t.Run("every business hour present", func(t *testing.T) {
		got := Hourly(nil, now, time.UTC, thresholds)
		if len(got) != BusinessDayEnd-BusinessDayStart+1 {
			t.Fatalf("expected %d buckets, got %d", BusinessDayEnd-BusinessDayStart+1, len(got))
		}
		if got[0].Hour != BusinessDayStart || got[0].Label != "06h–07h" {
			t.Fatalf("unexpected first bucket: %+v", got[0])
		}
	})

	t.Run("statuses from thresholds", func(t *testing.T) {
		leads := []domain.Lead{
			attendedLead("s1", "Ana", now.Add(-10*time.Hour).Add(-12*time.Minute), 12),
			attendedLead("s2", "Bia", now.Add(-9*time.Hour).Add(-25*time.Minute), 25),
		}
		got := Hourly(leads, now, time.UTC, thresholds)

		byHour := map[int]HourlyPerformance{}
		for _, b := range got {
			byHour[b.Hour] = b
		}
		if b := byHour[8]; b.AvgSLA != 12 || b.Status != StatusGood || b.Count != 1 {
			t.Fatalf("unexpected 08h bucket: %+v", b)
		}
		if b := byHour[9]; b.AvgSLA != 25 || b.Status != StatusCritical || b.Count != 1 {
			t.Fatalf("unexpected 09h bucket: %+v", b)
		}
	})

	t.Run("ignores other days", func(t *testing.T) {
		leads := []domain.Lead{
			attendedLead("s1", "Ana", now.AddDate(0, 0, -1), 12),
		}
		got := Hourly(leads, now, time.UTC, thresholds)
		for _, b := range got {
			if b.Count != 0 {
				t.Fatalf("expected empty buckets, got %+v", b)
			}
		}
	})
}
