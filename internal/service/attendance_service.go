package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lead-speed/sla-monitor/internal/attendance"
	"github.com/lead-speed/sla-monitor/internal/domain"
	"github.com/lead-speed/sla-monitor/internal/repository"
	"github.com/lead-speed/sla-monitor/pkg/util"
)

// AttendanceService serves the shift journey report over the SDR activity
// log.
type AttendanceService struct {
	repo   repository.AttendanceRepository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService wires the journey service.
func NewAttendanceService(repo repository.AttendanceRepository, loc *time.Location, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{
		repo:   repo,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// Journey returns per-SDR per-day shift metrics. date is YYYY-MM-DD in the
// reference zone and defaults to today; sdrID narrows to one SDR.
func (s *AttendanceService) Journey(ctx context.Context, sdrID, date string) ([]domain.SDRDailyShiftMetrics, error) {
	if date == "" {
		date = s.now().In(s.loc).Format("2006-01-02")
	}
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, util.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": date})
	}

	// Query a range padded by a day on each side; events are stored in UTC
	// and the calculator re-buckets them in the reference zone.
	from := day.AddDate(0, 0, -1)
	to := day.AddDate(0, 0, 2)
	filter := repository.AttendanceFilter{From: &from, To: &to}
	if sdrID != "" {
		filter.UserID = &sdrID
	}

	records, err := s.repo.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, util.MapError(err)
	}

	events := make([]attendance.FlowEvent, 0, len(records))
	for _, rec := range records {
		ev := attendance.FlowEvent{
			SDRID:     rec.UserID,
			Timestamp: rec.OccurredAt,
			DealID:    rec.DealID,
			EventType: rec.EventType,
		}
		if rec.UserName != nil {
			ev.SDRName = *rec.UserName
		}
		if rec.PipelineID != nil {
			ev.PipelineID = *rec.PipelineID
		}
		if rec.StageID != nil {
			ev.StageID = *rec.StageID
		}
		events = append(events, ev)
	}

	return attendance.CalculateForDate(events, date, s.loc), nil
}

// PruneEvents deletes activity older than the retention window.
func (s *AttendanceService) PruneEvents(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, util.NewValidationError("days must be at least 1", map[string]any{"days": days})
	}
	cutoff := s.now().AddDate(0, 0, -days)
	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, util.MapError(err)
	}
	s.logger.Info("attendance events pruned",
		zap.Int("retention_days", days),
		zap.Int64("removed", removed),
	)
	return removed, nil
}
