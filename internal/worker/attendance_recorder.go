package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/lead-speed/sla-monitor/internal/domain"
	"github.com/lead-speed/sla-monitor/internal/events"
	"github.com/lead-speed/sla-monitor/internal/repository"
)

// StartAttendanceRecorder subscribes the activity log to lead attendance
// events so every first response lands in the journey report.
func StartAttendanceRecorder(dispatcher events.Dispatcher, repo repository.AttendanceRepository, logger *zap.Logger) {
	if dispatcher == nil || repo == nil {
		return
	}

	dispatcher.Subscribe(events.EventLeadAttended, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.LeadAttendedPayload)
		if !ok {
			logger.Warn("unexpected payload on lead_attended event", zap.String("lead_id", event.LeadID))
			return nil
		}
		userID := payload.UserID
		if userID == "" && payload.SDRID != nil {
			userID = *payload.SDRID
		}
		if userID == "" {
			// Attendance without a known actor still updates the lead but has
			// no owner to log the journey under.
			return nil
		}

		record := domain.AttendanceEvent{
			UserID:     userID,
			UserName:   payload.SDRName,
			OccurredAt: payload.AttendedAt,
			DealID:     event.LeadID,
			EventType:  "attended",
			Metadata: map[string]any{
				"sla_minutes": payload.SLAMinutes,
			},
		}
		if payload.PipelineID != "" {
			record.PipelineID = &payload.PipelineID
		}
		if payload.StageID != "" {
			record.StageID = &payload.StageID
		}
		return repo.Insert(ctx, &record)
	})
}
