package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lead-speed/sla-monitor/internal/cache"
	"github.com/lead-speed/sla-monitor/internal/domain"
	"github.com/lead-speed/sla-monitor/internal/events"
	"github.com/lead-speed/sla-monitor/internal/repository"
	"github.com/lead-speed/sla-monitor/internal/sla"
	"github.com/lead-speed/sla-monitor/pkg/util"
)

// CreateLeadInput describes a new tracked lead. AttendedAt is set when the
// deal enters directly through a closer funnel, already attended.
type CreateLeadInput struct {
	LeadID        string
	LeadName      string
	EnteredAt     time.Time
	Source        string
	Pipeline      string
	SDRID         *string
	SDRName       *string
	AttendedAt    *time.Time
	StageName     *string
	StagePriority *int
	Status        *string
	PipelineID    string
	StageID       string
	UserID        string
}

// AttendInput describes the first attendance action on a pending lead.
type AttendInput struct {
	LeadID     string
	SDRID      *string
	SDRName    *string
	AttendedAt time.Time
	PipelineID string
	StageID    string
	UserID     string
}

// LeadService owns the lead lifecycle: creation, the one-shot attendance
// transition, invalidation and removal. Every write invalidates the metric
// caches and publishes a domain event.
type LeadService struct {
	repo       repository.LeadRepository
	dispatcher events.Dispatcher
	store      cache.Store
	logger     *zap.Logger
	now        func() time.Time
}

// NewLeadService wires the lead lifecycle service.
func NewLeadService(repo repository.LeadRepository, dispatcher events.Dispatcher, store cache.Store, logger *zap.Logger) *LeadService {
	return &LeadService{
		repo:       repo,
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateLead inserts a new lead. A lead_id that already exists is left
// untouched and the existing record returned; created reports whether this
// call inserted the row.
func (s *LeadService) CreateLead(ctx context.Context, in CreateLeadInput) (*domain.Lead, bool, error) {
	if in.LeadID == "" || in.LeadName == "" {
		return nil, false, util.NewValidationError("lead_id and lead_name are required", nil)
	}

	lead := &domain.Lead{
		LeadID:        in.LeadID,
		LeadName:      in.LeadName,
		SDRID:         in.SDRID,
		SDRName:       in.SDRName,
		EnteredAt:     in.EnteredAt,
		AttendedAt:    in.AttendedAt,
		Source:        in.Source,
		Pipeline:      in.Pipeline,
		StageName:     in.StageName,
		StagePriority: in.StagePriority,
		Status:        in.Status,
	}
	if in.AttendedAt != nil {
		minutes := sla.MinutesBetween(in.EnteredAt, *in.AttendedAt)
		lead.SLAMinutes = &minutes
	}

	created, err := s.repo.Insert(ctx, lead)
	if err != nil {
		return nil, false, util.MapError(err)
	}
	if !created {
		existing, err := s.repo.GetByLeadID(ctx, in.LeadID)
		if err != nil {
			return nil, false, util.MapError(err)
		}
		s.logger.Info("lead already exists, create ignored", zap.String("lead_id", in.LeadID))
		return existing, false, nil
	}

	s.invalidateCaches(ctx)
	s.publish(ctx, events.EventLeadCreated, lead.LeadID, events.LeadCreatedPayload{
		LeadName:   lead.LeadName,
		Pipeline:   lead.Pipeline,
		Source:     lead.Source,
		EnteredAt:  lead.EnteredAt,
		PipelineID: in.PipelineID,
		StageID:    in.StageID,
	})
	if lead.AttendedAt != nil && lead.SLAMinutes != nil {
		s.publish(ctx, events.EventLeadAttended, lead.LeadID, events.LeadAttendedPayload{
			SDRID:      lead.SDRID,
			SDRName:    lead.SDRName,
			UserID:     in.UserID,
			AttendedAt: *lead.AttendedAt,
			SLAMinutes: *lead.SLAMinutes,
			PipelineID: in.PipelineID,
			StageID:    in.StageID,
		})
	}

	s.logger.Info("lead created",
		zap.String("lead_id", lead.LeadID),
		zap.String("state", string(lead.State())),
	)
	return lead, true, nil
}

// AttendLead performs the PENDING→ATTENDED transition exactly once. The
// conditional update at the storage layer is the only writer; a lead already
// attended comes back unchanged with transitioned=false.
func (s *LeadService) AttendLead(ctx context.Context, in AttendInput) (*domain.Lead, bool, error) {
	if in.LeadID == "" {
		return nil, false, util.NewValidationError("lead_id is required", nil)
	}

	current, err := s.repo.GetByLeadID(ctx, in.LeadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, util.NewNotFound("lead", map[string]any{"lead_id": in.LeadID})
		}
		return nil, false, util.MapError(err)
	}

	minutes := sla.MinutesBetween(current.EnteredAt, in.AttendedAt)
	transitioned, err := s.repo.MarkAttended(ctx, in.LeadID, in.SDRID, in.SDRName, in.AttendedAt, minutes)
	if err != nil {
		return nil, false, util.MapError(err)
	}

	updated, err := s.repo.GetByLeadID(ctx, in.LeadID)
	if err != nil {
		return nil, false, util.MapError(err)
	}
	if !transitioned {
		s.logger.Info("lead already attended, transition ignored", zap.String("lead_id", in.LeadID))
		return updated, false, nil
	}

	s.invalidateCaches(ctx)
	s.publish(ctx, events.EventLeadAttended, in.LeadID, events.LeadAttendedPayload{
		SDRID:      in.SDRID,
		SDRName:    in.SDRName,
		UserID:     in.UserID,
		AttendedAt: in.AttendedAt,
		SLAMinutes: minutes,
		PipelineID: in.PipelineID,
		StageID:    in.StageID,
	})

	s.logger.Info("lead attended",
		zap.String("lead_id", in.LeadID),
		zap.Int("sla_minutes", minutes),
	)
	return updated, true, nil
}

// FindByExternalID returns the lead tracked under the CRM deal id.
func (s *LeadService) FindByExternalID(ctx context.Context, leadID string) (*domain.Lead, error) {
	lead, err := s.repo.GetByLeadID(ctx, leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("lead", map[string]any{"lead_id": leadID})
		}
		return nil, util.MapError(err)
	}
	return lead, nil
}

// UpdateStage moves a lead to a new funnel stage.
func (s *LeadService) UpdateStage(ctx context.Context, leadID, stageName string, stagePriority int) error {
	err := s.repo.UpdateStage(ctx, leadID, &stageName, &stagePriority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("lead", map[string]any{"lead_id": leadID})
		}
		return util.MapError(err)
	}
	s.invalidateCaches(ctx)
	return nil
}

// MarkInvalid flags a lead that left the counted funnel stages.
func (s *LeadService) MarkInvalid(ctx context.Context, leadID, reason string) error {
	err := s.repo.UpdateStatus(ctx, leadID, domain.StatusInvalidated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("lead", map[string]any{"lead_id": leadID})
		}
		return util.MapError(err)
	}
	s.invalidateCaches(ctx)
	s.publish(ctx, events.EventLeadInvalidated, leadID, events.LeadInvalidatedPayload{Reason: reason})
	s.logger.Info("lead invalidated", zap.String("lead_id", leadID), zap.String("reason", reason))
	return nil
}

// DeleteByExternalID removes a lead, reporting whether a record existed.
func (s *LeadService) DeleteByExternalID(ctx context.Context, leadID, rawAction string) (bool, error) {
	deleted, err := s.repo.DeleteByLeadID(ctx, leadID)
	if err != nil {
		return false, util.MapError(err)
	}
	if deleted {
		s.invalidateCaches(ctx)
		s.publish(ctx, events.EventLeadDeleted, leadID, events.LeadDeletedPayload{RawAction: rawAction})
		s.logger.Info("lead deleted", zap.String("lead_id", leadID))
	}
	return deleted, nil
}

// ClearAll wipes every tracked lead. Admin maintenance only.
func (s *LeadService) ClearAll(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, util.MapError(err)
	}
	if err := s.store.Flush(ctx); err != nil {
		s.logger.Warn("cache flush after clear failed", zap.Error(err))
	}
	s.logger.Info("all leads cleared", zap.Int64("count", count))
	return count, nil
}

func (s *LeadService) invalidateCaches(ctx context.Context) {
	for _, prefix := range []string{cache.PrefixMetrics, cache.PrefixLeads} {
		if err := s.store.InvalidatePrefix(ctx, prefix); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}

func (s *LeadService) publish(ctx context.Context, eventType events.EventType, leadID string, payload interface{}) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		LeadID:    leadID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
