package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lead-speed/sla-monitor/internal/crm"
	"github.com/lead-speed/sla-monitor/internal/domain"
	"github.com/lead-speed/sla-monitor/internal/observability"
	"github.com/lead-speed/sla-monitor/internal/webhook"
	"github.com/lead-speed/sla-monitor/pkg/util"
)

// Funnel stages that count toward the SLA. Only these stages in the main
// "SDR" funnel create pending leads; only these stages in a per-closer
// funnel mark attendance. Matching is case-insensitive by substring so
// renamed variants still classify.
var validSDRStages = []string{
	"lead formulário",
	"lead formulario",
	"lead chatbot",
	"leads instagram",
	"áurea finalizou",
	"aurea finalizou",
	"fabio finalizou",
}

var validCloserStages = []string{
	"sdr",
	"sdr com perfil",
}

// WebhookOutcome summarizes what a notification did to the tracked state.
type WebhookOutcome string

const (
	OutcomeCreated     WebhookOutcome = "created"
	OutcomeAttended    WebhookOutcome = "attended"
	OutcomeUpdated     WebhookOutcome = "updated"
	OutcomeInvalidated WebhookOutcome = "invalidated"
	OutcomeDeleted     WebhookOutcome = "deleted"
	OutcomeIgnored     WebhookOutcome = "ignored"
)

// WebhookResult is returned to the HTTP layer. Ignored notifications are
// still acknowledged with 2xx so the CRM does not retry them.
type WebhookResult struct {
	Outcome WebhookOutcome
	Message string
	Lead    *domain.Lead
}

// WebhookService turns normalized CRM notifications into lead state
// transitions, applying the funnel rules.
type WebhookService struct {
	leads    *LeadService
	metadata *crm.Metadata
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewWebhookService wires the webhook processor.
func NewWebhookService(leads *LeadService, metadata *crm.Metadata, metrics *observability.Metrics, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		leads:    leads,
		metadata: metadata,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

type funnelContext struct {
	isMain        bool
	isCloser      bool
	sdrName       string
	stageName     string
	stagePriority int
}

// Process handles one raw webhook body.
func (s *WebhookService) Process(ctx context.Context, body []byte) (WebhookResult, error) {
	n, err := webhook.Normalize(body, s.now())
	if err != nil {
		return WebhookResult{}, util.NewValidationError("webhook body is not a JSON object", nil)
	}
	s.metrics.RecordWebhook(string(n.Action))

	if n.DealID == "" {
		s.logger.Info("webhook without deal id, ignored", zap.String("raw_action", n.RawAction))
		return WebhookResult{Outcome: OutcomeIgnored, Message: "notification has no deal id"}, nil
	}
	if n.PipelineID == "" {
		s.logger.Info("webhook without pipeline id, ignored", zap.String("deal_id", n.DealID))
		return WebhookResult{Outcome: OutcomeIgnored, Message: "notification has no pipeline id"}, nil
	}

	fc := funnelContext{
		isMain:   s.metadata.IsMainSDRPipeline(ctx, n.PipelineID),
		isCloser: s.metadata.IsCloserPipeline(ctx, n.PipelineID),
	}
	if !fc.isMain && !fc.isCloser {
		s.logger.Info("irrelevant pipeline, ignored",
			zap.String("deal_id", n.DealID),
			zap.String("pipeline_id", n.PipelineID),
		)
		return WebhookResult{Outcome: OutcomeIgnored, Message: "pipeline is not tracked"}, nil
	}

	fc.sdrName = s.metadata.SDRNameFromPipeline(ctx, n.PipelineID)
	fc.stageName = "Desconhecido"
	if n.StageID != "" {
		fc.stageName = s.metadata.StageName(ctx, n.StageID)
	}
	fc.stagePriority = crm.StagePriority(fc.stageName)

	s.logger.Info("webhook received",
		zap.String("deal_id", n.DealID),
		zap.String("action", string(n.Action)),
		zap.String("pipeline_id", n.PipelineID),
		zap.String("stage", fc.stageName),
		zap.Bool("main_funnel", fc.isMain),
	)

	switch n.Action {
	case webhook.ActionDeleted:
		return s.handleDeleted(ctx, n)
	case webhook.ActionUpdated:
		return s.handleUpdated(ctx, n, fc)
	default:
		// added, plus anything unrecognized: record rather than drop.
		return s.handleAdded(ctx, n, fc)
	}
}

func (s *WebhookService) handleAdded(ctx context.Context, n webhook.Notification, fc funnelContext) (WebhookResult, error) {
	if fc.isMain && !isValidSDRStage(fc.stageName) {
		return WebhookResult{Outcome: OutcomeIgnored, Message: "stage is not counted in the main funnel"}, nil
	}

	in := CreateLeadInput{
		LeadID:        n.DealID,
		LeadName:      n.Title,
		EnteredAt:     n.AddTime,
		Source:        "Pipedrive",
		Pipeline:      n.PipelineID,
		StageName:     &fc.stageName,
		StagePriority: &fc.stagePriority,
		Status:        &n.Status,
		PipelineID:    n.PipelineID,
		StageID:       n.StageID,
		UserID:        n.UserID,
	}

	// A deal landing directly in a closer funnel was picked up without ever
	// waiting in the main funnel; it enters already attended.
	if fc.isCloser {
		if !isValidCloserStage(fc.stageName) {
			return WebhookResult{Outcome: OutcomeIgnored, Message: "stage is not counted in a closer funnel"}, nil
		}
		pipelineID := n.PipelineID
		sdrName := fc.sdrName
		attendedAt := n.UpdateTime
		in.SDRID = &pipelineID
		in.SDRName = &sdrName
		in.AttendedAt = &attendedAt
	}

	lead, created, err := s.leads.CreateLead(ctx, in)
	if err != nil {
		return WebhookResult{}, err
	}
	if !created {
		return WebhookResult{Outcome: OutcomeIgnored, Message: "lead already exists", Lead: lead}, nil
	}
	outcome := OutcomeCreated
	message := "lead pending"
	if fc.isCloser {
		outcome = OutcomeAttended
		message = "lead attended by " + fc.sdrName
	}
	return WebhookResult{Outcome: outcome, Message: message, Lead: lead}, nil
}

func (s *WebhookService) handleUpdated(ctx context.Context, n webhook.Notification, fc funnelContext) (WebhookResult, error) {
	existing, err := s.leads.FindByExternalID(ctx, n.DealID)
	if err != nil {
		if util.ToDomainError(err).Code == "NOT_FOUND" {
			// Update for a deal we never saw; treat it as a late create.
			return s.handleAdded(ctx, n, fc)
		}
		return WebhookResult{}, err
	}

	// Once attended, every further movement is out of scope.
	if existing.Attended() {
		return WebhookResult{Outcome: OutcomeIgnored, Message: "lead already attended", Lead: existing}, nil
	}

	if fc.isCloser {
		if !isValidCloserStage(fc.stageName) {
			return WebhookResult{Outcome: OutcomeIgnored, Message: "stage is not counted in a closer funnel"}, nil
		}
		pipelineID := n.PipelineID
		sdrName := fc.sdrName
		lead, _, err := s.leads.AttendLead(ctx, AttendInput{
			LeadID:     n.DealID,
			SDRID:      &pipelineID,
			SDRName:    &sdrName,
			AttendedAt: n.UpdateTime,
			PipelineID: n.PipelineID,
			StageID:    n.StageID,
			UserID:     n.UserID,
		})
		if err != nil {
			return WebhookResult{}, err
		}
		return WebhookResult{Outcome: OutcomeAttended, Message: "lead attended by " + fc.sdrName, Lead: lead}, nil
	}

	// Main funnel: stage moves within the counted stages just track the
	// stage; leaving the counted stages invalidates the lead.
	if isValidSDRStage(fc.stageName) {
		if existing.StageName == nil || *existing.StageName != fc.stageName {
			if err := s.leads.UpdateStage(ctx, n.DealID, fc.stageName, fc.stagePriority); err != nil {
				return WebhookResult{}, err
			}
		}
		return WebhookResult{Outcome: OutcomeUpdated, Message: "lead stage updated", Lead: existing}, nil
	}

	if existing.StageName != nil && isValidSDRStage(*existing.StageName) {
		if err := s.leads.MarkInvalid(ctx, n.DealID, "left counted stages"); err != nil {
			return WebhookResult{}, err
		}
		return WebhookResult{Outcome: OutcomeInvalidated, Message: "lead left the counted stages"}, nil
	}

	return WebhookResult{Outcome: OutcomeIgnored, Message: "stage is not counted in the main funnel"}, nil
}

func (s *WebhookService) handleDeleted(ctx context.Context, n webhook.Notification) (WebhookResult, error) {
	deleted, err := s.leads.DeleteByExternalID(ctx, n.DealID, n.RawAction)
	if err != nil {
		return WebhookResult{}, err
	}
	if !deleted {
		return WebhookResult{Outcome: OutcomeIgnored, Message: "deal was not tracked"}, nil
	}
	return WebhookResult{Outcome: OutcomeDeleted, Message: "lead removed"}, nil
}

// ManualLead records a lead outside the CRM flow, for tests and backfills.
func (s *WebhookService) ManualLead(ctx context.Context, leadID, leadName, source, pipeline, sdrName, stageName string) (*domain.Lead, error) {
	if leadID == "" || leadName == "" {
		return nil, util.NewValidationError("lead_id and lead_name are required", nil)
	}
	if source == "" {
		source = "Manual"
	}
	if pipeline == "" {
		pipeline = "Default"
	}
	if sdrName == "" {
		sdrName = "Manual"
	}
	if stageName == "" {
		stageName = "Manual"
	}
	priority := crm.PriorityUnknown
	lead, _, err := s.leads.CreateLead(ctx, CreateLeadInput{
		LeadID:        leadID,
		LeadName:      leadName,
		EnteredAt:     s.now(),
		Source:        source,
		Pipeline:      pipeline,
		SDRName:       &sdrName,
		StageName:     &stageName,
		StagePriority: &priority,
	})
	return lead, err
}

// ManualAttendance records an attendance outside the CRM flow.
func (s *WebhookService) ManualAttendance(ctx context.Context, leadID, sdrID, sdrName string) (*domain.Lead, error) {
	if leadID == "" || sdrID == "" || sdrName == "" {
		return nil, util.NewValidationError("lead_id, sdr_id and sdr_name are required", nil)
	}
	lead, _, err := s.leads.AttendLead(ctx, AttendInput{
		LeadID:     leadID,
		SDRID:      &sdrID,
		SDRName:    &sdrName,
		AttendedAt: s.now(),
		UserID:     sdrID,
	})
	return lead, err
}

func isValidSDRStage(stageName string) bool {
	return stageMatches(stageName, validSDRStages)
}

func isValidCloserStage(stageName string) bool {
	return stageMatches(stageName, validCloserStages)
}

func stageMatches(stageName string, valid []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(stageName))
	if normalized == "" {
		return false
	}
	for _, v := range valid {
		if strings.Contains(normalized, v) {
			return true
		}
	}
	return false
}
