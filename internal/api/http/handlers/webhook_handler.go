package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lead-speed/sla-monitor/internal/api/dto"
	"github.com/lead-speed/sla-monitor/internal/service"
)

// WebhookHandler receives CRM notifications and the manual entry endpoints.
type WebhookHandler struct {
	webhooks *service.WebhookService
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhookService}
}

// Pipedrive POST /api/webhook/pipedrive.
func (h *WebhookHandler) Pipedrive(c *fiber.Ctx) error {
	result, err := h.webhooks.Process(c.UserContext(), c.Body())
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if result.Outcome == service.OutcomeCreated {
		status = fiber.StatusCreated
	}
	var data any
	if result.Lead != nil {
		data = leadResponse(result.Lead)
	}
	return success(c, status, data, result.Message)
}

// ManualLead POST /api/webhook/manual/lead.
func (h *WebhookHandler) ManualLead(c *fiber.Ctx) error {
	var req dto.ManualLeadRequest
	if err := c.BodyParser(&req); err != nil {
		req = dto.ManualLeadRequest{}
	}
	lead, err := h.webhooks.ManualLead(c.UserContext(),
		req.LeadID, req.LeadName, req.Source, req.Pipeline, req.SDRName, req.StageName)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, leadResponse(lead), "lead created manually")
}

// ManualAttendance POST /api/webhook/manual/attend.
func (h *WebhookHandler) ManualAttendance(c *fiber.Ctx) error {
	var req dto.ManualAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		req = dto.ManualAttendanceRequest{}
	}
	lead, err := h.webhooks.ManualAttendance(c.UserContext(), req.LeadID, req.SDRID, req.SDRName)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, leadResponse(lead), "attendance recorded")
}
