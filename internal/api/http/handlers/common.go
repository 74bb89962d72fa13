package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lead-speed/sla-monitor/internal/api/dto"
	"github.com/lead-speed/sla-monitor/internal/domain"
)

// success renders the standard response envelope.
func success(c *fiber.Ctx, status int, data any, message string) error {
	payload := fiber.Map{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if message != "" {
		payload["message"] = message
	}
	return c.Status(status).JSON(payload)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func leadResponse(lead *domain.Lead) dto.LeadResponse {
	return dto.LeadResponse{
		ID:            lead.ID,
		LeadID:        lead.LeadID,
		LeadName:      lead.LeadName,
		SDRID:         lead.SDRID,
		SDRName:       lead.SDRName,
		EnteredAt:     lead.EnteredAt,
		AttendedAt:    lead.AttendedAt,
		SLAMinutes:    lead.SLAMinutes,
		Source:        lead.Source,
		Pipeline:      lead.Pipeline,
		StageName:     lead.StageName,
		StagePriority: lead.StagePriority,
		Status:        lead.Status,
		CreatedAt:     lead.CreatedAt,
		UpdatedAt:     lead.UpdatedAt,
	}
}

func leadResponses(leads []domain.Lead) []dto.LeadResponse {
	items := make([]dto.LeadResponse, 0, len(leads))
	for i := range leads {
		items = append(items, leadResponse(&leads[i]))
	}
	return items
}
