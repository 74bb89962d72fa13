package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lead-speed/sla-monitor/internal/service"
)

// LeadsHandler serves the lead listing endpoints.
type LeadsHandler struct {
	metrics *service.MetricsService
	leads   *service.LeadService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(metricsService *service.MetricsService, leadService *service.LeadService) *LeadsHandler {
	return &LeadsHandler{metrics: metricsService, leads: leadService}
}

// Slowest GET /api/leads/slowest.
func (h *LeadsHandler) Slowest(c *fiber.Ctx) error {
	leads, err := h.metrics.Slowest(c.UserContext(), parseInt(c.Query("limit"), 10))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, leadResponses(leads), "")
}

// Pending GET /api/leads/pending.
func (h *LeadsHandler) Pending(c *fiber.Ctx) error {
	leads, err := h.metrics.Pending(c.UserContext(), parseInt(c.Query("limit"), 10))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, leadResponses(leads), "")
}

// ImportantPending GET /api/leads/important-pending.
func (h *LeadsHandler) ImportantPending(c *fiber.Ctx) error {
	leads, err := h.metrics.ImportantPending(c.UserContext(), parseInt(c.Query("limit"), 10))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, leadResponses(leads), "")
}

// Detail GET /api/leads/detail.
func (h *LeadsHandler) Detail(c *fiber.Ctx) error {
	var sdrID *string
	if v := c.Query("sdr_id"); v != "" {
		sdrID = &v
	}
	leads, err := h.metrics.Detail(c.UserContext(),
		c.Query("period"),
		sdrID,
		parseInt(c.Query("limit"), 50),
		parseInt(c.Query("offset"), 0),
	)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, leadResponses(leads), "")
}

// Paginated GET /api/leads/paginated.
func (h *LeadsHandler) Paginated(c *fiber.Ctx) error {
	page, err := h.metrics.Paginated(c.UserContext(),
		parseInt(c.Query("page"), 1),
		parseInt(c.Query("limit"), 20),
	)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"leads":      leadResponses(page.Leads),
		"pagination": page.Pagination,
	}, "")
}

// TodayAttended GET /api/leads/today-attended.
func (h *LeadsHandler) TodayAttended(c *fiber.Ctx) error {
	leads, err := h.metrics.TodayAttended(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, leadResponses(leads), "")
}

// Monthly GET /api/leads/monthly.
func (h *LeadsHandler) Monthly(c *fiber.Ctx) error {
	leads, err := h.metrics.Monthly(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, leadResponses(leads), "")
}

// SDRs GET /api/leads/sdrs.
func (h *LeadsHandler) SDRs(c *fiber.Ctx) error {
	sdrs, err := h.metrics.UniqueSDRs(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, sdrs, "")
}

// GetByID GET /api/leads/:lead_id.
func (h *LeadsHandler) GetByID(c *fiber.Ctx) error {
	lead, err := h.leads.FindByExternalID(c.UserContext(), c.Params("lead_id"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, leadResponse(lead), "")
}
