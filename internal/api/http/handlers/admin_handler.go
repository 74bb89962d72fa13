package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lead-speed/sla-monitor/internal/cache"
	"github.com/lead-speed/sla-monitor/internal/crm"
	"github.com/lead-speed/sla-monitor/internal/service"
)

// AdminHandler exposes the maintenance endpoints behind the admin guard.
type AdminHandler struct {
	leads      *service.LeadService
	attendance *service.AttendanceService
	store      cache.Store
	metadata   *crm.Metadata
}

// NewAdminHandler constructs handler.
func NewAdminHandler(leadService *service.LeadService, attendanceService *service.AttendanceService, store cache.Store, metadata *crm.Metadata) *AdminHandler {
	return &AdminHandler{
		leads:      leadService,
		attendance: attendanceService,
		store:      store,
		metadata:   metadata,
	}
}

// ClearLeads DELETE /api/admin/leads.
func (h *AdminHandler) ClearLeads(c *fiber.Ctx) error {
	count, err := h.leads.ClearAll(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"deleted": count}, "all leads cleared")
}

// RefreshCache POST /api/admin/cache/refresh. Drops the metric caches and
// forces the CRM metadata to refetch on next use.
func (h *AdminHandler) RefreshCache(c *fiber.Ctx) error {
	ctx := c.UserContext()
	for _, prefix := range []string{cache.PrefixMetrics, cache.PrefixLeads} {
		if err := h.store.InvalidatePrefix(ctx, prefix); err != nil {
			return err
		}
	}
	h.metadata.Invalidate()
	return success(c, fiber.StatusOK, nil, "caches refreshed")
}

// PruneAttendance DELETE /api/admin/attendance-events.
func (h *AdminHandler) PruneAttendance(c *fiber.Ctx) error {
	removed, err := h.attendance.PruneEvents(c.UserContext(), parseInt(c.Query("days"), 90))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"removed": removed}, "attendance events pruned")
}
