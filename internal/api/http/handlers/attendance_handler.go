package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lead-speed/sla-monitor/internal/service"
)

// AttendanceHandler serves the shift journey report.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendanceService}
}

// Journey GET /api/attendance/journey.
func (h *AttendanceHandler) Journey(c *fiber.Ctx) error {
	journey, err := h.attendance.Journey(c.UserContext(), c.Query("sdr_id"), c.Query("date"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, journey, "")
}
