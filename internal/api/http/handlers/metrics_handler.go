package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lead-speed/sla-monitor/internal/service"
)

// MetricsHandler serves the dashboard aggregation endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metricsService *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metricsService}
}

// General GET /api/metrics/general.
func (h *MetricsHandler) General(c *fiber.Ctx) error {
	report, err := h.metrics.General(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, report, "")
}

// Ranking GET /api/metrics/ranking.
func (h *MetricsHandler) Ranking(c *fiber.Ctx) error {
	ranking, err := h.metrics.Ranking(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, ranking, "")
}

// Timeline GET /api/metrics/timeline.
func (h *MetricsHandler) Timeline(c *fiber.Ctx) error {
	points, err := h.metrics.Timeline(c.UserContext(), c.Query("period"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, points, "")
}

// DailyAverage GET /api/metrics/daily-average.
func (h *MetricsHandler) DailyAverage(c *fiber.Ctx) error {
	series, err := h.metrics.DailyAverage(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, series, "")
}

// HourlyPerformance GET /api/metrics/hourly-performance.
func (h *MetricsHandler) HourlyPerformance(c *fiber.Ctx) error {
	buckets, err := h.metrics.HourlyPerformance(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, buckets, "")
}
