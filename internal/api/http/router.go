package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lead-speed/sla-monitor/internal/api/http/handlers"
	"github.com/lead-speed/sla-monitor/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Metrics    *handlers.MetricsHandler
	Leads      *handlers.LeadsHandler
	Attendance *handlers.AttendanceHandler
	Webhook    *handlers.WebhookHandler
	Admin      *handlers.AdminHandler
	AdminGuard *auth.AdminGuard
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Status)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	metrics := api.Group("/metrics")
	metrics.Get("/general", cfg.Metrics.General)
	metrics.Get("/ranking", cfg.Metrics.Ranking)
	metrics.Get("/timeline", cfg.Metrics.Timeline)
	metrics.Get("/daily-average", cfg.Metrics.DailyAverage)
	metrics.Get("/hourly-performance", cfg.Metrics.HourlyPerformance)

	leads := api.Group("/leads")
	leads.Get("/slowest", cfg.Leads.Slowest)
	leads.Get("/pending", cfg.Leads.Pending)
	leads.Get("/important-pending", cfg.Leads.ImportantPending)
	leads.Get("/detail", cfg.Leads.Detail)
	leads.Get("/paginated", cfg.Leads.Paginated)
	leads.Get("/today-attended", cfg.Leads.TodayAttended)
	leads.Get("/monthly", cfg.Leads.Monthly)
	leads.Get("/sdrs", cfg.Leads.SDRs)
	leads.Get("/:lead_id", cfg.Leads.GetByID)

	api.Get("/attendance/journey", cfg.Attendance.Journey)

	webhook := api.Group("/webhook")
	webhook.Post("/pipedrive", cfg.Webhook.Pipedrive)
	webhook.Post("/manual/lead", cfg.Webhook.ManualLead)
	webhook.Post("/manual/attend", cfg.Webhook.ManualAttendance)

	admin := api.Group("/admin", cfg.AdminGuard.Handle)
	admin.Delete("/leads", cfg.Admin.ClearLeads)
	admin.Post("/cache/refresh", cfg.Admin.RefreshCache)
	admin.Delete("/attendance-events", cfg.Admin.PruneAttendance)
}
