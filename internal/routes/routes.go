package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/Ananth-NQI/market-analyst-backend/internal/handlers"
	"github.com/Ananth-NQI/market-analyst-backend/internal/metrics"
	"github.com/Ananth-NQI/market-analyst-backend/internal/middleware"
)

// Handlers groups everything SetupRoutes mounts. Analytics is nil when the
// orders database is not reachable.
type Handlers struct {
	Health    *handlers.HealthHandler
	Chat      *handlers.ChatHandler
	Reports   *handlers.ReportHandler
	Analytics *handlers.AnalyticsHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers, m *metrics.Metrics, analyticsKey string) {
	app.Get("/", h.Health.Info)
	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// ========== CHAT ROUTES ==========
	chat := app.Group("/chatBot")
	chat.Post("/", h.Chat.Chat)
	chat.Get("/history/:user_id/:id_session", h.Chat.History)
	chat.Get("/sessions/:user_id", h.Chat.Sessions)

	// ========== REPORT ROUTES ==========
	app.Get("/reports/download/:filename", h.Reports.Download)

	// ========== ANALYTICS ROUTES ==========
	orders := app.Group("/api/analytics/orders", middleware.RequireAPIKey(analyticsKey))
	if h.Analytics == nil {
		orders.Use(func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Analytics unavailable",
			})
		})
		return
	}
	orders.Get("/total", h.Analytics.TotalOrders)
	orders.Get("/revenue", h.Analytics.TotalRevenue)
	orders.Get("/revenue/:year", h.Analytics.RevenueByYear)
	orders.Get("/status", h.Analytics.OrdersByStatus)
	orders.Get("/status-window", h.Analytics.StatusWindow)
	orders.Get("/average", h.Analytics.AverageOrderTotal)
	orders.Get("/top-products", h.Analytics.TopProducts)
}
