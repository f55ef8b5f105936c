package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-assistant/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Conversations *handlers.ConversationsHandler
	Admin         *handlers.AdminHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	conversations := app.Group("/conversations/:user_id")
	conversations.Post("/messages", cfg.Conversations.PostMessage)
	conversations.Post("/actions", cfg.Conversations.PostAction)
	conversations.Get("/tickets", cfg.Conversations.ListTickets)

	app.Get("/tickets/:id", cfg.Conversations.GetTicket)

	admin := app.Group("/admin")
	admin.Get("/stats", cfg.Admin.Stats)
	admin.Post("/knowledge-base/refresh", cfg.Admin.RefreshKnowledgeBase)
}
