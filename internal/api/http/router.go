package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Dashboard      *handlers.DashboardHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authenticate := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", authenticate, cfg.Users.Logout)
	authGroup.Get("/me", authenticate, cfg.Users.Me)

	app.Get("/dashboard", authenticate, cfg.Dashboard.Show)
	app.Get("/staff", authenticate, auth.RequireRole(domain.RoleITManager), cfg.Staff.List)

	tickets := app.Group("/tickets", authenticate)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	// registered before /:id so it is not taken for an id
	tickets.Get("/create", cfg.Tickets.CreateForm)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/edit", cfg.Tickets.EditForm)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/attachments/:attachmentId", cfg.Tickets.DownloadAttachment)
}
