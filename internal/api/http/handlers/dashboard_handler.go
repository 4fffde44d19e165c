package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
)

// DashboardHandler serves the role-scoped dashboard.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Show GET /dashboard.
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	viewer, err := auth.ViewerFromContext(c)
	if err != nil {
		return err
	}
	dashboard, err := h.service.Build(c.UserContext(), viewer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDashboardResponse(dashboard)})
}
