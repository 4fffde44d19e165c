package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
)

// StaffHandler lists IT staff for assignment.
type StaffHandler struct {
	tickets *service.TicketService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(ticketService *service.TicketService) *StaffHandler {
	return &StaffHandler{tickets: ticketService}
}

// List GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	viewer, err := auth.ViewerFromContext(c)
	if err != nil {
		return err
	}
	staff, err := h.tickets.AssignableStaff(c.UserContext(), viewer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffOptions(staff)})
}
