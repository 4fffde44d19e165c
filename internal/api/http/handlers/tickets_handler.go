package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints for every role.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	viewer, err := auth.ViewerFromContext(c)
	if err != nil {
		return err
	}
	var query dto.TicketPageQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewFieldError("page", "page must be a number")
	}
	page, err := h.service.ListTickets(c.UserContext(), viewer, query.Page)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketListResponse(page))
}

// CreateForm GET /tickets/create.
func (h *TicketsHandler) CreateForm(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := access.CanCreate(principal.Viewer()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCreateTicketForm(principal.User.Department)})
}

// CreateTicket POST /tickets. Accepts JSON or multipart form data; files
// are read from the "attachments" field.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	viewer, err := auth.ViewerFromContext(c)
	if err != nil {
		return err
	}
	if err := access.CanCreate(viewer); err != nil {
		return err
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	uploads, err := multipartUploads(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), viewer, req.ToInput(uploads))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	viewer, err := auth.ViewerFromContext(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), viewer, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(detail)})
}

// EditForm GET /tickets/:id/edit.
func (h *TicketsHandler) EditForm(c *fiber.Ctx) error {
	viewer, err := auth.ViewerFromContext(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicketForEdit(c.UserContext(), viewer, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(detail)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	viewer, err := auth.ViewerFromContext(c)
	if err != nil {
		return err
	}
	req, err := parseUpdateRequest(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), viewer, c.Params("id"), access.UpdateRequest{
		Status:        req.Status,
		AssignedTo:    req.AssignedTo.Value,
		AssignedToSet: req.AssignedTo.Set,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	viewer, err := auth.ViewerFromContext(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), viewer, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DownloadAttachment GET /tickets/:id/attachments/:attachmentId.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	viewer, err := auth.ViewerFromContext(c)
	if err != nil {
		return err
	}
	attachment, body, err := h.service.OpenAttachment(c.UserContext(), viewer, c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return err
	}
	c.Attachment(attachment.Filename)
	c.Set(fiber.HeaderContentType, attachment.MimeType)
	return c.SendStream(body, int(attachment.FileSize))
}

func multipartUploads(c *fiber.Ctx) ([]service.Upload, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart payload", nil)
	}

	files := append(form.File["attachments"], form.File["attachments[]"]...)
	uploads := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, service.Upload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				f, err := fh.Open()
				if err != nil {
					return nil, err
				}
				return f, nil
			},
		})
	}
	return uploads, nil
}

func parseUpdateRequest(c *fiber.Ctx) (dto.UpdateTicketRequest, error) {
	var req dto.UpdateTicketRequest
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return req, apperrors.NewValidationError("invalid payload", nil)
		}
		return req, nil
	}

	req.Status = domain.TicketStatus(c.FormValue("status"))
	if args := c.Request().PostArgs(); args.Has("assigned_to") {
		req.AssignedTo.Set = true
		if v := string(args.Peek("assigned_to")); v != "" {
			req.AssignedTo.Value = &v
		}
	}
	return req, nil
}
