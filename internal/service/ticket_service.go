package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

const (
	// TicketsPerPage is the page size of the ticket list.
	TicketsPerPage = 10
	// RecentTicketsLimit caps the dashboard's recent tickets.
	RecentTicketsLimit = 5

	attachmentKeyPrefix = "ticket-attachments"
	msgInvalidAssignee  = "The selected assignee must be an IT staff member."
)

var createTicketMessages = validation.Messages{
	"title.required":       "Ticket title is required.",
	"description.required": "Problem description is required.",
	"priority.required":    "Priority level is required.",
	"priority.oneof":       "Priority must be one of: Rendah, Sedang, Tinggi.",
	"department.required":  "Department is required.",
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	blobs      storage.BlobStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Blobs      storage.BlobStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title       string                `json:"title" validate:"required,max=255"`
	Description string                `json:"description" validate:"required"`
	Priority    domain.TicketPriority `json:"priority" validate:"required,oneof=Rendah Sedang Tinggi"`
	Department  string                `json:"department" validate:"required,max=255"`
	Attachments []Upload              `json:"-" validate:"-"`
}

// TicketPage is one page of the ticket list.
type TicketPage struct {
	Items    []domain.Ticket
	Page     int
	PerPage  int
	Total    int
	LastPage int
}

// TicketDetail is a ticket with the data its show and edit views need.
// AssignableStaff is only filled for IT managers.
type TicketDetail struct {
	Ticket          *domain.Ticket
	AssignableStaff []domain.User
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		blobs:      deps.Blobs,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket files a new pending, unassigned ticket for an employee and
// stores its attachments. Either everything is written or nothing is.
func (s *TicketService) CreateTicket(ctx context.Context, viewer domain.Viewer, input CreateTicketInput) (*domain.Ticket, error) {
	if err := access.CanCreate(viewer); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Department = strings.TrimSpace(input.Department)
	if err := validation.ValidateStruct(input, createTicketMessages); err != nil {
		return nil, err
	}
	uploads, err := checkUploads(input.Attachments)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      domain.TicketStatusPending,
		Department:  input.Department,
		CreatedBy:   viewer.ID,
	}

	var written []string
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		for _, up := range uploads {
			key := attachmentKey(ticket.ID, up.Ext)
			written = append(written, key)
			size, err := s.putBlob(ctx, key, up)
			if err != nil {
				return err
			}
			attachment := &domain.Attachment{
				TicketID: ticket.ID,
				Filename: up.Filename,
				Filepath: key,
				MimeType: up.MimeType,
				FileSize: size,
			}
			if err := tx.Attachments().Create(ctx, attachment); err != nil {
				return err
			}
			ticket.Attachments = append(ticket.Attachments, *attachment)
		}
		return nil
	})
	if err != nil {
		s.removeBlobs(context.WithoutCancel(ctx), written)
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFor(viewer),
		Payload: events.TicketCreatedPayload{
			Title:       ticket.Title,
			Priority:    ticket.Priority,
			Department:  ticket.Department,
			Attachments: len(ticket.Attachments),
		},
	})

	created, err := s.store.Tickets().GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	created.Attachments = ticket.Attachments
	return created, nil
}

// ListTickets returns the page of tickets visible to the viewer, newest
// first. Pages start at 1.
func (s *TicketService) ListTickets(ctx context.Context, viewer domain.Viewer, page int) (*TicketPage, error) {
	if page < 1 {
		page = 1
	}
	filter := repository.TicketFilter{Scope: access.ScopeFor(viewer)}

	total, err := s.store.Tickets().Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	filter.Limit = TicketsPerPage
	filter.Offset = (page - 1) * TicketsPerPage
	items, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	lastPage := (total + TicketsPerPage - 1) / TicketsPerPage
	if lastPage < 1 {
		lastPage = 1
	}
	return &TicketPage{
		Items:    items,
		Page:     page,
		PerPage:  TicketsPerPage,
		Total:    total,
		LastPage: lastPage,
	}, nil
}

// GetTicket loads a ticket with its attachments for the show view.
func (s *TicketService) GetTicket(ctx context.Context, viewer domain.Viewer, id string) (*TicketDetail, error) {
	ticket, err := s.loadTicket(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanView(viewer, ticket); err != nil {
		return nil, err
	}

	attachments, err := s.store.Attachments().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Attachments = attachments
	return s.detail(ctx, viewer, ticket)
}

// GetTicketForEdit loads a ticket for the edit view.
func (s *TicketService) GetTicketForEdit(ctx context.Context, viewer domain.Viewer, id string) (*TicketDetail, error) {
	ticket, err := s.loadTicket(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanEdit(viewer, ticket); err != nil {
		return nil, err
	}
	return s.detail(ctx, viewer, ticket)
}

// AssignableStaff lists IT staff a manager may assign tickets to.
func (s *TicketService) AssignableStaff(ctx context.Context, viewer domain.Viewer) ([]domain.User, error) {
	if !access.CanAssign(viewer) {
		return nil, apperrors.NewForbidden("Only IT managers can assign tickets.")
	}
	return s.store.Users().ListByRole(ctx, domain.RoleITStaff)
}

// UpdateTicket changes status and, for managers, assignment.
func (s *TicketService) UpdateTicket(ctx context.Context, viewer domain.Viewer, id string, req access.UpdateRequest) (*domain.Ticket, error) {
	var (
		oldStatus   domain.TicketStatus
		oldAssignee *string
		changes     access.Changes
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := s.loadTicket(ctx, tx, id)
		if err != nil {
			return err
		}
		changes, err = access.AuthorizeUpdate(viewer, ticket, req)
		if err != nil {
			return err
		}
		if changes.AssignmentChanged && changes.AssignedTo != nil {
			if err := checkAssignee(ctx, tx.Users(), *changes.AssignedTo); err != nil {
				return err
			}
		}

		oldStatus, oldAssignee = ticket.Status, ticket.AssignedTo
		ticket.Status = changes.Status
		ticket.AssignedTo = changes.AssignedTo
		return tx.Tickets().Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	if oldStatus != changes.Status {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: id,
			Actor:    events.ActorFor(viewer),
			Payload:  events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: changes.Status},
		})
	}
	if changes.AssignmentChanged {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: id,
			Actor:    events.ActorFor(viewer),
			Payload:  events.TicketAssignedPayload{PreviousAssignee: oldAssignee, Assignee: changes.AssignedTo},
		})
	}
	return s.store.Tickets().GetByID(ctx, id)
}

// DeleteTicket removes a ticket, its attachment rows and their blobs.
// Blob removal failures are logged and do not abort the delete.
func (s *TicketService) DeleteTicket(ctx context.Context, viewer domain.Viewer, id string) error {
	if err := access.CanDelete(viewer); err != nil {
		return err
	}

	var (
		title       string
		attachments []domain.Attachment
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := s.loadTicket(ctx, tx, id)
		if err != nil {
			return err
		}
		title = ticket.Title

		attachments, err = tx.Attachments().ListByTicket(ctx, ticket.ID)
		if err != nil {
			return err
		}
		for _, att := range attachments {
			if err := s.blobs.Delete(ctx, att.Filepath); err != nil {
				s.logger.Warn("failed to delete attachment blob",
					zap.String("ticket_id", ticket.ID),
					zap.String("attachment_id", att.ID),
					zap.String("path", att.Filepath),
					zap.Error(err))
			}
		}
		if _, err := tx.Attachments().DeleteByTicket(ctx, ticket.ID); err != nil {
			return err
		}
		return tx.Tickets().Delete(ctx, ticket.ID)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Actor:    events.ActorFor(viewer),
		Payload:  events.TicketDeletedPayload{Title: title, Attachments: len(attachments)},
	})
	return nil
}

// OpenAttachment returns an attachment of a ticket the viewer may see,
// with a reader over its content. The caller closes the reader.
func (s *TicketService) OpenAttachment(ctx context.Context, viewer domain.Viewer, ticketID, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	ticket, err := s.loadTicket(ctx, s.store, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if err := access.CanView(viewer, ticket); err != nil {
		return nil, nil, err
	}

	notFound := apperrors.NewNotFound("attachment", map[string]any{"id": attachmentID})
	if _, err := uuid.Parse(attachmentID); err != nil {
		return nil, nil, notFound
	}
	attachment, err := s.store.Attachments().GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFound
		}
		return nil, nil, err
	}
	if attachment.TicketID != ticket.ID {
		return nil, nil, notFound
	}

	body, err := s.blobs.Open(ctx, attachment.Filepath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, notFound
		}
		return nil, nil, err
	}
	return attachment, body, nil
}

func (s *TicketService) loadTicket(ctx context.Context, store repository.Store, id string) (*domain.Ticket, error) {
	notFound := apperrors.NewNotFound("ticket", map[string]any{"id": id})
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound
	}
	ticket, err := store.Tickets().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) detail(ctx context.Context, viewer domain.Viewer, ticket *domain.Ticket) (*TicketDetail, error) {
	detail := &TicketDetail{Ticket: ticket}
	if access.CanAssign(viewer) {
		staff, err := s.store.Users().ListByRole(ctx, domain.RoleITStaff)
		if err != nil {
			return nil, err
		}
		detail.AssignableStaff = staff
	}
	return detail, nil
}

func checkAssignee(ctx context.Context, users repository.UserRepository, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewFieldError("assigned_to", msgInvalidAssignee)
	}
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewFieldError("assigned_to", msgInvalidAssignee)
		}
		return err
	}
	if user.Role != domain.RoleITStaff {
		return apperrors.NewFieldError("assigned_to", msgInvalidAssignee)
	}
	return nil
}

func (s *TicketService) putBlob(ctx context.Context, key string, up checkedUpload) (int64, error) {
	rc, err := up.Open()
	if err != nil {
		return 0, fmt.Errorf("open upload %s: %w", up.Filename, err)
	}
	defer rc.Close()

	counter := &countingReader{r: io.LimitReader(rc, MaxAttachmentBytes+1)}
	if err := s.blobs.Put(ctx, key, counter, up.Size, up.MimeType); err != nil {
		return 0, err
	}
	if counter.n > MaxAttachmentBytes {
		return 0, apperrors.NewFieldError("attachments", msgAttachmentSize)
	}
	return counter.n, nil
}

func (s *TicketService) removeBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to remove blob after aborted create", zap.String("path", key), zap.Error(err))
		}
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func attachmentKey(ticketID, ext string) string {
	return path.Join(attachmentKeyPrefix, ticketID, uuid.NewString()+ext)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
