package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFor converts a request viewer into an event actor.
func ActorFor(viewer domain.Viewer) Actor {
	return Actor{UserID: viewer.ID, Role: viewer.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title       string                `json:"title"`
	Priority    domain.TicketPriority `json:"priority"`
	Department  string                `json:"department"`
	Attachments int                   `json:"attachments"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload. A nil assignee means the ticket was
// unassigned.
type TicketAssignedPayload struct {
	PreviousAssignee *string `json:"previous_assignee,omitempty"`
	Assignee         *string `json:"assignee,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Title       string `json:"title"`
	Attachments int    `json:"attachments"`
}
