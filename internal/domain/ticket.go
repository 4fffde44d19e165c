package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusFinished   TicketStatus = "finished"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{TicketStatusPending, TicketStatusInProgress, TicketStatusFinished}

// Valid reports whether the status belongs to the enumeration.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusFinished:
		return true
	default:
		return false
	}
}

// Label returns the display name.
func (s TicketStatus) Label() string {
	switch s {
	case TicketStatusPending:
		return "Pending"
	case TicketStatusInProgress:
		return "In Progress"
	case TicketStatusFinished:
		return "Finished"
	default:
		return string(s)
	}
}

// TicketPriority enumerates urgency. Values are the stored tokens.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Rendah"
	TicketPriorityMedium TicketPriority = "Sedang"
	TicketPriorityHigh   TicketPriority = "Tinggi"
)

// TicketPriorities lists every priority from low to high.
var TicketPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh}

// Valid reports whether the priority belongs to the enumeration.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	default:
		return false
	}
}

// Label returns the English display name.
func (p TicketPriority) Label() string {
	switch p {
	case TicketPriorityLow:
		return "Low"
	case TicketPriorityMedium:
		return "Medium"
	case TicketPriorityHigh:
		return "High"
	default:
		return string(p)
	}
}

// Ticket is a support request.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Priority    TicketPriority
	Status      TicketStatus
	Department  string
	CreatedBy   string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Creator     *UserSummary
	Assignee    *UserSummary
	Attachments []Attachment
}

// IsAssignedTo reports whether the ticket is assigned to the given user.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
