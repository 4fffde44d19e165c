package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CreateTicketRequest payload. Attachments arrive as multipart files and
// are read separately.
type CreateTicketRequest struct {
	Title       string                `json:"title" form:"title"`
	Description string                `json:"description" form:"description"`
	Priority    domain.TicketPriority `json:"priority" form:"priority"`
	Department  string                `json:"department" form:"department"`
}

// ToInput converts the request into service input.
func (r CreateTicketRequest) ToInput(uploads []service.Upload) service.CreateTicketInput {
	return service.CreateTicketInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Department:  r.Department,
		Attachments: uploads,
	}
}

// OptionalID distinguishes an absent JSON field from an explicit null.
// An empty string counts as null.
type OptionalID struct {
	Value *string
	Set   bool
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("assigned_to must be a string or null")
	}
	if s == "" {
		o.Value = nil
		return nil
	}
	o.Value = &s
	return nil
}

// UpdateTicketRequest payload.
type UpdateTicketRequest struct {
	Status     domain.TicketStatus `json:"status"`
	AssignedTo OptionalID          `json:"assigned_to"`
}

// TicketPageQuery captures list query parameters.
type TicketPageQuery struct {
	Page int `query:"page"`
}

// UserSummaryResponse is the public projection of a user.
type UserSummaryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StaffOption is an assignable IT staff member.
type StaffOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	FileSize    int64     `json:"file_size"`
	HumanSize   string    `json:"human_size"`
	DownloadURL string    `json:"download_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// TicketResponse is a ticket with creator and assignee summaries.
type TicketResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Priority      domain.TicketPriority `json:"priority"`
	PriorityLabel string                `json:"priority_label"`
	Status        domain.TicketStatus   `json:"status"`
	StatusLabel   string                `json:"status_label"`
	Department    string                `json:"department"`
	CreatedBy     string                `json:"created_by"`
	AssignedTo    *string               `json:"assigned_to"`
	Creator       *UserSummaryResponse  `json:"creator,omitempty"`
	Assignee      *UserSummaryResponse  `json:"assignee"`
	Attachments   []AttachmentResponse  `json:"attachments,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketDetailResponse is the show and edit view payload.
type TicketDetailResponse struct {
	Ticket  TicketResponse `json:"ticket"`
	ITStaff []StaffOption  `json:"it_staff"`
}

// PageMeta describes a paginated list.
type PageMeta struct {
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Data []TicketResponse `json:"data"`
	Meta PageMeta         `json:"meta"`
}

// Option is a value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CreateTicketFormResponse describes the ticket creation form.
type CreateTicketFormResponse struct {
	Department         *string  `json:"department"`
	Priorities         []Option `json:"priorities"`
	MaxAttachments     int      `json:"max_attachments"`
	MaxAttachmentBytes int64    `json:"max_attachment_bytes"`
	AllowedTypes       []string `json:"allowed_types"`
}

// NewCreateTicketForm builds the creation form metadata for a user.
func NewCreateTicketForm(department *string) CreateTicketFormResponse {
	priorities := make([]Option, 0, len(domain.TicketPriorities))
	for _, p := range domain.TicketPriorities {
		priorities = append(priorities, Option{Value: string(p), Label: p.Label()})
	}
	return CreateTicketFormResponse{
		Department:         department,
		Priorities:         priorities,
		MaxAttachments:     service.MaxAttachments,
		MaxAttachmentBytes: service.MaxAttachmentBytes,
		AllowedTypes:       []string{"jpeg", "png", "jpg", "gif", "pdf", "doc", "docx"},
	}
}

// NewUserSummary converts a domain summary.
func NewUserSummary(u *domain.UserSummary) *UserSummaryResponse {
	if u == nil {
		return nil
	}
	return &UserSummaryResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NewTicketResponse converts a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Priority:      t.Priority,
		PriorityLabel: t.Priority.Label(),
		Status:        t.Status,
		StatusLabel:   t.Status.Label(),
		Department:    t.Department,
		CreatedBy:     t.CreatedBy,
		AssignedTo:    t.AssignedTo,
		Creator:       NewUserSummary(t.Creator),
		Assignee:      NewUserSummary(t.Assignee),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	for _, a := range t.Attachments {
		resp.Attachments = append(resp.Attachments, NewAttachmentResponse(a))
	}
	return resp
}

// NewTicketResponses converts a slice of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewAttachmentResponse converts an attachment.
func NewAttachmentResponse(a domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		Filename:    a.Filename,
		MimeType:    a.MimeType,
		FileSize:    a.FileSize,
		HumanSize:   a.HumanFileSize(),
		DownloadURL: fmt.Sprintf("/tickets/%s/attachments/%s", a.TicketID, a.ID),
		CreatedAt:   a.CreatedAt,
	}
}

// NewStaffOptions converts users to assignment options.
func NewStaffOptions(users []domain.User) []StaffOption {
	out := make([]StaffOption, 0, len(users))
	for _, u := range users {
		out = append(out, StaffOption{ID: u.ID, Name: u.Name})
	}
	return out
}

// NewTicketDetailResponse converts a ticket detail.
func NewTicketDetailResponse(d *service.TicketDetail) TicketDetailResponse {
	return TicketDetailResponse{
		Ticket:  NewTicketResponse(d.Ticket),
		ITStaff: NewStaffOptions(d.AssignableStaff),
	}
}

// NewTicketListResponse converts a ticket page.
func NewTicketListResponse(p *service.TicketPage) TicketListResponse {
	return TicketListResponse{
		Data: NewTicketResponses(p.Items),
		Meta: PageMeta{Page: p.Page, PerPage: p.PerPage, Total: p.Total, LastPage: p.LastPage},
	}
}
