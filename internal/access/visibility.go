package access

import "github.com/spec-kit/helpdesk/internal/domain"

// ScopeKind identifies which rows a scope admits.
type ScopeKind int

const (
	// ScopeNone admits no rows.
	ScopeNone ScopeKind = iota
	// ScopeCreatedBy admits rows created by UserID.
	ScopeCreatedBy
	// ScopeAssignedTo admits rows assigned to UserID.
	ScopeAssignedTo
	// ScopeAll admits every row.
	ScopeAll
)

// Scope is a row predicate over tickets. Repositories translate it into a
// query clause; Matches evaluates it against a loaded ticket.
type Scope struct {
	Kind   ScopeKind
	UserID string
}

// ScopeFor returns the tickets the viewer may see. Unknown roles see nothing.
func ScopeFor(viewer domain.Viewer) Scope {
	switch viewer.Role {
	case domain.RoleEmployee:
		return Scope{Kind: ScopeCreatedBy, UserID: viewer.ID}
	case domain.RoleITStaff:
		return Scope{Kind: ScopeAssignedTo, UserID: viewer.ID}
	case domain.RoleITManager:
		return Scope{Kind: ScopeAll}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// Matches reports whether the ticket falls inside the scope.
func (s Scope) Matches(ticket *domain.Ticket) bool {
	if ticket == nil {
		return false
	}
	switch s.Kind {
	case ScopeCreatedBy:
		return ticket.CreatedBy == s.UserID
	case ScopeAssignedTo:
		return ticket.IsAssignedTo(s.UserID)
	case ScopeAll:
		return true
	default:
		return false
	}
}
