package access

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Denial messages returned to the caller.
const (
	MsgCreateDenied     = "Only employees can create tickets."
	MsgViewOwnOnly      = "You can only view your own tickets."
	MsgViewAssignedOnly = "You can only view tickets assigned to you."
	MsgEditDenied       = "You cannot edit tickets."
	MsgEditAssignedOnly = "You can only edit tickets assigned to you."
	MsgDeleteDenied     = "Only IT managers can delete tickets."
	MsgAccessDenied     = "You do not have access to this ticket."
)

// UpdateRequest is a requested change to a ticket. AssignedToSet records
// whether the caller sent the assignment field at all.
type UpdateRequest struct {
	Status        domain.TicketStatus
	AssignedTo    *string
	AssignedToSet bool
}

// Changes is the sanitized set of fields an update may write.
type Changes struct {
	Status            domain.TicketStatus
	AssignedTo        *string
	AssignmentChanged bool
}

// CanCreate allows employees only.
func CanCreate(viewer domain.Viewer) error {
	if viewer.Role == domain.RoleEmployee {
		return nil
	}
	return apperrors.NewForbidden(MsgCreateDenied)
}

// CanView applies the visibility rules to a single ticket.
func CanView(viewer domain.Viewer, ticket *domain.Ticket) error {
	if ScopeFor(viewer).Matches(ticket) {
		return nil
	}
	switch viewer.Role {
	case domain.RoleEmployee:
		return apperrors.NewForbidden(MsgViewOwnOnly)
	case domain.RoleITStaff:
		return apperrors.NewForbidden(MsgViewAssignedOnly)
	default:
		return apperrors.NewForbidden(MsgAccessDenied)
	}
}

// CanEdit allows IT staff on their assigned tickets and managers on all.
func CanEdit(viewer domain.Viewer, ticket *domain.Ticket) error {
	switch viewer.Role {
	case domain.RoleITManager:
		return nil
	case domain.RoleITStaff:
		if ticket.IsAssignedTo(viewer.ID) {
			return nil
		}
		return apperrors.NewForbidden(MsgEditAssignedOnly)
	default:
		return apperrors.NewForbidden(MsgEditDenied)
	}
}

// CanAssign reports whether the viewer may change ticket assignment.
func CanAssign(viewer domain.Viewer) bool {
	return viewer.Role == domain.RoleITManager
}

// AuthorizeUpdate checks the viewer may edit the ticket and strips the
// fields their role may not write. IT staff assignment input is dropped.
func AuthorizeUpdate(viewer domain.Viewer, ticket *domain.Ticket, req UpdateRequest) (Changes, error) {
	if err := CanEdit(viewer, ticket); err != nil {
		return Changes{}, err
	}
	if !req.Status.Valid() {
		return Changes{}, apperrors.NewFieldError("status", "Status must be one of: pending, in_progress, finished.")
	}

	changes := Changes{Status: req.Status, AssignedTo: ticket.AssignedTo}
	if CanAssign(viewer) && req.AssignedToSet {
		changes.AssignedTo = req.AssignedTo
		changes.AssignmentChanged = !sameAssignee(ticket.AssignedTo, req.AssignedTo)
	}
	return changes, nil
}

// CanDelete allows IT managers only.
func CanDelete(viewer domain.Viewer) error {
	if viewer.Role == domain.RoleITManager {
		return nil
	}
	return apperrors.NewForbidden(MsgDeleteDenied)
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
