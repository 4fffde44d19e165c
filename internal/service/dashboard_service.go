package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Statistics are ticket counts inside the viewer's scope.
type Statistics struct {
	Total      int
	Pending    int
	InProgress int
	Finished   int
}

// ManagerStatistics are the extra figures shown to IT managers.
type ManagerStatistics struct {
	Unassigned int
	Employees  int
	ITStaff    int
	ByPriority map[domain.TicketPriority]int
}

// Dashboard is the role-scoped summary shown after login.
type Dashboard struct {
	Role          domain.Role
	Statistics    Statistics
	RecentTickets []domain.Ticket
	Additional    *ManagerStatistics
}

// DashboardService aggregates ticket statistics. Results are always
// computed from the store.
type DashboardService struct {
	store repository.Store
}

// NewDashboardService constructs the service.
func NewDashboardService(store repository.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Build computes the dashboard for the viewer.
func (s *DashboardService) Build(ctx context.Context, viewer domain.Viewer) (*Dashboard, error) {
	scope := access.ScopeFor(viewer)
	tickets := s.store.Tickets()

	byStatus, err := tickets.CountByStatus(ctx, scope)
	if err != nil {
		return nil, err
	}
	stats := Statistics{
		Pending:    byStatus[domain.TicketStatusPending],
		InProgress: byStatus[domain.TicketStatusInProgress],
		Finished:   byStatus[domain.TicketStatusFinished],
	}
	for _, n := range byStatus {
		stats.Total += n
	}

	recent, err := tickets.List(ctx, repository.TicketFilter{Scope: scope, Limit: RecentTicketsLimit})
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Role:          viewer.Role,
		Statistics:    stats,
		RecentTickets: recent,
	}
	if viewer.Role == domain.RoleITManager {
		extra, err := s.managerStatistics(ctx, scope)
		if err != nil {
			return nil, err
		}
		dashboard.Additional = extra
	}
	return dashboard, nil
}

func (s *DashboardService) managerStatistics(ctx context.Context, scope access.Scope) (*ManagerStatistics, error) {
	unassigned, err := s.store.Tickets().Count(ctx, repository.TicketFilter{Scope: scope, Unassigned: true})
	if err != nil {
		return nil, err
	}
	employees, err := s.store.Users().CountByRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}
	staff, err := s.store.Users().CountByRole(ctx, domain.RoleITStaff)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.Tickets().CountByPriority(ctx, scope)
	if err != nil {
		return nil, err
	}

	byPriority := make(map[domain.TicketPriority]int, len(domain.TicketPriorities))
	for _, p := range domain.TicketPriorities {
		byPriority[p] = counts[p]
	}
	return &ManagerStatistics{
		Unassigned: unassigned,
		Employees:  employees,
		ITStaff:    staff,
		ByPriority: byPriority,
	}, nil
}
