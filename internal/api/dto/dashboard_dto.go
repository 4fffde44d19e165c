package dto

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// StatisticsResponse are the ticket counts in the viewer's scope.
type StatisticsResponse struct {
	TotalTickets      int `json:"total_tickets"`
	PendingTickets    int `json:"pending_tickets"`
	InProgressTickets int `json:"in_progress_tickets"`
	FinishedTickets   int `json:"finished_tickets"`
}

// AdditionalStatsResponse is only present for IT managers.
type AdditionalStatsResponse struct {
	UnassignedTickets int                           `json:"unassigned_tickets"`
	TotalEmployees    int                           `json:"total_employees"`
	TotalITStaff      int                           `json:"total_it_staff"`
	TicketsByPriority map[domain.TicketPriority]int `json:"tickets_by_priority"`
}

// DashboardResponse payload.
type DashboardResponse struct {
	UserRole        domain.Role              `json:"user_role"`
	Statistics      StatisticsResponse       `json:"statistics"`
	RecentTickets   []TicketResponse         `json:"recent_tickets"`
	AdditionalStats *AdditionalStatsResponse `json:"additional_stats,omitempty"`
}

// NewDashboardResponse converts a dashboard.
func NewDashboardResponse(d *service.Dashboard) DashboardResponse {
	resp := DashboardResponse{
		UserRole: d.Role,
		Statistics: StatisticsResponse{
			TotalTickets:      d.Statistics.Total,
			PendingTickets:    d.Statistics.Pending,
			InProgressTickets: d.Statistics.InProgress,
			FinishedTickets:   d.Statistics.Finished,
		},
		RecentTickets: NewTicketResponses(d.RecentTickets),
	}
	if d.Additional != nil {
		resp.AdditionalStats = &AdditionalStatsResponse{
			UnassignedTickets: d.Additional.Unassigned,
			TotalEmployees:    d.Additional.Employees,
			TotalITStaff:      d.Additional.ITStaff,
			TicketsByPriority: d.Additional.ByPriority,
		}
	}
	return resp
}
