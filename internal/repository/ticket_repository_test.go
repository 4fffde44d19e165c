package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestBuildTicketWhere(t *testing.T) {
	tests := []struct {
		name      string
		filter    TicketFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "deny all",
			filter:    TicketFilter{},
			wantWhere: "1=0",
			wantArgs:  []any{},
		},
		{
			name:      "manager",
			filter:    TicketFilter{Scope: access.Scope{Kind: access.ScopeAll}},
			wantWhere: "1=1",
			wantArgs:  []any{},
		},
		{
			name:      "employee with status",
			filter:    TicketFilter{Scope: access.Scope{Kind: access.ScopeCreatedBy, UserID: "u1"}, Statuses: []domain.TicketStatus{domain.TicketStatusPending}},
			wantWhere: "t.created_by=$1 AND t.status IN ($2)",
			wantArgs:  []any{"u1", domain.TicketStatusPending},
		},
		{
			name: "staff with priorities and unassigned",
			filter: TicketFilter{
				Scope:      access.Scope{Kind: access.ScopeAssignedTo, UserID: "s1"},
				Priorities: []domain.TicketPriority{domain.TicketPriorityLow, domain.TicketPriorityHigh},
				Unassigned: true,
			},
			wantWhere: "t.assigned_to=$1 AND t.priority IN ($2,$3) AND t.assigned_to IS NULL",
			wantArgs:  []any{"s1", domain.TicketPriorityLow, domain.TicketPriorityHigh},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildTicketWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
