package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestDashboardByRole(t *testing.T) {
	f := newFixture(t)

	t1 := f.create(t, f.employee, "one")
	t2 := f.create(t, f.employee, "two")
	f.create(t, f.employee, "three")
	t4 := f.create(t, f.other, "four")

	assign := func(id string, staff domain.Viewer, status domain.TicketStatus) {
		_, err := f.tickets.UpdateTicket(f.ctx, f.manager, id, access.UpdateRequest{
			Status: status, AssignedTo: &staff.ID, AssignedToSet: true,
		})
		require.NoError(t, err)
	}
	assign(t1.ID, f.staff1, domain.TicketStatusInProgress)
	assign(t2.ID, f.staff1, domain.TicketStatusFinished)
	assign(t4.ID, f.staff2, domain.TicketStatusInProgress)

	emp, err := f.dashboard.Build(f.ctx, f.employee)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, emp.Role)
	assert.Equal(t, Statistics{Total: 3, Pending: 1, InProgress: 1, Finished: 1}, emp.Statistics)
	assert.Len(t, emp.RecentTickets, 3)
	assert.Nil(t, emp.Additional)

	staff, err := f.dashboard.Build(f.ctx, f.staff1)
	require.NoError(t, err)
	assert.Equal(t, Statistics{Total: 2, InProgress: 1, Finished: 1}, staff.Statistics)
	require.Len(t, staff.RecentTickets, 2)
	require.NotNil(t, staff.RecentTickets[0].Creator)
	assert.Equal(t, "Test Employee", staff.RecentTickets[0].Creator.Name)

	mgr, err := f.dashboard.Build(f.ctx, f.manager)
	require.NoError(t, err)
	assert.Equal(t, Statistics{Total: 4, Pending: 1, InProgress: 2, Finished: 1}, mgr.Statistics)
	require.NotNil(t, mgr.Additional)
	assert.Equal(t, 1, mgr.Additional.Unassigned)
	assert.Equal(t, 2, mgr.Additional.Employees)
	assert.Equal(t, 2, mgr.Additional.ITStaff)
	assert.Equal(t, map[domain.TicketPriority]int{
		domain.TicketPriorityLow:    0,
		domain.TicketPriorityMedium: 4,
		domain.TicketPriorityHigh:   0,
	}, mgr.Additional.ByPriority)
}

func TestDashboardRecentTicketsCapped(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		f.create(t, f.employee, "ticket")
	}
	last := f.create(t, f.employee, "latest")

	dash, err := f.dashboard.Build(f.ctx, f.employee)
	require.NoError(t, err)
	assert.Equal(t, 8, dash.Statistics.Total)
	require.Len(t, dash.RecentTickets, RecentTicketsLimit)
	assert.Equal(t, last.ID, dash.RecentTickets[0].ID)
}

func TestDashboardUnknownRoleSeesNothing(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.employee, "one")

	dash, err := f.dashboard.Build(f.ctx, domain.Viewer{ID: f.manager.ID, Role: "auditor"})
	require.NoError(t, err)
	assert.Equal(t, Statistics{}, dash.Statistics)
	assert.Empty(t, dash.RecentTickets)
	assert.Nil(t, dash.Additional)
}
