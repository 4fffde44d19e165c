package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter selects tickets inside a visibility scope.
type TicketFilter struct {
	Scope      access.Scope
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Unassigned bool
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// List returns tickets newest first with creator and assignee summaries.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	CountByStatus(ctx context.Context, scope access.Scope) (map[domain.TicketStatus]int, error)
	CountByPriority(ctx context.Context, scope access.Scope) (map[domain.TicketPriority]int, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `
        t.id, t.title, t.description, t.priority, t.status, t.department, t.created_by, t.assigned_to,
        t.created_at, t.updated_at, c.name, c.email, a.name, a.email
        FROM tickets t
        JOIN users c ON c.id = t.created_by
        LEFT JOIN users a ON a.id = t.assigned_to`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, status, department, created_by, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Department,
		ticket.CreatedBy,
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, assigned_to=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query, ticket.Status, ticket.AssignedTo, ticket.ID).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` WHERE t.id=$1`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := buildTicketWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s WHERE %s ORDER BY t.created_at DESC, t.id DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	where, args := buildTicketWhere(filter)
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets t WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context, scope access.Scope) (map[domain.TicketStatus]int, error) {
	where, args := buildTicketWhere(TicketFilter{Scope: scope})
	rows, err := r.db.Query(ctx, `SELECT t.status, COUNT(*) FROM tickets t WHERE `+where+` GROUP BY t.status`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CountByPriority(ctx context.Context, scope access.Scope) (map[domain.TicketPriority]int, error) {
	where, args := buildTicketWhere(TicketFilter{Scope: scope})
	rows, err := r.db.Query(ctx, `SELECT t.priority, COUNT(*) FROM tickets t WHERE `+where+` GROUP BY t.priority`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketPriority]int, len(domain.TicketPriorities))
	for rows.Next() {
		var priority domain.TicketPriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		counts[priority] = count
	}
	return counts, rows.Err()
}

func buildTicketWhere(filter TicketFilter) (string, []any) {
	args := []any{}
	clauses := []string{scopeClause(filter.Scope, &args)}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Unassigned {
		clauses = append(clauses, "t.assigned_to IS NULL")
	}
	return strings.Join(clauses, " AND "), args
}

func scopeClause(scope access.Scope, args *[]any) string {
	switch scope.Kind {
	case access.ScopeCreatedBy:
		*args = append(*args, scope.UserID)
		return fmt.Sprintf("t.created_by=$%d", len(*args))
	case access.ScopeAssignedTo:
		*args = append(*args, scope.UserID)
		return fmt.Sprintf("t.assigned_to=$%d", len(*args))
	case access.ScopeAll:
		return "1=1"
	default:
		return "1=0"
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket                      domain.Ticket
			creatorName, creatorEmail   string
			assigneeName, assigneeEmail *string
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Priority,
			&ticket.Status,
			&ticket.Department,
			&ticket.CreatedBy,
			&ticket.AssignedTo,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&creatorName,
			&creatorEmail,
			&assigneeName,
			&assigneeEmail,
		); err != nil {
			return nil, err
		}
		ticket.Creator = &domain.UserSummary{ID: ticket.CreatedBy, Name: creatorName, Email: creatorEmail}
		if ticket.AssignedTo != nil && assigneeName != nil {
			ticket.Assignee = &domain.UserSummary{ID: *ticket.AssignedTo, Name: *assigneeName}
			if assigneeEmail != nil {
				ticket.Assignee.Email = *assigneeEmail
			}
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
