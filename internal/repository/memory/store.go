// Package memory provides an in-process repository.Store used when no
// database is configured and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type state struct {
	users       map[string]domain.User
	tickets     map[string]domain.Ticket
	attachments map[string]domain.Attachment
	order       map[string]int64
	seq         int64
}

func newState() *state {
	return &state{
		users:       map[string]domain.User{},
		tickets:     map[string]domain.Ticket{},
		attachments: map[string]domain.Attachment{},
		order:       map[string]int64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.attachments {
		c.attachments[k] = v
	}
	for k, v := range s.order {
		c.order[k] = v
	}
	c.seq = s.seq
	return c
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

// Store keeps users, tickets and attachments in maps. Writes are
// serialized; a transaction works on a copy that replaces the live data on
// success.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	data    *state
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) Tickets() repository.TicketRepository {
	return &ticketRepo{store: s}
}

func (s *Store) Attachments() repository.AttachmentRepository {
	return &attachmentRepo{store: s}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepo{store: s}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	tx := &Store{data: s.data.clone()}
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = tx.data
	s.mu.Unlock()
	return nil
}

func (s *Store) write(fn func(d *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

type ticketRepo struct {
	store *Store
}

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.store.write(func(d *state) error {
		if _, ok := d.users[ticket.CreatedBy]; !ok {
			return fmt.Errorf("tickets_created_by_fkey: user %s does not exist", ticket.CreatedBy)
		}
		now := time.Now().UTC()
		ticket.ID = uuid.NewString()
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
		stored := *ticket
		stored.AssignedTo = copyString(ticket.AssignedTo)
		stored.Creator, stored.Assignee, stored.Attachments = nil, nil, nil
		d.tickets[ticket.ID] = stored
		d.order[ticket.ID] = d.next()
		return nil
	})
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	return r.store.write(func(d *state) error {
		stored, ok := d.tickets[ticket.ID]
		if !ok {
			return repository.ErrNotFound
		}
		stored.Status = ticket.Status
		stored.AssignedTo = copyString(ticket.AssignedTo)
		stored.UpdatedAt = time.Now().UTC()
		d.tickets[ticket.ID] = stored
		ticket.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

func (r *ticketRepo) Delete(_ context.Context, id string) error {
	return r.store.write(func(d *state) error {
		if _, ok := d.tickets[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.tickets, id)
		delete(d.order, id)
		for attID, att := range d.attachments {
			if att.TicketID == id {
				delete(d.attachments, attID)
			}
		}
		return nil
	})
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var (
		ticket domain.Ticket
		found  bool
	)
	r.store.read(func(d *state) {
		ticket, found = d.tickets[id]
		if found {
			ticket = withUsers(d, ticket)
		}
	})
	if !found {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	r.store.read(func(d *state) {
		matched := filterTickets(d, filter)
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return d.order[matched[i].ID] > d.order[matched[j].ID]
		})

		limit := filter.Limit
		if limit <= 0 {
			limit = 10
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(matched) {
			return
		}
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		for _, ticket := range matched[offset:end] {
			result = append(result, withUsers(d, ticket))
		}
	})
	return result, nil
}

func (r *ticketRepo) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	var count int
	r.store.read(func(d *state) {
		count = len(filterTickets(d, filter))
	})
	return count, nil
}

func (r *ticketRepo) CountByStatus(_ context.Context, scope access.Scope) (map[domain.TicketStatus]int, error) {
	counts := map[domain.TicketStatus]int{}
	r.store.read(func(d *state) {
		for _, ticket := range filterTickets(d, repository.TicketFilter{Scope: scope}) {
			counts[ticket.Status]++
		}
	})
	return counts, nil
}

func (r *ticketRepo) CountByPriority(_ context.Context, scope access.Scope) (map[domain.TicketPriority]int, error) {
	counts := map[domain.TicketPriority]int{}
	r.store.read(func(d *state) {
		for _, ticket := range filterTickets(d, repository.TicketFilter{Scope: scope}) {
			counts[ticket.Priority]++
		}
	})
	return counts, nil
}

func filterTickets(d *state, filter repository.TicketFilter) []domain.Ticket {
	var result []domain.Ticket
	for _, ticket := range d.tickets {
		if !filter.Scope.Matches(&ticket) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		if filter.Unassigned && ticket.AssignedTo != nil {
			continue
		}
		result = append(result, ticket)
	}
	return result
}

func withUsers(d *state, ticket domain.Ticket) domain.Ticket {
	ticket.AssignedTo = copyString(ticket.AssignedTo)
	if creator, ok := d.users[ticket.CreatedBy]; ok {
		summary := creator.Summary()
		ticket.Creator = &summary
	}
	if ticket.AssignedTo != nil {
		if assignee, ok := d.users[*ticket.AssignedTo]; ok {
			summary := assignee.Summary()
			ticket.Assignee = &summary
		}
	}
	return ticket
}

type attachmentRepo struct {
	store *Store
}

func (r *attachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	return r.store.write(func(d *state) error {
		if _, ok := d.tickets[attachment.TicketID]; !ok {
			return fmt.Errorf("ticket_attachments_ticket_id_fkey: ticket %s does not exist", attachment.TicketID)
		}
		attachment.ID = uuid.NewString()
		attachment.CreatedAt = time.Now().UTC()
		d.attachments[attachment.ID] = *attachment
		d.order[attachment.ID] = d.next()
		return nil
	})
}

func (r *attachmentRepo) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	var (
		attachment domain.Attachment
		found      bool
	)
	r.store.read(func(d *state) {
		attachment, found = d.attachments[id]
	})
	if !found {
		return nil, repository.ErrNotFound
	}
	return &attachment, nil
}

func (r *attachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var result []domain.Attachment
	r.store.read(func(d *state) {
		for _, att := range d.attachments {
			if att.TicketID == ticketID {
				result = append(result, att)
			}
		}
		sort.Slice(result, func(i, j int) bool {
			return d.order[result[i].ID] < d.order[result[j].ID]
		})
	})
	return result, nil
}

func (r *attachmentRepo) DeleteByTicket(_ context.Context, ticketID string) (int64, error) {
	var deleted int64
	err := r.store.write(func(d *state) error {
		for id, att := range d.attachments {
			if att.TicketID == ticketID {
				delete(d.attachments, id)
				delete(d.order, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

type userRepo struct {
	store *Store
}

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	return r.store.write(func(d *state) error {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return fmt.Errorf("users_email_key: email %s already exists", user.Email)
			}
		}
		now := time.Now().UTC()
		user.ID = uuid.NewString()
		user.CreatedAt = now
		user.UpdatedAt = now
		d.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	var (
		user  domain.User
		found bool
	)
	r.store.read(func(d *state) {
		user, found = d.users[id]
	})
	if !found {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var (
		user  domain.User
		found bool
	)
	r.store.read(func(d *state) {
		for _, candidate := range d.users {
			if strings.EqualFold(candidate.Email, email) {
				user, found = candidate, true
				return
			}
		}
	})
	if !found {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var result []domain.User
	r.store.read(func(d *state) {
		for _, user := range d.users {
			if user.Role == role {
				result = append(result, user)
			}
		}
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *userRepo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	users, err := r.ListByRole(ctx, role)
	return len(users), err
}

func containsStatus(list []domain.TicketStatus, v domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, v domain.TicketPriority) bool {
	for _, candidate := range list {
		if candidate == v {
			return true
		}
	}
	return false
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
