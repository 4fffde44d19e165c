package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "password"

// ErrAlreadySeeded is returned when the manager account already exists.
var ErrAlreadySeeded = errors.New("seed: demo data already present")

var (
	departments = []string{"HR", "Finance", "Marketing", "Sales", "Operations", "Legal"}

	firstNames = []string{"Alice", "Brian", "Chloe", "Daniel", "Elena", "Farid", "Grace", "Hiro", "Ines", "Jonas", "Kara", "Liam", "Maya", "Noah", "Olga", "Priya"}
	lastNames  = []string{"Anders", "Baker", "Costa", "Dubois", "Evans", "Fischer", "Garcia", "Haddad", "Ito", "Jensen", "Kowalski", "Lopez"}

	issues = []string{
		"Computer won't start",
		"Email not working",
		"Printer connection issues",
		"Software installation request",
		"Network connectivity problems",
		"Password reset needed",
		"File sharing permissions",
		"VPN access issues",
		"Monitor display problems",
		"Keyboard replacement",
		"Mouse not responding",
		"Slow computer performance",
		"Browser crashes frequently",
		"Unable to access shared drive",
		"Video conference setup",
		"Mobile device setup",
		"Application error messages",
		"Database connection timeout",
		"Backup and recovery",
		"Security software alerts",
	}

	descriptions = []string{
		"I'm experiencing issues with my computer and need technical assistance.",
		"The problem started this morning and is affecting my productivity.",
		"I've tried basic troubleshooting but the issue persists.",
		"This is preventing me from completing my daily tasks.",
		"The error occurs consistently when I try to perform this action.",
		"I need help setting up this new software/hardware.",
		"The system has been running slowly for the past few days.",
		"I'm getting error messages that I don't understand.",
		"This worked fine yesterday but stopped working today.",
		"I need access to this system to complete my work.",
	}

	details = []string{
		"It happens on the second floor workstation near the window.",
		"My manager asked me to raise a ticket before the end of the week.",
		"Restarting did not help and a colleague has the same problem.",
		"Please contact me by phone if you need remote access.",
		"The issue shows up mostly after lunch when the office is busy.",
	}
)

// Options tunes a seeding run.
type Options struct {
	BcryptCost int
	// Rand drives fixture selection. A nil value seeds a fixed source.
	Rand *rand.Rand
}

// Result summarizes what a run inserted.
type Result struct {
	Users   int
	Tickets int
}

type seeder struct {
	store    repository.Store
	rnd      *rand.Rand
	password string
	result   Result
	emails   map[string]struct{}
}

// Run inserts the demo accounts and a spread of tickets in one transaction.
func Run(ctx context.Context, store repository.Store, opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := store.Users().GetByEmail(ctx, "manager@servicedesk.com"); err == nil {
		return Result{}, ErrAlreadySeeded
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Result{}, err
	}

	hash, err := auth.HashPassword(DefaultPassword, opts.BcryptCost)
	if err != nil {
		return Result{}, err
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(1, 2))
	}

	var result Result
	err = store.WithinTx(ctx, func(tx repository.Store) error {
		s := &seeder{store: tx, rnd: rnd, password: hash, emails: map[string]struct{}{}}
		if err := s.run(ctx); err != nil {
			return err
		}
		result = s.result
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info("service desk seeded",
		zap.Int("users", result.Users),
		zap.Int("tickets", result.Tickets),
	)
	for _, email := range []string{"manager@servicedesk.com", "john@servicedesk.com", "sarah@servicedesk.com", "employee@servicedesk.com"} {
		logger.Info("test account", zap.String("email", email), zap.String("password", DefaultPassword))
	}
	return result, nil
}

func (s *seeder) run(ctx context.Context) error {
	if _, err := s.user(ctx, "IT Manager", "manager@servicedesk.com", domain.RoleITManager, "IT"); err != nil {
		return err
	}
	john, err := s.user(ctx, "John Smith", "john@servicedesk.com", domain.RoleITStaff, "IT")
	if err != nil {
		return err
	}
	sarah, err := s.user(ctx, "Sarah Johnson", "sarah@servicedesk.com", domain.RoleITStaff, "IT")
	if err != nil {
		return err
	}
	employee, err := s.user(ctx, "Test Employee", "employee@servicedesk.com", domain.RoleEmployee, "HR")
	if err != nil {
		return err
	}

	employees := []*domain.User{employee}
	for range 15 {
		u, err := s.randomUser(ctx, domain.RoleEmployee, pick(s.rnd, departments))
		if err != nil {
			return err
		}
		employees = append(employees, u)
	}
	staff := []*domain.User{john, sarah}
	for range 3 {
		u, err := s.randomUser(ctx, domain.RoleITStaff, "IT")
		if err != nil {
			return err
		}
		staff = append(staff, u)
	}

	batches := []struct {
		count    int
		status   domain.TicketStatus
		priority domain.TicketPriority
		creator  func() *domain.User
		assignee func() *domain.User
	}{
		{8, domain.TicketStatusPending, "", s.randomOf(employees), nil},
		{12, domain.TicketStatusInProgress, "", s.randomOf(employees), s.randomOf(staff)},
		{20, domain.TicketStatusFinished, "", s.randomOf(employees), s.randomOf(staff)},
		{5, domain.TicketStatusPending, domain.TicketPriorityHigh, s.randomOf(employees), nil},
		{3, domain.TicketStatusPending, "", fixed(employee), nil},
		{2, domain.TicketStatusInProgress, "", fixed(employee), fixed(john)},
		{4, domain.TicketStatusFinished, "", fixed(employee), s.randomOf(staff)},
	}
	for _, b := range batches {
		for range b.count {
			ticket := &domain.Ticket{
				Title:       pick(s.rnd, issues),
				Description: pick(s.rnd, descriptions) + " " + pick(s.rnd, details),
				Priority:    b.priority,
				Status:      b.status,
				Department:  pick(s.rnd, departments),
				CreatedBy:   b.creator().ID,
			}
			if ticket.Priority == "" {
				ticket.Priority = pick(s.rnd, domain.TicketPriorities)
			}
			if b.assignee != nil {
				id := b.assignee().ID
				ticket.AssignedTo = &id
			}
			if err := s.store.Tickets().Create(ctx, ticket); err != nil {
				return fmt.Errorf("seed ticket: %w", err)
			}
			s.result.Tickets++
		}
	}
	return nil
}

func (s *seeder) user(ctx context.Context, name, email string, role domain.Role, department string) (*domain.User, error) {
	dept := department
	u := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: s.password,
		Role:         role,
		Department:   &dept,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, fmt.Errorf("seed user %s: %w", email, err)
	}
	s.emails[email] = struct{}{}
	s.result.Users++
	return u, nil
}

func (s *seeder) randomUser(ctx context.Context, role domain.Role, department string) (*domain.User, error) {
	for {
		first, last := pick(s.rnd, firstNames), pick(s.rnd, lastNames)
		email := fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), s.rnd.IntN(100))
		if _, taken := s.emails[email]; taken {
			continue
		}
		return s.user(ctx, first+" "+last, email, role, department)
	}
}

func (s *seeder) randomOf(users []*domain.User) func() *domain.User {
	return func() *domain.User { return users[s.rnd.IntN(len(users))] }
}

func fixed(u *domain.User) func() *domain.User {
	return func() *domain.User { return u }
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.IntN(len(items))]
}
