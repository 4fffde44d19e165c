package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = pgx.ErrNoRows

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store groups the repositories that share a transaction boundary.
type Store interface {
	Tickets() TicketRepository
	Attachments() AttachmentRepository
	Users() UserRepository
	// WithinTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewPostgresStore returns a Store backed by the pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, db: pool}
}

func (s *pgStore) Tickets() TicketRepository {
	return NewTicketRepository(s.db)
}

func (s *pgStore) Attachments() AttachmentRepository {
	return NewAttachmentRepository(s.db)
}

func (s *pgStore) Users() UserRepository {
	return NewUserRepository(s.db)
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
