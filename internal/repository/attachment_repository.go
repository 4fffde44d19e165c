package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	DeleteByTicket(ctx context.Context, ticketID string) (int64, error)
}

type attachmentRepository struct {
	db DBTX
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(db DBTX) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, filename, filepath, mime_type, file_size)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.Filename,
		attachment.Filepath,
		attachment.MimeType,
		attachment.FileSize,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, filename, filepath, mime_type, file_size, created_at
        FROM ticket_attachments WHERE id=$1`
	var attachment domain.Attachment
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.Filename,
		&attachment.Filepath,
		&attachment.MimeType,
		&attachment.FileSize,
		&attachment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, filename, filepath, mime_type, file_size, created_at
        FROM ticket_attachments WHERE ticket_id=$1
        ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.Filename,
			&attachment.Filepath,
			&attachment.MimeType,
			&attachment.FileSize,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) DeleteByTicket(ctx context.Context, ticketID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ticket_attachments WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
