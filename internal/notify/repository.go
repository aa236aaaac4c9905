package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persiste notificações in-app.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert grava uma notificação para o destinatário.
func (r *Repository) Insert(ctx context.Context, input Input) (*Notification, error) {
	const query = `
        INSERT INTO notifications (id, recipient_id, title, message, type, link, read)
        VALUES ($1, $2, $3, $4, $5, $6, FALSE)
        RETURNING id, recipient_id, title, message, type, link, read, created_at, read_at
    `

	row := r.pool.QueryRow(ctx, query, uuid.New(), input.RecipientID, input.Title, input.Message, input.Type, input.Link)

	var n Notification
	if err := row.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.Type, &n.Link, &n.Read, &n.CreatedAt, &n.ReadAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByRecipient devolve notificações do destinatário, mais recentes primeiro.
func (r *Repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, onlyUnread bool, limit int) ([]Notification, error) {
	query := `
        SELECT id, recipient_id, title, message, type, link, read, created_at, read_at
        FROM notifications
        WHERE recipient_id = $1
    `
	if onlyUnread {
		query += " AND read = FALSE"
	}
	query += " ORDER BY created_at DESC LIMIT $2"

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.Type, &n.Link, &n.Read, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}

	return items, rows.Err()
}

// MarkRead marca como lida; apenas o próprio destinatário muta a flag.
func (r *Repository) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	const query = `
        UPDATE notifications
        SET read = TRUE, read_at = now()
        WHERE id = $1 AND recipient_id = $2
    `

	tag, err := r.pool.Exec(ctx, query, notificationID, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
