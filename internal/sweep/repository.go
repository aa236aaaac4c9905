package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverdueTask é a projeção mínima de tarefa atrasada usada pela varredura.
type OverdueTask struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Title      string
	Deadline   time.Time
	AssignedTo *uuid.UUID
}

// Repository concentra as leituras e o ledger de dedupe da varredura.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListOverdue devolve tarefas com prazo vencido e não concluídas.
func (r *Repository) ListOverdue(ctx context.Context) ([]OverdueTask, error) {
	const query = `
        SELECT id, tenant_id, title, deadline, assigned_to
        FROM tasks
        WHERE deadline IS NOT NULL
          AND deadline < now()
          AND status <> 'concluida'
        ORDER BY deadline ASC
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []OverdueTask
	for rows.Next() {
		var t OverdueTask
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Title, &t.Deadline, &t.AssignedTo); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// GetLastNotified devolve o último disparo registrado para a tarefa, ou nil.
func (r *Repository) GetLastNotified(ctx context.Context, taskID uuid.UUID) (*time.Time, error) {
	const query = `SELECT last_notified_at FROM overdue_notification_log WHERE task_id = $1`

	var ts time.Time
	err := r.pool.QueryRow(ctx, query, taskID).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// UpsertLastNotified registra o disparo para a tarefa no ledger de dedupe.
func (r *Repository) UpsertLastNotified(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	const query = `
        INSERT INTO overdue_notification_log (task_id, last_notified_at)
        VALUES ($1, $2)
        ON CONFLICT (task_id) DO UPDATE SET last_notified_at = EXCLUDED.last_notified_at
    `
	_, err := r.pool.Exec(ctx, query, taskID, at)
	return err
}

// ListCompanyAdminIDs devolve admins ativos vinculados à empresa.
func (r *Repository) ListCompanyAdminIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	const query = `
        SELECT p.id
        FROM professionals p
        JOIN company_links l ON l.professional_id = p.id
        WHERE l.company_id = $1
          AND l.active = TRUE
          AND p.active = TRUE
          AND p.role = 'admin'
    `
	return r.scanIDs(ctx, query, companyID)
}

// ListGlobalAdminIDs devolve admins ativos da plataforma inteira.
func (r *Repository) ListGlobalAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	const query = `
        SELECT id FROM professionals WHERE role = 'admin' AND active = TRUE
    `
	return r.scanIDs(ctx, query)
}

func (r *Repository) scanIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
