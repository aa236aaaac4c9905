package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tvgflow/api/internal/db"
)

const taskColumns = `
    id, tenant_id, client_id, department_id, assigned_to,
    title, description, priority, status, deadline,
    created_at, updated_at, completed_at
`

// Repository persiste tarefas com escopo de tenant em todas as queries.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.TenantID, &t.ClientID, &t.DepartmentID, &t.AssignedTo,
		&t.Title, &t.Description, &t.Priority, &t.Status, &t.Deadline,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID recupera tarefa pertencente ao tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND tenant_id = $2`
	return scanTask(r.pool.QueryRow(ctx, query, id, tenantID))
}

// List devolve tarefas do tenant aplicando filtros opcionais.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filters Filters) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE tenant_id = $1`
	args := []any{tenantID}

	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.Priority != "" {
		args = append(args, filters.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if filters.DepartmentID != nil {
		args = append(args, *filters.DepartmentID)
		query += fmt.Sprintf(" AND department_id = $%d", len(args))
	}
	if filters.AssignedTo != nil {
		args = append(args, *filters.AssignedTo)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	if filters.OverdueOnly {
		query += " AND deadline IS NOT NULL AND deadline < now() AND status <> 'concluida'"
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}

	return tasks, rows.Err()
}

// Insert cria a tarefa em estado pendente.
func (r *Repository) Insert(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*Task, error) {
	query := `
        INSERT INTO tasks (id, tenant_id, client_id, department_id, assigned_to,
                           title, description, priority, status, deadline)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query,
		uuid.New(), tenantID, input.ClientID, input.DepartmentID, input.AssignedTo,
		input.Title, input.Description, input.Priority, StatusPending, input.Deadline,
	)
	return scanTask(row)
}

// Update regrava os campos mutáveis da tarefa já mesclados pelo serviço.
func (r *Repository) Update(ctx context.Context, t *Task) (*Task, error) {
	query := `
        UPDATE tasks
        SET client_id = $3,
            department_id = $4,
            assigned_to = $5,
            title = $6,
            description = $7,
            priority = $8,
            status = $9,
            deadline = $10,
            completed_at = $11,
            updated_at = now()
        WHERE id = $1 AND tenant_id = $2
        RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query,
		t.ID, t.TenantID, t.ClientID, t.DepartmentID, t.AssignedTo,
		t.Title, t.Description, t.Priority, t.Status, t.Deadline, t.CompletedAt,
	)
	return scanTask(row)
}

// Delete remove a tarefa e toda a sua decomposição em uma transação: logs de
// micro-tarefa, micro-tarefas e o registro de dedupe do sweep saem junto para
// não deixar órfãos.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            DELETE FROM micro_task_logs
            WHERE micro_task_id IN (SELECT id FROM micro_tasks WHERE task_id = $1)
        `, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM micro_tasks WHERE task_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM overdue_notification_log WHERE task_id = $1`, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND tenant_id = $2`, id, tenantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
