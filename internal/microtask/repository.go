package microtask

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tvgflow/api/internal/db"
)

const microTaskColumns = `
    id, task_id, assigned_to, function_label, status, depends_on, created_at, updated_at
`

// Repository persiste micro-tarefas e seus logs. As mutações de estado usam
// update condicional por estado+dono: RowsAffected zero detecta corrida de
// forma determinística, sem confiar na leitura anterior.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanMicroTask(row pgx.Row) (*MicroTask, error) {
	var m MicroTask
	err := row.Scan(&m.ID, &m.TaskID, &m.AssignedTo, &m.FunctionLabel, &m.Status, &m.DependsOn, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID recupera uma micro-tarefa.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*MicroTask, error) {
	query := `SELECT ` + microTaskColumns + ` FROM micro_tasks WHERE id = $1`
	return scanMicroTask(r.pool.QueryRow(ctx, query, id))
}

// ListByTask devolve a decomposição de uma tarefa em ordem de criação,
// restrita à partição do tenant dono da tarefa.
func (r *Repository) ListByTask(ctx context.Context, tenantID, taskID uuid.UUID) ([]MicroTask, error) {
	const query = `
        SELECT m.id, m.task_id, m.assigned_to, m.function_label, m.status, m.depends_on, m.created_at, m.updated_at
        FROM micro_tasks m
        JOIN tasks t ON t.id = m.task_id
        WHERE m.task_id = $1 AND t.tenant_id = $2
        ORDER BY m.created_at ASC`

	rows, err := r.pool.Query(ctx, query, taskID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MicroTask
	for rows.Next() {
		m, err := scanMicroTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}

	return items, rows.Err()
}

// TaskInTenant informa se a tarefa existe dentro da partição do tenant.
func (r *Repository) TaskInTenant(ctx context.Context, tenantID, taskID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND tenant_id = $2)`

	var ok bool
	if err := r.pool.QueryRow(ctx, query, taskID, tenantID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CompanyInTenant informa se a empresa operacional pertence ao tenant.
func (r *Repository) CompanyInTenant(ctx context.Context, tenantID, companyID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1 AND tenant_id = $2 AND type = 'operational')`

	var ok bool
	if err := r.pool.QueryRow(ctx, query, companyID, tenantID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ListActiveMemberIDs devolve, dentre os ids informados, os que possuem
// vínculo ativo com a empresa.
func (r *Repository) ListActiveMemberIDs(ctx context.Context, companyID uuid.UUID, professionalIDs []uuid.UUID) ([]uuid.UUID, error) {
	const query = `
        SELECT professional_id
        FROM company_links
        WHERE company_id = $1
          AND active = TRUE
          AND professional_id = ANY($2)
    `

	rows, err := r.pool.Query(ctx, query, companyID, professionalIDs)
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

// InsertBatch grava todas as micro-tarefas em uma única transação.
func (r *Repository) InsertBatch(ctx context.Context, items []MicroTask) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		const query = `
            INSERT INTO micro_tasks (id, task_id, assigned_to, function_label, status, depends_on)
            VALUES ($1, $2, $3, $4, $5, $6)
        `
		for _, m := range items {
			if _, err := tx.Exec(ctx, query, m.ID, m.TaskID, m.AssignedTo, m.FunctionLabel, m.Status, m.DependsOn); err != nil {
				return err
			}
		}
		return nil
	})
}

// StartConditional avança pendente→em_execucao se o ator ainda for o dono e
// o estado não tiver mudado desde a leitura.
func (r *Repository) StartConditional(ctx context.Context, id, actingID uuid.UUID) (bool, error) {
	const query = `
        UPDATE micro_tasks
        SET status = $3, updated_at = now()
        WHERE id = $1 AND assigned_to = $2 AND status = $4
    `
	tag, err := r.pool.Exec(ctx, query, id, actingID, StatusInProgress, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteConditional avança em_execucao→concluida nas mesmas condições.
func (r *Repository) CompleteConditional(ctx context.Context, id, actingID uuid.UUID) (bool, error) {
	const query = `
        UPDATE micro_tasks
        SET status = $3, updated_at = now()
        WHERE id = $1 AND assigned_to = $2 AND status = $4
    `
	tag, err := r.pool.Exec(ctx, query, id, actingID, StatusCompleted, StatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ReturnConditional marca devolvida e reatribui ao alvo no mesmo update;
// devolução implica repasse, não apenas flag.
func (r *Repository) ReturnConditional(ctx context.Context, id, actingID, targetID uuid.UUID) (bool, error) {
	const query = `
        UPDATE micro_tasks
        SET status = $4, assigned_to = $3, updated_at = now()
        WHERE id = $1 AND assigned_to = $2 AND status = $5
    `
	tag, err := r.pool.Exec(ctx, query, id, actingID, targetID, StatusReturned, StatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AppendLog grava registro de auditoria append-only.
func (r *Repository) AppendLog(ctx context.Context, entry Log) error {
	const query = `
        INSERT INTO micro_task_logs (id, micro_task_id, professional_id, target_professional_id, action, reason)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.pool.Exec(ctx, query, uuid.New(), entry.MicroTaskID, entry.ProfessionalID, entry.TargetProfessionalID, entry.Action, entry.Reason)
	return err
}

// ListPendingDependents devolve micro-tarefas pendentes cujo depends_on
// aponta para o id dado.
func (r *Repository) ListPendingDependents(ctx context.Context, id uuid.UUID) ([]MicroTask, error) {
	query := `SELECT ` + microTaskColumns + ` FROM micro_tasks WHERE depends_on = $1 AND status = $2`

	rows, err := r.pool.Query(ctx, query, id, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MicroTask
	for rows.Next() {
		m, err := scanMicroTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}

	return items, rows.Err()
}
