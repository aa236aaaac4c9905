package company

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persiste clientes (companies type = 'operational') e
// departamentos, sempre com escopo de tenant.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = `id, tenant_id, name, status, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClients devolve os clientes do tenant.
func (r *Repository) ListClients(ctx context.Context, tenantID uuid.UUID) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM companies WHERE tenant_id = $1 AND type = 'operational' ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}

	return clients, rows.Err()
}

// InsertClient cria cliente ativo ligado ao tenant.
func (r *Repository) InsertClient(ctx context.Context, tenantID uuid.UUID, name string) (*Client, error) {
	query := `
        INSERT INTO companies (id, tenant_id, name, type, status)
        VALUES ($1, $2, $3, 'operational', 'active')
        RETURNING ` + clientColumns

	return scanClient(r.pool.QueryRow(ctx, query, uuid.New(), tenantID, name))
}

// UpdateClient renomeia o cliente do tenant.
func (r *Repository) UpdateClient(ctx context.Context, tenantID, id uuid.UUID, name string) (*Client, error) {
	query := `
        UPDATE companies
        SET name = $3, updated_at = now()
        WHERE id = $1 AND tenant_id = $2 AND type = 'operational'
        RETURNING ` + clientColumns

	return scanClient(r.pool.QueryRow(ctx, query, id, tenantID, name))
}

// DeleteClient remove o cliente do tenant.
func (r *Repository) DeleteClient(ctx context.Context, tenantID, id uuid.UUID) error {
	const query = `DELETE FROM companies WHERE id = $1 AND tenant_id = $2 AND type = 'operational'`

	tag, err := r.pool.Exec(ctx, query, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const departmentColumns = `id, tenant_id, name, active, created_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.TenantID, &d.Name, &d.Active, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDepartments devolve os departamentos do tenant.
func (r *Repository) ListDepartments(ctx context.Context, tenantID uuid.UUID) ([]Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE tenant_id = $1 ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, *d)
	}

	return departments, rows.Err()
}

// InsertDepartment cria departamento ativo do tenant.
func (r *Repository) InsertDepartment(ctx context.Context, tenantID uuid.UUID, name string) (*Department, error) {
	query := `
        INSERT INTO departments (id, tenant_id, name, active)
        VALUES ($1, $2, $3, TRUE)
        RETURNING ` + departmentColumns

	return scanDepartment(r.pool.QueryRow(ctx, query, uuid.New(), tenantID, name))
}

// UpdateDepartment renomeia e ativa/desativa o departamento.
func (r *Repository) UpdateDepartment(ctx context.Context, tenantID, id uuid.UUID, name string, active bool) (*Department, error) {
	query := `
        UPDATE departments
        SET name = $3, active = $4
        WHERE id = $1 AND tenant_id = $2
        RETURNING ` + departmentColumns

	return scanDepartment(r.pool.QueryRow(ctx, query, id, tenantID, name, active))
}

// DeleteDepartment remove o departamento do tenant.
func (r *Repository) DeleteDepartment(ctx context.Context, tenantID, id uuid.UUID) error {
	const query = `DELETE FROM departments WHERE id = $1 AND tenant_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
