package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tenantColumns = `id, name, status, created_at, updated_at`

// Repository persiste tenants na tabela companies (type = 'tenant').
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List devolve todos os tenants em ordem de criação.
func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM companies WHERE type = 'tenant' ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}

	return tenants, rows.Err()
}

// GetByID recupera tenant pelo ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM companies WHERE id = $1 AND type = 'tenant'`
	return scanTenant(r.pool.QueryRow(ctx, query, id))
}

// Create registra um tenant ativo.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Tenant, error) {
	query := `
        INSERT INTO companies (id, name, type, status)
        VALUES ($1, $2, 'tenant', 'active')
        RETURNING ` + tenantColumns

	return scanTenant(r.pool.QueryRow(ctx, query, uuid.New(), input.Name))
}

// SetStatus muda o status de suspensão do tenant.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Tenant, error) {
	query := `
        UPDATE companies
        SET status = $2, updated_at = now()
        WHERE id = $1 AND type = 'tenant'
        RETURNING ` + tenantColumns

	return scanTenant(r.pool.QueryRow(ctx, query, id, status))
}
