package scope

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository fornece as leituras necessárias para resolver contexto.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfessional recupera o principal pelo ID.
func (r *Repository) GetProfessional(ctx context.Context, id uuid.UUID) (Professional, error) {
	const query = `
        SELECT id, name, email, role, active
        FROM professionals
        WHERE id = $1
    `

	var p Professional
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Professional{}, ErrProfessionalNotFound
	}
	if err != nil {
		return Professional{}, err
	}
	return p, nil
}

// ListActiveLinks devolve vínculos ativos do profissional com empresas não
// suspensas, em ordem de criação.
func (r *Repository) ListActiveLinks(ctx context.Context, professionalID uuid.UUID) ([]MembershipLink, error) {
	const query = `
        SELECT l.company_id, c.type, c.tenant_id, l.function_label
        FROM company_links l
        JOIN companies c ON c.id = l.company_id
        WHERE l.professional_id = $1
          AND l.active = TRUE
          AND c.status = 'active'
        ORDER BY l.created_at ASC
    `

	rows, err := r.pool.Query(ctx, query, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []MembershipLink
	for rows.Next() {
		var link MembershipLink
		if err := rows.Scan(&link.CompanyID, &link.CompanyType, &link.CompanyTenant, &link.FunctionLabel); err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	return links, rows.Err()
}
