package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthRepository lê credenciais de profissionais.
type AuthRepository struct {
	pool *pgxpool.Pool
}

func NewAuthRepository(pool *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{pool: pool}
}

// GetByEmail recupera credenciais pelo e-mail normalizado.
func (r *AuthRepository) GetByEmail(ctx context.Context, email string) (*Credentials, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active
        FROM professionals
        WHERE email = $1
    `

	normalized := strings.ToLower(strings.TrimSpace(email))

	var c Credentials
	err := r.pool.QueryRow(ctx, query, normalized).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Role, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
