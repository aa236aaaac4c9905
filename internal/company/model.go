package company

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound cobre registro inexistente ou fora da partição do chamador.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrForbidden indica papel insuficiente para mutação de cadastro.
	ErrForbidden = errors.New("acesso negado")
	// ErrValidation indica entrada inválida.
	ErrValidation = errors.New("entrada inválida")
)

// Client é uma empresa operacional: cliente de um tenant, pertence a
// exatamente um.
type Client struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Department é um setor interno do tenant.
type Department struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
