package tenant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status de tenant.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

var (
	// ErrNotFound é retornado quando o tenant não existe.
	ErrNotFound = errors.New("tenant não encontrado")
	// ErrForbidden indica chamador sem modo super_admin.
	ErrForbidden = errors.New("acesso restrito ao super-admin")
	// ErrValidation indica entrada inválida.
	ErrValidation = errors.New("entrada inválida")
)

// Tenant representa uma agência na plataforma. Empresas operacionais
// (clientes) pertencem a exatamente um tenant.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput contém os campos para registrar um tenant.
type CreateInput struct {
	Name string
}
