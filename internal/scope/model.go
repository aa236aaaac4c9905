package scope

import (
	"errors"

	"github.com/google/uuid"
)

// Papéis reconhecidos para profissionais.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleStaff      = "profissional"
)

// Modos de operação resolvidos para o chamador.
const (
	ModeSuperAdmin = "super_admin"
	ModeTenant     = "tenant"
)

// Tipos de empresa.
const (
	CompanyTypeTenant      = "tenant"
	CompanyTypeOperational = "operational"
)

var (
	// ErrNotAuthenticated indica ausência de principal autenticado.
	ErrNotAuthenticated = errors.New("não autenticado")
	// ErrProfessionalNotFound indica principal inexistente ou desativado.
	ErrProfessionalNotFound = errors.New("profissional não encontrado")
	// ErrTenantContextNotFound indica ausência de vínculo ativo com tenant.
	ErrTenantContextNotFound = errors.New("contexto de tenant não encontrado")
)

// Professional representa o principal autenticado.
type Professional struct {
	ID     uuid.UUID
	Name   string
	Email  string
	Role   string
	Active bool
}

// MembershipLink representa vínculo ativo do profissional com uma empresa,
// já enriquecido com tipo e tenant da empresa alvo.
type MembershipLink struct {
	CompanyID     uuid.UUID
	CompanyType   string
	CompanyTenant *uuid.UUID
	FunctionLabel string
}

// Context é o resultado da resolução: modo de operação, partição de dados e
// papel efetivo do chamador.
type Context struct {
	Mode           string
	TenantID       *uuid.UUID
	Role           string
	ProfessionalID uuid.UUID
}

// IsSuperAdmin informa se o chamador opera como super-admin da plataforma.
func (c *Context) IsSuperAdmin() bool {
	return c.Mode == ModeSuperAdmin
}

// IsAdmin informa se o chamador administra o tenant corrente.
func (c *Context) IsAdmin() bool {
	return c.Mode == ModeTenant && c.Role == RoleAdmin
}
