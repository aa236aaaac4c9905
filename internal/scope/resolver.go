package scope

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ResolverRepository descreve as leituras usadas pelo resolver.
type ResolverRepository interface {
	GetProfessional(ctx context.Context, id uuid.UUID) (Professional, error)
	ListActiveLinks(ctx context.Context, professionalID uuid.UUID) ([]MembershipLink, error)
}

// Resolver determina modo, tenant e papel efetivo de um principal. Toda
// operação com escopo de tenant passa por aqui antes de ler ou escrever.
type Resolver struct {
	repo            ResolverRepository
	superAdminEmail string
	logger          zerolog.Logger
}

// NewResolver cria resolver com o e-mail de super-admin injetado da
// configuração.
func NewResolver(repo ResolverRepository, superAdminEmail string, logger zerolog.Logger) *Resolver {
	return &Resolver{
		repo:            repo,
		superAdminEmail: strings.ToLower(strings.TrimSpace(superAdminEmail)),
		logger:          logger,
	}
}

// Resolve devolve o contexto efetivo do principal.
//
// Papel super_admin gravado no banco só vale para o e-mail configurado;
// qualquer outro principal com esse papel é rebaixado para admin e o evento
// é registrado como correção de segurança.
func (r *Resolver) Resolve(ctx context.Context, professionalID uuid.UUID) (*Context, error) {
	if professionalID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	prof, err := r.repo.GetProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if !prof.Active {
		return nil, ErrProfessionalNotFound
	}

	role := prof.Role
	if role == RoleSuperAdmin && !strings.EqualFold(prof.Email, r.superAdminEmail) {
		r.logger.Warn().
			Str("professional_id", prof.ID.String()).
			Str("email", prof.Email).
			Msg("scope: papel super_admin rebaixado para admin (e-mail não autorizado)")
		role = RoleAdmin
	}

	if role == RoleSuperAdmin {
		return &Context{
			Mode:           ModeSuperAdmin,
			TenantID:       nil,
			Role:           RoleSuperAdmin,
			ProfessionalID: prof.ID,
		}, nil
	}

	links, err := r.repo.ListActiveLinks(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrTenantContextNotFound
	}

	tenantID := deriveTenantID(links)
	if tenantID == nil {
		return nil, ErrTenantContextNotFound
	}

	return &Context{
		Mode:           ModeTenant,
		TenantID:       tenantID,
		Role:           role,
		ProfessionalID: prof.ID,
	}, nil
}

// deriveTenantID prefere vínculo direto com empresa do tipo tenant; na
// ausência, sobe para o tenant da primeira empresa operacional vinculada.
func deriveTenantID(links []MembershipLink) *uuid.UUID {
	for _, link := range links {
		if link.CompanyType == CompanyTypeTenant {
			id := link.CompanyID
			return &id
		}
	}
	if links[0].CompanyTenant != nil {
		id := *links[0].CompanyTenant
		return &id
	}
	return nil
}
