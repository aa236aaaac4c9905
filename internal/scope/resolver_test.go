package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type stubRepo struct {
	prof  Professional
	links []MembershipLink
	err   error
}

func (s *stubRepo) GetProfessional(ctx context.Context, id uuid.UUID) (Professional, error) {
	if s.err != nil {
		return Professional{}, s.err
	}
	return s.prof, nil
}

func (s *stubRepo) ListActiveLinks(ctx context.Context, professionalID uuid.UUID) ([]MembershipLink, error) {
	return s.links, nil
}

func TestResolveSuperAdminComEmailAutorizado(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{prof: Professional{ID: id, Email: "root@tvgflow.com.br", Role: RoleSuperAdmin, Active: true}}
	resolver := NewResolver(repo, "root@tvgflow.com.br", zerolog.Nop())

	sc, err := resolver.Resolve(context.Background(), id)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if sc.Mode != ModeSuperAdmin || sc.Role != RoleSuperAdmin {
		t.Fatalf("esperava super_admin, obtive mode=%s role=%s", sc.Mode, sc.Role)
	}
	if sc.TenantID != nil {
		t.Fatalf("super_admin não deve resolver tenant, obtive %v", sc.TenantID)
	}
}

func TestResolveRebaixaSuperAdminNaoAutorizado(t *testing.T) {
	id := uuid.New()
	tenantID := uuid.New()
	repo := &stubRepo{
		prof: Professional{ID: id, Email: "intruso@example.com", Role: RoleSuperAdmin, Active: true},
		links: []MembershipLink{
			{CompanyID: tenantID, CompanyType: CompanyTypeTenant, FunctionLabel: "gestor"},
		},
	}
	resolver := NewResolver(repo, "root@tvgflow.com.br", zerolog.Nop())

	sc, err := resolver.Resolve(context.Background(), id)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if sc.Role != RoleAdmin {
		t.Fatalf("esperava rebaixamento para admin, obtive %s", sc.Role)
	}
	if sc.Mode != ModeTenant || sc.TenantID == nil || *sc.TenantID != tenantID {
		t.Fatalf("esperava contexto do tenant %s, obtive %+v", tenantID, sc)
	}
}

func TestResolveSemVinculoFalha(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{prof: Professional{ID: id, Email: "p@example.com", Role: RoleStaff, Active: true}}
	resolver := NewResolver(repo, "root@tvgflow.com.br", zerolog.Nop())

	_, err := resolver.Resolve(context.Background(), id)
	if !errors.Is(err, ErrTenantContextNotFound) {
		t.Fatalf("esperava ErrTenantContextNotFound, obtive %v", err)
	}
}

func TestResolveSobeParaTenantDaEmpresaOperacional(t *testing.T) {
	id := uuid.New()
	tenantID := uuid.New()
	repo := &stubRepo{
		prof: Professional{ID: id, Email: "p@example.com", Role: RoleStaff, Active: true},
		links: []MembershipLink{
			{CompanyID: uuid.New(), CompanyType: CompanyTypeOperational, CompanyTenant: &tenantID},
		},
	}
	resolver := NewResolver(repo, "root@tvgflow.com.br", zerolog.Nop())

	sc, err := resolver.Resolve(context.Background(), id)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if sc.TenantID == nil || *sc.TenantID != tenantID {
		t.Fatalf("esperava tenant %s derivado do vínculo operacional", tenantID)
	}
}

func TestResolveVinculoOperacionalSemTenantFalha(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{
		prof: Professional{ID: id, Email: "p@example.com", Role: RoleStaff, Active: true},
		links: []MembershipLink{
			{CompanyID: uuid.New(), CompanyType: CompanyTypeOperational},
		},
	}
	resolver := NewResolver(repo, "root@tvgflow.com.br", zerolog.Nop())

	if _, err := resolver.Resolve(context.Background(), id); !errors.Is(err, ErrTenantContextNotFound) {
		t.Fatalf("esperava ErrTenantContextNotFound, obtive %v", err)
	}
}

func TestResolveProfissionalInativoFalha(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{prof: Professional{ID: id, Email: "p@example.com", Role: RoleStaff, Active: false}}
	resolver := NewResolver(repo, "root@tvgflow.com.br", zerolog.Nop())

	if _, err := resolver.Resolve(context.Background(), id); !errors.Is(err, ErrProfessionalNotFound) {
		t.Fatalf("esperava ErrProfessionalNotFound, obtive %v", err)
	}
}

func TestResolveSemPrincipalFalha(t *testing.T) {
	resolver := NewResolver(&stubRepo{}, "root@tvgflow.com.br", zerolog.Nop())

	if _, err := resolver.Resolve(context.Background(), uuid.Nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("esperava ErrNotAuthenticated, obtive %v", err)
	}
}
