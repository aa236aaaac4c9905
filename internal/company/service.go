package company

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tvgflow/api/internal/scope"
)

// RepositoryProvider descreve a persistência usada pelo serviço.
type RepositoryProvider interface {
	ListClients(ctx context.Context, tenantID uuid.UUID) ([]Client, error)
	InsertClient(ctx context.Context, tenantID uuid.UUID, name string) (*Client, error)
	UpdateClient(ctx context.Context, tenantID, id uuid.UUID, name string) (*Client, error)
	DeleteClient(ctx context.Context, tenantID, id uuid.UUID) error
	ListDepartments(ctx context.Context, tenantID uuid.UUID) ([]Department, error)
	InsertDepartment(ctx context.Context, tenantID uuid.UUID, name string) (*Department, error)
	UpdateDepartment(ctx context.Context, tenantID, id uuid.UUID, name string, active bool) (*Department, error)
	DeleteDepartment(ctx context.Context, tenantID, id uuid.UUID) error
}

// Service aplica autorização de cadastro: leitura para qualquer membro do
// tenant, mutação só para admin; super_admin é rejeitado em recurso interno
// de tenant.
type Service struct {
	repo RepositoryProvider
}

func NewService(repo RepositoryProvider) *Service {
	return &Service{repo: repo}
}

func requireTenant(sc *scope.Context) error {
	if sc.IsSuperAdmin() {
		return ErrForbidden
	}
	return nil
}

func requireAdmin(sc *scope.Context) error {
	if !sc.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: nome obrigatório", ErrValidation)
	}
	return name, nil
}

// ListClients devolve os clientes do tenant do chamador.
func (s *Service) ListClients(ctx context.Context, sc *scope.Context) ([]Client, error) {
	if err := requireTenant(sc); err != nil {
		return nil, err
	}
	return s.repo.ListClients(ctx, *sc.TenantID)
}

// CreateClient cria cliente; restrito a admin.
func (s *Service) CreateClient(ctx context.Context, sc *scope.Context, name string) (*Client, error) {
	if err := requireAdmin(sc); err != nil {
		return nil, err
	}
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	return s.repo.InsertClient(ctx, *sc.TenantID, name)
}

// UpdateClient renomeia cliente; restrito a admin.
func (s *Service) UpdateClient(ctx context.Context, sc *scope.Context, id uuid.UUID, name string) (*Client, error) {
	if err := requireAdmin(sc); err != nil {
		return nil, err
	}
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateClient(ctx, *sc.TenantID, id, name)
}

// DeleteClient remove cliente; restrito a admin.
func (s *Service) DeleteClient(ctx context.Context, sc *scope.Context, id uuid.UUID) error {
	if err := requireAdmin(sc); err != nil {
		return err
	}
	return s.repo.DeleteClient(ctx, *sc.TenantID, id)
}

// ListDepartments devolve os departamentos do tenant do chamador.
func (s *Service) ListDepartments(ctx context.Context, sc *scope.Context) ([]Department, error) {
	if err := requireTenant(sc); err != nil {
		return nil, err
	}
	return s.repo.ListDepartments(ctx, *sc.TenantID)
}

// CreateDepartment cria departamento; restrito a admin.
func (s *Service) CreateDepartment(ctx context.Context, sc *scope.Context, name string) (*Department, error) {
	if err := requireAdmin(sc); err != nil {
		return nil, err
	}
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	return s.repo.InsertDepartment(ctx, *sc.TenantID, name)
}

// UpdateDepartment renomeia/ativa departamento; restrito a admin.
func (s *Service) UpdateDepartment(ctx context.Context, sc *scope.Context, id uuid.UUID, name string, active bool) (*Department, error) {
	if err := requireAdmin(sc); err != nil {
		return nil, err
	}
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateDepartment(ctx, *sc.TenantID, id, name, active)
}

// DeleteDepartment remove departamento; restrito a admin.
func (s *Service) DeleteDepartment(ctx context.Context, sc *scope.Context, id uuid.UUID) error {
	if err := requireAdmin(sc); err != nil {
		return err
	}
	return s.repo.DeleteDepartment(ctx, *sc.TenantID, id)
}
