package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tvgflow/api/internal/scope"
)

// RepositoryProvider descreve a persistência usada pelo serviço.
type RepositoryProvider interface {
	List(ctx context.Context) ([]Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Create(ctx context.Context, input CreateInput) (*Tenant, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*Tenant, error)
}

// Service aplica as regras de gestão de tenants. Super-admins gerenciam
// tenants, nunca os dados internos de um tenant.
type Service struct {
	repo RepositoryProvider
}

func NewService(repo RepositoryProvider) *Service {
	return &Service{repo: repo}
}

// List devolve todos os tenants; restrito a super-admin.
func (s *Service) List(ctx context.Context, sc *scope.Context) ([]Tenant, error) {
	if !sc.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

// Create registra um tenant novo; restrito a super-admin.
func (s *Service) Create(ctx context.Context, sc *scope.Context, input CreateInput) (*Tenant, error) {
	if !sc.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: nome obrigatório", ErrValidation)
	}
	return s.repo.Create(ctx, input)
}

// Suspend suspende o tenant; restrito a super-admin.
func (s *Service) Suspend(ctx context.Context, sc *scope.Context, id uuid.UUID) (*Tenant, error) {
	if !sc.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.SetStatus(ctx, id, StatusSuspended)
}

// Activate reativa o tenant; restrito a super-admin.
func (s *Service) Activate(ctx context.Context, sc *scope.Context, id uuid.UUID) (*Tenant, error) {
	if !sc.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.SetStatus(ctx, id, StatusActive)
}
