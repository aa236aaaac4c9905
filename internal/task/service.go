package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tvgflow/api/internal/notify"
	"github.com/tvgflow/api/internal/scope"
)

// RepositoryProvider descreve a persistência usada pelo serviço.
type RepositoryProvider interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Task, error)
	List(ctx context.Context, tenantID uuid.UUID, filters Filters) ([]Task, error)
	Insert(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*Task, error)
	Update(ctx context.Context, t *Task) (*Task, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Dispatcher é o subconjunto do despachante de notificações usado aqui.
type Dispatcher interface {
	Dispatch(ctx context.Context, input notify.Input) error
}

// Service aplica autorização por contexto de tenant e as regras de transição
// de status antes de tocar o repositório.
type Service struct {
	repo     RepositoryProvider
	notifier Dispatcher
	logger   zerolog.Logger
}

func NewService(repo RepositoryProvider, notifier Dispatcher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// List devolve tarefas visíveis ao chamador. Staff enxerga apenas as próprias.
func (s *Service) List(ctx context.Context, sc *scope.Context, filters Filters) ([]Task, error) {
	if sc.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	if !sc.IsAdmin() {
		self := sc.ProfessionalID
		filters.AssignedTo = &self
	}
	return s.repo.List(ctx, *sc.TenantID, filters)
}

// Get devolve uma tarefa visível ao chamador.
func (s *Service) Get(ctx context.Context, sc *scope.Context, id uuid.UUID) (*Task, error) {
	if sc.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	t, err := s.repo.GetByID(ctx, *sc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !sc.IsAdmin() && (t.AssignedTo == nil || *t.AssignedTo != sc.ProfessionalID) {
		// existência de tarefa alheia não vaza
		return nil, ErrNotFound
	}
	return t, nil
}

// Create registra tarefa nova; restrito a admin do tenant.
func (s *Service) Create(ctx context.Context, sc *scope.Context, input CreateInput) (*Task, error) {
	if !sc.IsAdmin() {
		return nil, ErrForbidden
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: título obrigatório", ErrValidation)
	}
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if !ValidPriority(input.Priority) {
		return nil, fmt.Errorf("%w: prioridade desconhecida", ErrValidation)
	}

	t, err := s.repo.Insert(ctx, *sc.TenantID, input)
	if err != nil {
		return nil, err
	}

	if t.AssignedTo != nil {
		if err := s.notifier.Dispatch(ctx, notify.Input{
			RecipientID: *t.AssignedTo,
			Title:       "Nova tarefa atribuída",
			Message:     fmt.Sprintf("Você foi designado para a tarefa %q.", t.Title),
			Type:        notify.TypeTaskAssigned,
			Link:        "/tarefas/" + t.ID.String(),
		}); err != nil {
			s.logger.Warn().Err(err).Str("task_id", t.ID.String()).Msg("task: notificação de atribuição falhou")
		}
	}

	return t, nil
}

// Update aplica mudança parcial. Admin muta qualquer campo; staff muta apenas
// o status de tarefa própria. Transições passam pela tabela explícita.
func (s *Service) Update(ctx context.Context, sc *scope.Context, id uuid.UUID, input UpdateInput) (*Task, error) {
	if sc.IsSuperAdmin() {
		return nil, ErrForbidden
	}

	current, err := s.repo.GetByID(ctx, *sc.TenantID, id)
	if err != nil {
		return nil, err
	}

	if !sc.IsAdmin() {
		if current.AssignedTo == nil || *current.AssignedTo != sc.ProfessionalID {
			return nil, ErrNotFound
		}
		if input.Status == nil || hasNonStatusChange(input) {
			return nil, ErrForbidden
		}
	}

	merged := *current
	if input.ClientID != nil {
		merged.ClientID = input.ClientID
	}
	if input.DepartmentID != nil {
		merged.DepartmentID = input.DepartmentID
	}
	if input.AssignedTo != nil {
		merged.AssignedTo = input.AssignedTo
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: título obrigatório", ErrValidation)
		}
		merged.Title = title
	}
	if input.Description != nil {
		merged.Description = *input.Description
	}
	if input.Priority != nil {
		if !ValidPriority(*input.Priority) {
			return nil, fmt.Errorf("%w: prioridade desconhecida", ErrValidation)
		}
		merged.Priority = *input.Priority
	}
	if input.Deadline != nil {
		merged.Deadline = input.Deadline
	}
	if input.Status != nil {
		status := NormalizeStatus(*input.Status)
		if status == "" {
			return nil, fmt.Errorf("%w: status desconhecido", ErrValidation)
		}
		if err := ValidateTransition(current.Status, status); err != nil {
			return nil, err
		}
		merged.Status = status
		if status == StatusCompleted && current.Status != StatusCompleted {
			now := time.Now().UTC()
			merged.CompletedAt = &now
		}
	}

	updated, err := s.repo.Update(ctx, &merged)
	if err != nil {
		return nil, err
	}

	if input.AssignedTo != nil && (current.AssignedTo == nil || *current.AssignedTo != *input.AssignedTo) {
		if err := s.notifier.Dispatch(ctx, notify.Input{
			RecipientID: *input.AssignedTo,
			Title:       "Nova tarefa atribuída",
			Message:     fmt.Sprintf("Você foi designado para a tarefa %q.", updated.Title),
			Type:        notify.TypeTaskAssigned,
			Link:        "/tarefas/" + updated.ID.String(),
		}); err != nil {
			s.logger.Warn().Err(err).Str("task_id", updated.ID.String()).Msg("task: notificação de atribuição falhou")
		}
	}

	return updated, nil
}

// Delete remove definitivamente a tarefa e sua decomposição; restrito a admin.
func (s *Service) Delete(ctx context.Context, sc *scope.Context, id uuid.UUID) error {
	if !sc.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, *sc.TenantID, id)
}

func hasNonStatusChange(input UpdateInput) bool {
	return input.ClientID != nil || input.DepartmentID != nil || input.AssignedTo != nil ||
		input.Title != nil || input.Description != nil || input.Priority != nil || input.Deadline != nil
}
