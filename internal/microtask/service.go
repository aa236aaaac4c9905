package microtask

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tvgflow/api/internal/notify"
	"github.com/tvgflow/api/internal/scope"
)

// RepositoryProvider descreve a persistência usada pelo motor.
type RepositoryProvider interface {
	GetByID(ctx context.Context, id uuid.UUID) (*MicroTask, error)
	ListByTask(ctx context.Context, tenantID, taskID uuid.UUID) ([]MicroTask, error)
	TaskInTenant(ctx context.Context, tenantID, taskID uuid.UUID) (bool, error)
	CompanyInTenant(ctx context.Context, tenantID, companyID uuid.UUID) (bool, error)
	ListActiveMemberIDs(ctx context.Context, companyID uuid.UUID, professionalIDs []uuid.UUID) ([]uuid.UUID, error)
	InsertBatch(ctx context.Context, items []MicroTask) error
	StartConditional(ctx context.Context, id, actingID uuid.UUID) (bool, error)
	CompleteConditional(ctx context.Context, id, actingID uuid.UUID) (bool, error)
	ReturnConditional(ctx context.Context, id, actingID, targetID uuid.UUID) (bool, error)
	AppendLog(ctx context.Context, entry Log) error
	ListPendingDependents(ctx context.Context, id uuid.UUID) ([]MicroTask, error)
}

// Dispatcher é o subconjunto do despachante de notificações usado aqui.
type Dispatcher interface {
	Dispatch(ctx context.Context, input notify.Input) error
}

// Service é o motor de dependências: criação em lote tudo-ou-nada, gating
// síncrono no predecessor e transições com update condicional atômico.
type Service struct {
	repo     RepositoryProvider
	notifier Dispatcher
	logger   zerolog.Logger
}

func NewService(repo RepositoryProvider, notifier Dispatcher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// CreateBatch decompõe a tarefa em uma micro-tarefa por profissional.
// Restrito a admin do tenant. Com CompanyID presente, todo profissional sem
// vínculo ativo aborta o lote inteiro via InvalidAssignmentError.
func (s *Service) CreateBatch(ctx context.Context, sc *scope.Context, input CreateBatchInput) ([]MicroTask, error) {
	if !sc.IsAdmin() {
		return nil, ErrForbidden
	}
	if input.TaskID == uuid.Nil {
		return nil, fmt.Errorf("%w: taskId obrigatório", ErrValidation)
	}
	if len(input.Assignments) == 0 {
		return nil, fmt.Errorf("%w: ao menos um profissional", ErrValidation)
	}
	for _, a := range input.Assignments {
		if a.ProfessionalID == uuid.Nil {
			return nil, fmt.Errorf("%w: professionalId inválido", ErrValidation)
		}
	}

	// referências fora da partição do chamador respondem como inexistentes
	inTenant, err := s.repo.TaskInTenant(ctx, *sc.TenantID, input.TaskID)
	if err != nil {
		return nil, err
	}
	if !inTenant {
		return nil, ErrNotFound
	}

	if input.CompanyID != nil {
		ok, err := s.repo.CompanyInTenant(ctx, *sc.TenantID, *input.CompanyID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}

		ids := make([]uuid.UUID, len(input.Assignments))
		for i, a := range input.Assignments {
			ids[i] = a.ProfessionalID
		}

		members, err := s.repo.ListActiveMemberIDs(ctx, *input.CompanyID, ids)
		if err != nil {
			return nil, err
		}

		memberSet := make(map[uuid.UUID]struct{}, len(members))
		for _, id := range members {
			memberSet[id] = struct{}{}
		}

		var offending []uuid.UUID
		for _, id := range ids {
			if _, ok := memberSet[id]; !ok {
				offending = append(offending, id)
			}
		}
		if len(offending) > 0 {
			return nil, &InvalidAssignmentError{ProfessionalIDs: offending}
		}
	}

	items := make([]MicroTask, len(input.Assignments))
	for i, a := range input.Assignments {
		items[i] = MicroTask{
			ID:            uuid.New(),
			TaskID:        input.TaskID,
			AssignedTo:    a.ProfessionalID,
			FunctionLabel: strings.TrimSpace(a.FunctionLabel),
			Status:        StatusPending,
		}
		if input.Chain && i > 0 {
			prev := items[i-1].ID
			items[i].DependsOn = &prev
		}
	}

	if err := s.repo.InsertBatch(ctx, items); err != nil {
		return nil, err
	}

	return items, nil
}

// ListByTask devolve a decomposição da tarefa dentro da partição do chamador.
func (s *Service) ListByTask(ctx context.Context, sc *scope.Context, taskID uuid.UUID) ([]MicroTask, error) {
	if sc.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.ListByTask(ctx, *sc.TenantID, taskID)
}

// Start inicia micro-tarefa pendente do próprio ator. O gating do depends_on
// é verificado aqui, de forma síncrona: o predecessor precisa estar
// concluida; devolvida não satisfaz a condição.
func (s *Service) Start(ctx context.Context, actingID, microTaskID uuid.UUID) (*MicroTask, error) {
	m, err := s.repo.GetByID(ctx, microTaskID)
	if err != nil {
		return nil, err
	}
	if m.AssignedTo != actingID {
		return nil, ErrNotFound
	}
	if m.Status != StatusPending {
		return nil, &InvalidStateError{Current: m.Status}
	}

	if m.DependsOn != nil {
		pred, err := s.repo.GetByID(ctx, *m.DependsOn)
		if err != nil {
			return nil, err
		}
		if pred.Status != StatusCompleted {
			return nil, ErrBlocked
		}
	}

	ok, err := s.repo.StartConditional(ctx, microTaskID, actingID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// outra requisição venceu a corrida entre a leitura e o update
		return nil, &InvalidStateError{Current: m.Status}
	}

	m.Status = StatusInProgress
	return m, nil
}

// Complete conclui micro-tarefa em execução do próprio ator e notifica o
// sucessor desbloqueado, se houver.
func (s *Service) Complete(ctx context.Context, actingID, microTaskID uuid.UUID) (*CompleteResult, error) {
	m, err := s.repo.GetByID(ctx, microTaskID)
	if err != nil {
		return nil, err
	}
	if m.AssignedTo != actingID {
		return nil, ErrNotFound
	}
	if m.Status != StatusInProgress {
		return nil, &InvalidStateError{Current: m.Status}
	}

	ok, err := s.repo.CompleteConditional(ctx, microTaskID, actingID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &InvalidStateError{Current: m.Status}
	}

	s.appendLog(ctx, Log{
		MicroTaskID:    microTaskID,
		ProfessionalID: actingID,
		Action:         ActionCompleted,
	})

	dependents, err := s.repo.ListPendingDependents(ctx, microTaskID)
	if err != nil {
		s.logger.Warn().Err(err).Str("micro_task_id", microTaskID.String()).Msg("microtask: busca de dependentes falhou")
		return &CompleteResult{MicroTaskID: microTaskID}, nil
	}

	for _, dep := range dependents {
		if err := s.notifier.Dispatch(ctx, notify.Input{
			RecipientID: dep.AssignedTo,
			Title:       "Micro-tarefa liberada",
			Message:     "A etapa anterior foi concluída; sua micro-tarefa está liberada para início.",
			Type:        notify.TypeMicroTaskUnlock,
			Link:        "/tarefas/" + dep.TaskID.String(),
		}); err != nil {
			s.logger.Warn().Err(err).Str("micro_task_id", dep.ID.String()).Msg("microtask: notificação de desbloqueio falhou")
		}
	}

	return &CompleteResult{MicroTaskID: microTaskID, NextTaskUnlocked: len(dependents) > 0}, nil
}

// Return devolve a micro-tarefa em execução reatribuindo-a ao alvo no mesmo
// update. Motivo é obrigatório. Dependentes pendentes permanecem bloqueados
// (devolvida não satisfaz o gating); o total é devolvido para observabilidade.
func (s *Service) Return(ctx context.Context, actingID, microTaskID, targetID uuid.UUID, reason string) (*ReturnResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: motivo obrigatório", ErrValidation)
	}
	if targetID == uuid.Nil {
		return nil, fmt.Errorf("%w: toProfessionalId obrigatório", ErrValidation)
	}
	if targetID == actingID {
		return nil, fmt.Errorf("%w: devolução exige outro profissional", ErrValidation)
	}

	m, err := s.repo.GetByID(ctx, microTaskID)
	if err != nil {
		return nil, err
	}
	if m.AssignedTo != actingID {
		return nil, ErrNotFound
	}
	if m.Status != StatusInProgress {
		return nil, &InvalidStateError{Current: m.Status}
	}

	ok, err := s.repo.ReturnConditional(ctx, microTaskID, actingID, targetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &InvalidStateError{Current: m.Status}
	}

	s.appendLog(ctx, Log{
		MicroTaskID:          microTaskID,
		ProfessionalID:       actingID,
		TargetProfessionalID: &targetID,
		Action:               ActionReturned,
		Reason:               &reason,
	})

	if err := s.notifier.Dispatch(ctx, notify.Input{
		RecipientID: targetID,
		Title:       "Micro-tarefa devolvida para você",
		Message:     fmt.Sprintf("Uma micro-tarefa foi devolvida com o motivo: %s", reason),
		Type:        notify.TypeMicroTaskReturn,
		Link:        "/tarefas/" + m.TaskID.String(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("micro_task_id", microTaskID.String()).Msg("microtask: notificação de devolução falhou")
	}

	blocked := 0
	if dependents, err := s.repo.ListPendingDependents(ctx, microTaskID); err == nil {
		blocked = len(dependents)
	} else {
		s.logger.Warn().Err(err).Str("micro_task_id", microTaskID.String()).Msg("microtask: contagem de dependentes falhou")
	}

	return &ReturnResult{MicroTaskID: microTaskID, ReassignedTo: targetID, DependentTasksBlocked: blocked}, nil
}

// appendLog grava auditoria best-effort: o estado da micro-tarefa é a fonte
// de verdade, falha no log não desfaz a transição.
func (s *Service) appendLog(ctx context.Context, entry Log) {
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("micro_task_id", entry.MicroTaskID.String()).
			Str("action", entry.Action).
			Msg("microtask: falha ao gravar log de auditoria")
	}
}
