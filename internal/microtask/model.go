package microtask

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status de micro-tarefa. devolvida só é alcançável a partir de em_execucao.
const (
	StatusPending    = "pendente"
	StatusInProgress = "em_execucao"
	StatusCompleted  = "concluida"
	StatusReturned   = "devolvida"
)

// Ações registradas no log imutável.
const (
	ActionCompleted = "completed"
	ActionReturned  = "returned"
)

var (
	// ErrNotFound cobre micro-tarefa inexistente ou não pertencente ao ator.
	ErrNotFound = errors.New("micro-tarefa não encontrada")
	// ErrValidation indica entrada ausente ou malformada.
	ErrValidation = errors.New("entrada inválida")
	// ErrForbidden indica papel insuficiente.
	ErrForbidden = errors.New("acesso negado")
	// ErrBlocked indica predecessor ainda não concluído.
	ErrBlocked = errors.New("micro-tarefa bloqueada por dependência")
)

// InvalidStateError descreve ação rejeitada pelo estado corrente; o estado
// vai junto para orientar retry do cliente.
type InvalidStateError struct {
	Current string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("estado inválido para a ação: %s", e.Current)
}

// InvalidAssignmentError lista os profissionais sem vínculo ativo com a
// empresa informada; a criação em lote é tudo-ou-nada.
type InvalidAssignmentError struct {
	ProfessionalIDs []uuid.UUID
}

func (e *InvalidAssignmentError) Error() string {
	ids := make([]string, len(e.ProfessionalIDs))
	for i, id := range e.ProfessionalIDs {
		ids[i] = id.String()
	}
	return "profissionais sem vínculo ativo: " + strings.Join(ids, ", ")
}

// MicroTask é uma unidade de decomposição de tarefa, por profissional.
type MicroTask struct {
	ID            uuid.UUID  `json:"id"`
	TaskID        uuid.UUID  `json:"task_id"`
	AssignedTo    uuid.UUID  `json:"assigned_to"`
	FunctionLabel string     `json:"function_label"`
	Status        string     `json:"status"`
	DependsOn     *uuid.UUID `json:"depends_on,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Log é o registro de auditoria append-only; nunca mutado nem apagado.
type Log struct {
	ID                   uuid.UUID  `json:"id"`
	MicroTaskID          uuid.UUID  `json:"micro_task_id"`
	ProfessionalID       uuid.UUID  `json:"professional_id"`
	TargetProfessionalID *uuid.UUID `json:"target_professional_id,omitempty"`
	Action               string     `json:"action"`
	Reason               *string    `json:"reason,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Assignment descreve um item da criação em lote.
type Assignment struct {
	ProfessionalID uuid.UUID
	FunctionLabel  string
}

// CreateBatchInput parametriza a decomposição de uma tarefa.
type CreateBatchInput struct {
	TaskID      uuid.UUID
	Assignments []Assignment
	// CompanyID, quando presente, exige vínculo ativo de cada profissional
	// com a empresa; qualquer id sem vínculo aborta o lote inteiro.
	CompanyID *uuid.UUID
	// Chain encadeia as micro-tarefas na ordem dada: cada uma depende da
	// anterior e só a primeira nasce elegível.
	Chain bool
}

// CompleteResult é a resposta da conclusão.
type CompleteResult struct {
	MicroTaskID      uuid.UUID `json:"micro_task_id"`
	NextTaskUnlocked bool      `json:"next_task_unlocked"`
}

// ReturnResult é a resposta da devolução com reatribuição.
type ReturnResult struct {
	MicroTaskID           uuid.UUID `json:"micro_task_id"`
	ReassignedTo          uuid.UUID `json:"reassigned_to"`
	DependentTasksBlocked int       `json:"dependent_tasks_blocked"`
}
