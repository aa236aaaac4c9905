package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status canônicos de tarefa. Avanço monotônico: não há transição de volta
// a partir de concluida.
const (
	StatusPending    = "pendente"
	StatusInProgress = "em_andamento"
	StatusCompleted  = "concluida"
)

// Prioridades canônicas.
const (
	PriorityLow    = "baixa"
	PriorityMedium = "media"
	PriorityHigh   = "alta"
	PriorityUrgent = "urgente"
)

var (
	// ErrNotFound cobre tarefa inexistente ou fora da partição do chamador.
	ErrNotFound = errors.New("tarefa não encontrada")
	// ErrForbidden indica papel insuficiente para a operação.
	ErrForbidden = errors.New("acesso negado")
	// ErrValidation indica entrada ausente ou malformada.
	ErrValidation = errors.New("entrada inválida")
)

// InvalidTransitionError descreve transição de status rejeitada, com o
// estado corrente para orientar retry do cliente.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transição de status inválida: %s → %s", e.From, e.To)
}

// transitions é a tabela explícita de transições permitidas. Consultada
// antes de qualquer escrita de status.
var transitions = map[string][]string{
	StatusPending:    {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
}

// ValidateTransition devolve erro tipado quando a mudança não é permitida.
func ValidateTransition(from, to string) error {
	if from == to {
		return nil
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}

// statusAliases mapeia o vocabulário inglês usado por clientes antigos para
// o canônico.
var statusAliases = map[string]string{
	"pending":     StatusPending,
	"in_progress": StatusInProgress,
	"completed":   StatusCompleted,
}

// NormalizeStatus aceita sinônimos legados e devolve o status canônico, ou
// vazio quando desconhecido.
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := statusAliases[s]; ok {
		return canonical
	}
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return s
	}
	return ""
}

// ValidPriority informa se a prioridade é reconhecida.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task é a unidade de trabalho de um tenant.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	ClientID     *uuid.UUID `json:"client_id,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	AssignedTo   *uuid.UUID `json:"assigned_to,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Overdue informa se a tarefa está atrasada no instante dado.
func (t *Task) Overdue(now time.Time) bool {
	return t.Deadline != nil && t.Status != StatusCompleted && t.Deadline.Before(now)
}

// Filters restringe a listagem de tarefas.
type Filters struct {
	Status       string
	Priority     string
	DepartmentID *uuid.UUID
	AssignedTo   *uuid.UUID
	OverdueOnly  bool
}

// CreateInput contém os campos de criação.
type CreateInput struct {
	ClientID     *uuid.UUID
	DepartmentID *uuid.UUID
	AssignedTo   *uuid.UUID
	Title        string
	Description  string
	Priority     string
	Deadline     *time.Time
}

// UpdateInput contém mudanças parciais; campos nil ficam como estão.
type UpdateInput struct {
	ClientID     *uuid.UUID
	DepartmentID *uuid.UUID
	AssignedTo   *uuid.UUID
	Title        *string
	Description  *string
	Priority     *string
	Status       *string
	Deadline     *time.Time
}
