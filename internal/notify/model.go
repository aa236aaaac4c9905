package notify

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound é retornado quando a notificação não existe ou não pertence
	// ao destinatário.
	ErrNotFound = errors.New("notificação não encontrada")
)

// Tipos de notificação emitidos pelo sistema.
const (
	TypeTaskAssigned    = "task_assigned"
	TypeMicroTaskUnlock = "microtask_unlocked"
	TypeMicroTaskReturn = "microtask_returned"
	TypeTaskOverdue     = "task_overdue"
)

// Notification é o registro in-app entregue ao destinatário.
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        string     `json:"type"`
	Link        string     `json:"link"`
	Read        bool       `json:"read"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// Input descreve uma notificação a despachar.
type Input struct {
	RecipientID uuid.UUID
	Title       string
	Message     string
	Type        string
	Link        string
}
