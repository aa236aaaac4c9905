package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DispatcherRepository descreve a persistência usada pelo dispatcher.
type DispatcherRepository interface {
	Insert(ctx context.Context, input Input) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, onlyUnread bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
}

// Dispatcher grava a notificação in-app e, se houver transporte configurado,
// empurra para dispositivos. Falha de push nunca falha o despacho.
type Dispatcher struct {
	repo   DispatcherRepository
	pusher Pusher
	logger zerolog.Logger
}

func NewDispatcher(repo DispatcherRepository, pusher Pusher, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, pusher: pusher, logger: logger}
}

// Dispatch insere a linha de notificação e tenta o push best-effort.
func (d *Dispatcher) Dispatch(ctx context.Context, input Input) error {
	n, err := d.repo.Insert(ctx, input)
	if err != nil {
		return err
	}

	if d.pusher != nil {
		if err := d.pusher.Push(ctx, *n); err != nil {
			d.logger.Warn().Err(err).
				Str("notification_id", n.ID.String()).
				Str("recipient_id", n.RecipientID.String()).
				Msg("notify: push falhou, registro in-app mantido")
		}
	}

	return nil
}

// List devolve as notificações do destinatário.
func (d *Dispatcher) List(ctx context.Context, recipientID uuid.UUID, onlyUnread bool, limit int) ([]Notification, error) {
	return d.repo.ListByRecipient(ctx, recipientID, onlyUnread, limit)
}

// MarkRead marca uma notificação como lida pelo destinatário.
func (d *Dispatcher) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return d.repo.MarkRead(ctx, recipientID, notificationID)
}
