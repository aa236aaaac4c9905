package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type stubNotifyRepo struct {
	inserted  []Input
	insertErr error
}

func (s *stubNotifyRepo) Insert(ctx context.Context, input Input) (*Notification, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.inserted = append(s.inserted, input)
	return &Notification{ID: uuid.New(), RecipientID: input.RecipientID, Title: input.Title}, nil
}

func (s *stubNotifyRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, onlyUnread bool, limit int) ([]Notification, error) {
	return nil, nil
}

func (s *stubNotifyRepo) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return nil
}

type failingPusher struct{ calls int }

func (f *failingPusher) Push(ctx context.Context, n Notification) error {
	f.calls++
	return errors.New("transporte fora do ar")
}

func TestDispatchGravaMesmoComPushFalhando(t *testing.T) {
	repo := &stubNotifyRepo{}
	pusher := &failingPusher{}
	d := NewDispatcher(repo, pusher, zerolog.Nop())

	err := d.Dispatch(context.Background(), Input{RecipientID: uuid.New(), Title: "t", Message: "m", Type: TypeTaskAssigned})
	if err != nil {
		t.Fatalf("push best-effort não deve falhar o despacho: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("esperava 1 notificação gravada, obtive %d", len(repo.inserted))
	}
	if pusher.calls != 1 {
		t.Fatalf("esperava 1 tentativa de push, obtive %d", pusher.calls)
	}
}

func TestDispatchPropagaFalhaDePersistencia(t *testing.T) {
	repo := &stubNotifyRepo{insertErr: errors.New("banco indisponível")}
	d := NewDispatcher(repo, nil, zerolog.Nop())

	if err := d.Dispatch(context.Background(), Input{RecipientID: uuid.New()}); err == nil {
		t.Fatal("esperava erro de persistência")
	}
}
