package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tvgflow/api/internal/config"
	"github.com/tvgflow/api/internal/notify"
)

type stubSweepRepo struct {
	overdue       []OverdueTask
	overdueErr    error
	lastNotified  map[uuid.UUID]time.Time
	companyAdmins map[uuid.UUID][]uuid.UUID
	globalAdmins  []uuid.UUID
	upserts       []uuid.UUID
}

func newStubSweepRepo() *stubSweepRepo {
	return &stubSweepRepo{
		lastNotified:  make(map[uuid.UUID]time.Time),
		companyAdmins: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *stubSweepRepo) ListOverdue(ctx context.Context) ([]OverdueTask, error) {
	if s.overdueErr != nil {
		return nil, s.overdueErr
	}
	return s.overdue, nil
}

func (s *stubSweepRepo) GetLastNotified(ctx context.Context, taskID uuid.UUID) (*time.Time, error) {
	if ts, ok := s.lastNotified[taskID]; ok {
		return &ts, nil
	}
	return nil, nil
}

func (s *stubSweepRepo) UpsertLastNotified(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	s.lastNotified[taskID] = at
	s.upserts = append(s.upserts, taskID)
	return nil
}

func (s *stubSweepRepo) ListCompanyAdminIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	return s.companyAdmins[companyID], nil
}

func (s *stubSweepRepo) ListGlobalAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.globalAdmins, nil
}

type countingDispatcher struct {
	sent    []notify.Input
	failFor map[uuid.UUID]bool
}

func (c *countingDispatcher) Dispatch(ctx context.Context, input notify.Input) error {
	if c.failFor[input.RecipientID] {
		return errors.New("insert falhou")
	}
	c.sent = append(c.sent, input)
	return nil
}

func sweepConfig() config.SweepConfig {
	return config.SweepConfig{Enabled: true, Interval: time.Minute, RenotifyAfter: time.Hour}
}

func TestRunOnceNotificaDestinatariosDeduplicados(t *testing.T) {
	repo := newStubSweepRepo()
	disp := &countingDispatcher{}
	svc := NewService(repo, disp, sweepConfig(), zerolog.Nop())

	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	assignee := uuid.New() // P1
	admin := uuid.New()    // P2, admin da empresa e também admin global
	tenantID := uuid.New()

	taskID := uuid.New()
	deadline := now.Add(-3 * time.Hour)
	repo.overdue = []OverdueTask{{ID: taskID, TenantID: tenantID, Title: "T1", Deadline: deadline, AssignedTo: &assignee}}
	repo.companyAdmins[tenantID] = []uuid.UUID{admin}
	repo.globalAdmins = []uuid.UUID{admin}

	report, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.OverdueTasks != 1 {
		t.Fatalf("esperava 1 tarefa atrasada, obtive %d", report.OverdueTasks)
	}
	if report.NotificationsSent != 2 {
		t.Fatalf("esperava 2 notificações (P1, P2 deduplicado), obtive %d", report.NotificationsSent)
	}
	if len(repo.upserts) != 1 || repo.upserts[0] != taskID {
		t.Fatalf("esperava 1 upsert no ledger para %s, obtive %v", taskID, repo.upserts)
	}
	if got := repo.lastNotified[taskID]; !got.Equal(now) {
		t.Fatalf("ledger deve guardar o instante da varredura, obtive %v", got)
	}
}

func TestRunOnceRespeitaJanelaDeUmaHora(t *testing.T) {
	repo := newStubSweepRepo()
	disp := &countingDispatcher{}
	svc := NewService(repo, disp, sweepConfig(), zerolog.Nop())

	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	assignee := uuid.New()
	taskID := uuid.New()
	repo.overdue = []OverdueTask{{ID: taskID, TenantID: uuid.New(), Title: "T1", Deadline: now.Add(-2 * time.Hour), AssignedTo: &assignee}}

	first, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.NotificationsSent != 1 {
		t.Fatalf("primeira passada deveria notificar, obtive %d", first.NotificationsSent)
	}

	// segunda passada 10 minutos depois, dentro da janela
	svc.now = func() time.Time { return now.Add(10 * time.Minute) }
	second, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second.NotificationsSent != 0 {
		t.Fatalf("dentro da janela não pode renotificar, obtive %d", second.NotificationsSent)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("tarefa pulada não gera upsert, obtive %d", len(repo.upserts))
	}

	// fora da janela volta a notificar
	svc.now = func() time.Time { return now.Add(61 * time.Minute) }
	third, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if third.NotificationsSent != 1 {
		t.Fatalf("fora da janela deveria renotificar, obtive %d", third.NotificationsSent)
	}
}

func TestRunOnceMensagemComHorasInteiras(t *testing.T) {
	repo := newStubSweepRepo()
	disp := &countingDispatcher{}
	svc := NewService(repo, disp, sweepConfig(), zerolog.Nop())

	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	assignee := uuid.New()
	repo.overdue = []OverdueTask{{
		ID:         uuid.New(),
		TenantID:   uuid.New(),
		Title:      "Entrega do site",
		Deadline:   now.Add(-150 * time.Minute), // 2,5h → piso 2
		AssignedTo: &assignee,
	}}

	if _, err := svc.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(disp.sent) != 1 {
		t.Fatalf("esperava 1 notificação, obtive %d", len(disp.sent))
	}
	want := `A tarefa "Entrega do site" está atrasada há 2 hora(s).`
	if disp.sent[0].Message != want {
		t.Fatalf("mensagem divergente:\n got=%s\nwant=%s", disp.sent[0].Message, want)
	}
}

func TestRunOnceEntregaParcialNaoAborta(t *testing.T) {
	repo := newStubSweepRepo()
	assignee := uuid.New()
	admin := uuid.New()
	tenantID := uuid.New()
	taskID := uuid.New()

	now := time.Now().UTC()
	repo.overdue = []OverdueTask{{ID: taskID, TenantID: tenantID, Title: "T1", Deadline: now.Add(-2 * time.Hour), AssignedTo: &assignee}}
	repo.companyAdmins[tenantID] = []uuid.UUID{admin}

	disp := &countingDispatcher{failFor: map[uuid.UUID]bool{admin: true}}
	svc := NewService(repo, disp, sweepConfig(), zerolog.Nop())
	svc.now = func() time.Time { return now }

	report, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.NotificationsSent != 1 {
		t.Fatalf("falha individual não aborta o restante, esperava 1 envio, obtive %d", report.NotificationsSent)
	}
	// o ledger avança mesmo com entrega parcial
	if len(repo.upserts) != 1 {
		t.Fatalf("esperava upsert do ledger, obtive %d", len(repo.upserts))
	}
}

func TestRunOnceFalhaNaListagemAborta(t *testing.T) {
	repo := newStubSweepRepo()
	repo.overdueErr = errors.New("banco indisponível")
	svc := NewService(repo, &countingDispatcher{}, sweepConfig(), zerolog.Nop())

	if _, err := svc.RunOnce(context.Background()); err == nil {
		t.Fatal("falha na listagem deve abortar a varredura inteira")
	}
}
