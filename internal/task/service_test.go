package task

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tvgflow/api/internal/notify"
	"github.com/tvgflow/api/internal/scope"
)

type stubTaskRepo struct {
	tasks    map[uuid.UUID]*Task
	updated  *Task
	inserted *CreateInput
	deleted  []uuid.UUID
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[uuid.UUID]*Task)}
}

func (s *stubTaskRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *stubTaskRepo) List(ctx context.Context, tenantID uuid.UUID, filters Filters) ([]Task, error) {
	var out []Task
	for _, t := range s.tasks {
		if t.TenantID != tenantID {
			continue
		}
		if filters.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *filters.AssignedTo) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubTaskRepo) Insert(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*Task, error) {
	s.inserted = &input
	t := &Task{ID: uuid.New(), TenantID: tenantID, Title: input.Title, Priority: input.Priority, Status: StatusPending, AssignedTo: input.AssignedTo}
	s.tasks[t.ID] = t
	return t, nil
}

func (s *stubTaskRepo) Update(ctx context.Context, t *Task) (*Task, error) {
	s.updated = t
	s.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (s *stubTaskRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	s.deleted = append(s.deleted, id)
	delete(s.tasks, id)
	return nil
}

type noopDispatcher struct{ sent []notify.Input }

func (n *noopDispatcher) Dispatch(ctx context.Context, input notify.Input) error {
	n.sent = append(n.sent, input)
	return nil
}

func adminScope(tenantID uuid.UUID) *scope.Context {
	return &scope.Context{Mode: scope.ModeTenant, TenantID: &tenantID, Role: scope.RoleAdmin, ProfessionalID: uuid.New()}
}

func staffScope(tenantID, professionalID uuid.UUID) *scope.Context {
	return &scope.Context{Mode: scope.ModeTenant, TenantID: &tenantID, Role: scope.RoleStaff, ProfessionalID: professionalID}
}

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusInProgress, StatusPending, false},
		{StatusPending, StatusPending, true},
	}
	for _, c := range cases {
		err := ValidateTransition(c.from, c.to)
		if c.ok && err != nil {
			t.Errorf("%s→%s deveria ser permitida: %v", c.from, c.to, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s→%s deveria ser rejeitada", c.from, c.to)
		}
	}
}

func TestCreateRestritoAAdmin(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewService(repo, &noopDispatcher{}, zerolog.Nop())
	tenantID := uuid.New()

	_, err := svc.Create(context.Background(), staffScope(tenantID, uuid.New()), CreateInput{Title: "x"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff não pode criar tarefa, obtive %v", err)
	}

	assignee := uuid.New()
	created, err := svc.Create(context.Background(), adminScope(tenantID), CreateInput{Title: "Fechar relatório", AssignedTo: &assignee})
	if err != nil {
		t.Fatalf("admin deveria criar: %v", err)
	}
	if created.Status != StatusPending {
		t.Fatalf("tarefa nova deve nascer pendente, obtive %s", created.Status)
	}
}

func TestCreateNotificaResponsavel(t *testing.T) {
	repo := newStubTaskRepo()
	disp := &noopDispatcher{}
	svc := NewService(repo, disp, zerolog.Nop())
	assignee := uuid.New()

	if _, err := svc.Create(context.Background(), adminScope(uuid.New()), CreateInput{Title: "t", AssignedTo: &assignee}); err != nil {
		t.Fatal(err)
	}
	if len(disp.sent) != 1 || disp.sent[0].RecipientID != assignee {
		t.Fatalf("esperava notificação de atribuição para %s, obtive %+v", assignee, disp.sent)
	}
}

func TestUpdateStaffSoMudaStatusDaPropria(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewService(repo, &noopDispatcher{}, zerolog.Nop())
	tenantID := uuid.New()
	owner := uuid.New()

	taskID := uuid.New()
	repo.tasks[taskID] = &Task{ID: taskID, TenantID: tenantID, Title: "t", Status: StatusPending, AssignedTo: &owner}

	status := StatusInProgress
	updated, err := svc.Update(context.Background(), staffScope(tenantID, owner), taskID, UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("responsável deveria avançar o status: %v", err)
	}
	if updated.Status != StatusInProgress {
		t.Fatalf("esperava em_andamento, obtive %s", updated.Status)
	}

	// outro campo junto do status é rejeitado para staff
	title := "novo título"
	if _, err := svc.Update(context.Background(), staffScope(tenantID, owner), taskID, UpdateInput{Status: &status, Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff não pode mudar título, obtive %v", err)
	}

	// tarefa de terceiro aparece como inexistente
	if _, err := svc.Update(context.Background(), staffScope(tenantID, uuid.New()), taskID, UpdateInput{Status: &status}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("tarefa alheia deve responder not found, obtive %v", err)
	}
}

func TestUpdateTransicaoInvalidaNaoPersiste(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewService(repo, &noopDispatcher{}, zerolog.Nop())
	tenantID := uuid.New()

	taskID := uuid.New()
	repo.tasks[taskID] = &Task{ID: taskID, TenantID: tenantID, Title: "t", Status: StatusCompleted}

	status := StatusPending
	_, err := svc.Update(context.Background(), adminScope(tenantID), taskID, UpdateInput{Status: &status})

	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("esperava InvalidTransitionError, obtive %v", err)
	}
	if invalid.From != StatusCompleted {
		t.Fatalf("erro deve carregar o estado corrente, obtive %s", invalid.From)
	}
	if repo.updated != nil {
		t.Fatal("transição inválida não pode tocar o repositório")
	}
}

func TestUpdateConcluidaPreencheCompletedAt(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewService(repo, &noopDispatcher{}, zerolog.Nop())
	tenantID := uuid.New()

	taskID := uuid.New()
	repo.tasks[taskID] = &Task{ID: taskID, TenantID: tenantID, Title: "t", Status: StatusInProgress}

	status := "completed" // sinônimo legado
	updated, err := svc.Update(context.Background(), adminScope(tenantID), taskID, UpdateInput{Status: &status})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != StatusCompleted || updated.CompletedAt == nil {
		t.Fatalf("esperava concluida com completed_at, obtive %+v", updated)
	}
}

func TestListStaffVeApenasAsProprias(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewService(repo, &noopDispatcher{}, zerolog.Nop())
	tenantID := uuid.New()
	owner := uuid.New()
	other := uuid.New()

	a, b := uuid.New(), uuid.New()
	repo.tasks[a] = &Task{ID: a, TenantID: tenantID, AssignedTo: &owner, Status: StatusPending}
	repo.tasks[b] = &Task{ID: b, TenantID: tenantID, AssignedTo: &other, Status: StatusPending}

	tasks, err := svc.List(context.Background(), staffScope(tenantID, owner), Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || *tasks[0].AssignedTo != owner {
		t.Fatalf("staff deve ver só as próprias tarefas, obtive %d", len(tasks))
	}
}

func TestSuperAdminRejeitadoEmRecursoDeTenant(t *testing.T) {
	svc := NewService(newStubTaskRepo(), &noopDispatcher{}, zerolog.Nop())
	sc := &scope.Context{Mode: scope.ModeSuperAdmin, Role: scope.RoleSuperAdmin, ProfessionalID: uuid.New()}

	if _, err := svc.List(context.Background(), sc, Filters{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("super_admin não acessa dados internos de tenant, obtive %v", err)
	}
}

func TestDeleteRestritoAAdmin(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewService(repo, &noopDispatcher{}, zerolog.Nop())
	tenantID := uuid.New()

	taskID := uuid.New()
	repo.tasks[taskID] = &Task{ID: taskID, TenantID: tenantID, Status: StatusPending}

	if err := svc.Delete(context.Background(), staffScope(tenantID, uuid.New()), taskID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff não deleta tarefa, obtive %v", err)
	}
	if err := svc.Delete(context.Background(), adminScope(tenantID), taskID); err != nil {
		t.Fatalf("admin deveria deletar: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatalf("esperava 1 delete, obtive %d", len(repo.deleted))
	}
}
