package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tvgflow/api/internal/config"
	"github.com/tvgflow/api/internal/notify"
)

// RepositoryProvider descreve a persistência usada pela varredura.
type RepositoryProvider interface {
	ListOverdue(ctx context.Context) ([]OverdueTask, error)
	GetLastNotified(ctx context.Context, taskID uuid.UUID) (*time.Time, error)
	UpsertLastNotified(ctx context.Context, taskID uuid.UUID, at time.Time) error
	ListCompanyAdminIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
	ListGlobalAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Dispatcher é o subconjunto do despachante de notificações usado aqui.
type Dispatcher interface {
	Dispatch(ctx context.Context, input notify.Input) error
}

// Report resume uma passada da varredura.
type Report struct {
	OverdueTasks      int `json:"overdue_tasks_count"`
	NotificationsSent int `json:"notifications_sent"`
}

// Service varre tarefas atrasadas e notifica responsável, admins da empresa
// dona e admins globais, com no máximo um disparo por tarefa por janela.
type Service struct {
	repo     RepositoryProvider
	notifier Dispatcher
	cfg      config.SweepConfig
	logger   zerolog.Logger
	now      func() time.Time

	once   sync.Once
	cancel context.CancelFunc
}

func NewService(repo RepositoryProvider, notifier Dispatcher, cfg config.SweepConfig, logger zerolog.Logger) *Service {
	if cfg.RenotifyAfter <= 0 {
		cfg.RenotifyAfter = time.Hour
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Start inicia o loop periódico. Safe para chamar múltiplas vezes.
func (s *Service) Start(parent context.Context) {
	if !s.cfg.Enabled {
		return
	}
	s.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel
		go s.runLoop(ctx)
	})
}

// Stop encerra o loop periódico.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Service) runLoop(ctx context.Context) {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Msg("sweep: loop iniciado")

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error().Err(err).Msg("sweep: primeira execução falhou")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweep: loop encerrado")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sweep: execução periódica falhou")
			}
		}
	}
}

// RunOnce executa uma passada completa. Falha ao listar as tarefas aborta a
// varredura; falhas dentro do loop por tarefa são registradas e não impedem
// as tarefas seguintes.
func (s *Service) RunOnce(ctx context.Context) (*Report, error) {
	overdue, err := s.repo.ListOverdue(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar tarefas atrasadas: %w", err)
	}

	report := &Report{OverdueTasks: len(overdue)}

	for _, t := range overdue {
		sent, err := s.sweepTask(ctx, t)
		if err != nil {
			s.logger.Warn().Err(err).Str("task_id", t.ID.String()).Msg("sweep: tarefa pulada por erro")
			continue
		}
		report.NotificationsSent += sent
	}

	return report, nil
}

func (s *Service) sweepTask(ctx context.Context, t OverdueTask) (int, error) {
	now := s.now().UTC()

	last, err := s.repo.GetLastNotified(ctx, t.ID)
	if err != nil {
		return 0, fmt.Errorf("consultar ledger: %w", err)
	}
	if last != nil && now.Sub(*last) < s.cfg.RenotifyAfter {
		return 0, nil
	}

	recipients := make(map[uuid.UUID]struct{})
	if t.AssignedTo != nil {
		recipients[*t.AssignedTo] = struct{}{}
	}

	companyAdmins, err := s.repo.ListCompanyAdminIDs(ctx, t.TenantID)
	if err != nil {
		return 0, fmt.Errorf("listar admins da empresa: %w", err)
	}
	for _, id := range companyAdmins {
		recipients[id] = struct{}{}
	}

	globalAdmins, err := s.repo.ListGlobalAdminIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listar admins globais: %w", err)
	}
	for _, id := range globalAdmins {
		recipients[id] = struct{}{}
	}

	hoursOverdue := int(now.Sub(t.Deadline).Hours())
	message := fmt.Sprintf("A tarefa %q está atrasada há %d hora(s).", t.Title, hoursOverdue)

	sent := 0
	for id := range recipients {
		err := s.notifier.Dispatch(ctx, notify.Input{
			RecipientID: id,
			Title:       "Tarefa atrasada",
			Message:     message,
			Type:        notify.TypeTaskOverdue,
			Link:        "/tarefas/" + t.ID.String(),
		})
		if err != nil {
			// entrega parcial é aceitável, o loop segue
			s.logger.Warn().Err(err).
				Str("task_id", t.ID.String()).
				Str("recipient_id", id.String()).
				Msg("sweep: notificação individual falhou")
			continue
		}
		sent++
	}

	// o ledger avança mesmo com entregas parciais: no máximo um burst por
	// tarefa por janela
	if err := s.repo.UpsertLastNotified(ctx, t.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("task_id", t.ID.String()).Msg("sweep: upsert do ledger falhou")
	}

	return sent, nil
}
