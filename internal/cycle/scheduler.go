package cycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status do scheduler exposto pela API.
type SchedulerStatus struct {
	Running         bool       `json:"running"`
	IntervalMinutes int        `json:"interval_minutes"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty"`
	NextRunAt       *time.Time `json:"next_run_at,omitempty"`
	LastResult      *Result    `json:"last_result,omitempty"`
}

// Scheduler roda o ciclo num intervalo fixo. Start/Stop/UpdateInterval são
// seguros pra chamar de handlers HTTP concorrentes.
type Scheduler struct {
	runner   *Runner
	logger   *zap.Logger
	interval time.Duration

	mu         sync.Mutex
	running    bool
	stop       chan struct{}
	done       chan struct{}
	lastRunAt  *time.Time
	nextRunAt  *time.Time
	lastResult *Result
}

func NewScheduler(runner *Runner, intervalMinutes int, logger *zap.Logger) *Scheduler {
	if intervalMinutes <= 0 {
		intervalMinutes = 5
	}
	return &Scheduler{
		runner:   runner,
		logger:   logger,
		interval: time.Duration(intervalMinutes) * time.Minute,
	}
}

// Start dispara o loop. Erro se já está rodando. O primeiro ciclo roda na
// hora, não depois do primeiro tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler já está rodando")
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx, s.stop, s.done, s.interval)
	s.logger.Info("scheduler iniciado", zap.Duration("interval", s.interval))
	return nil
}

// Stop para o loop e espera o ciclo corrente terminar.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stop, done := s.stop, s.done
	s.running = false
	s.nextRunAt = nil
	s.mu.Unlock()

	close(stop)
	<-done
	s.logger.Info("scheduler parado")
}

// UpdateInterval troca o intervalo; se o loop está no ar, reinicia com o
// valor novo.
func (s *Scheduler) UpdateInterval(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return errors.New("intervalo precisa ser positivo")
	}
	s.mu.Lock()
	wasRunning := s.running
	s.interval = time.Duration(minutes) * time.Minute
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
		return s.Start(ctx)
	}
	return nil
}

// Status devolve o estado corrente.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{
		Running:         s.running,
		IntervalMinutes: int(s.interval / time.Minute),
		LastRunAt:       s.lastRunAt,
		NextRunAt:       s.nextRunAt,
		LastResult:      s.lastResult,
	}
}

func (s *Scheduler) loop(ctx context.Context, stop, done chan struct{}, interval time.Duration) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx, interval)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, interval)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, interval time.Duration) {
	res, err := s.runner.RunCycle(ctx)
	now := time.Now().UTC()
	next := now.Add(interval)

	s.mu.Lock()
	s.lastRunAt = &now
	if s.running {
		s.nextRunAt = &next
	}
	if res != nil {
		s.lastResult = res
	}
	s.mu.Unlock()

	if err != nil && !errors.Is(err, ErrCycleRunning) {
		s.logger.Error("ciclo agendado falhou", zap.Error(err))
	}
}
