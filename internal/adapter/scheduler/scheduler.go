package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periodicd/internal/shared"
	"periodicd/pkg/periodic"
)

var (
	// ErrJobExists возвращается при повторной регистрации имени.
	ErrJobExists = fmt.Errorf("%w: job already registered", shared.ErrConflict)
	// ErrJobNotFound возвращается, если задачи с таким именем нет.
	ErrJobNotFound = fmt.Errorf("%w: job not found", shared.ErrNotFound)
)

// Job представляет периодическую задачу без параметра типа результата.
type Job interface {
	Name() string
	Start(delay time.Duration) error
	Stop(delay time.Duration) error
	Running() bool
	Status() periodic.Status
	Done() <-chan struct{}
	// ResultAny возвращает последний результат. ready == false для
	// pending-заглушки режима ignore-failures.
	ResultAny(ctx context.Context) (v any, ready bool, err error)
}

// periodicJob адаптирует periodic.Periodic[T] к Job.
type periodicJob[T any] struct {
	*periodic.Periodic[T]
}

// Adapt оборачивает p в Job.
func Adapt[T any](p *periodic.Periodic[T]) Job {
	return periodicJob[T]{Periodic: p}
}

func (j periodicJob[T]) ResultAny(ctx context.Context) (any, bool, error) {
	v, err := j.Result(ctx)
	if err != nil {
		return nil, false, err
	}
	val, ok := v.Get()
	if !ok {
		return nil, false, nil
	}
	return val, true, nil
}

// JobHooks содержит необязательные хуки для наблюдаемости.
type JobHooks struct {
	OnJobStart  func(jobName string)
	OnJobFinish func(jobName string, duration time.Duration, err error)
	OnJobExit   func(jobName string, err error)
}

// Config содержит конфигурацию планировщика.
type Config struct {
	Logger   *slog.Logger
	JobHooks JobHooks
}

// Scheduler хранит именованные периодические задачи и управляет ими как группой.
type Scheduler struct {
	logger *slog.Logger
	hooks  JobHooks

	mu    sync.RWMutex
	jobs  map[string]Job
	order []string
}

// New создает пустой планировщик.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger: logger.With("component", "scheduler"),
		hooks:  cfg.JobHooks,
		jobs:   make(map[string]Job),
	}
}

// Hooks возвращает хуки для periodic.WithHooks. Они логируют завершение цикла
// задачи и вызывают пользовательские JobHooks.
func (s *Scheduler) Hooks() periodic.Hooks {
	return periodic.Hooks{
		OnRunStart: func(name string, _ uint64) {
			if s.hooks.OnJobStart != nil {
				s.hooks.OnJobStart(name)
			}
		},
		OnRunFinish: func(name string, cycle uint64, duration time.Duration, err error) {
			if err != nil && !shared.IsCanceled(err) {
				s.logger.Warn("job run failed", "name", name, "cycle", cycle, "duration", duration, "error", err)
			}
			if s.hooks.OnJobFinish != nil {
				s.hooks.OnJobFinish(name, duration, err)
			}
		},
		OnLoopExit: func(name string, err error) {
			if err != nil {
				s.logger.Error("job loop terminated", "name", name, "error", err)
			}
			if s.hooks.OnJobExit != nil {
				s.hooks.OnJobExit(name, err)
			}
		},
	}
}

// Add регистрирует задачу под именем name.
func (s *Scheduler) Add(name string, job Job) error {
	if name == "" || job == nil {
		return fmt.Errorf("%w: job name and job are required", shared.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %q", ErrJobExists, name)
	}
	s.jobs[name] = job
	s.order = append(s.order, name)

	s.logger.Info("job added", "name", name, "periodic", job.Name(), "interval", job.Status().Interval)
	return nil
}

// Get возвращает задачу по имени.
func (s *Scheduler) Get(name string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrJobNotFound, name)
	}
	return job, nil
}

// Names возвращает имена задач в порядке регистрации.
func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// StartAll запускает все остановленные задачи с задержкой delay.
// Задачи, которые уже запущены (ошибка InvalidState), пропускаются.
func (s *Scheduler) StartAll(delay time.Duration) error {
	var errs []error
	names := s.Names()
	for _, name := range names {
		job, err := s.Get(name)
		if err != nil {
			continue
		}
		if err := job.Start(delay); err != nil {
			if shared.IsInvalidState(err) {
				continue
			}
			errs = append(errs, fmt.Errorf("start %s: %w", name, err))
		}
	}
	s.logger.Info("jobs started", "count", len(names), "delay", delay)
	return errors.Join(errs...)
}

// StopAll немедленно останавливает все запущенные задачи. Выполнения, которые
// уже идут, не прерываются.
func (s *Scheduler) StopAll() {
	for _, name := range s.Names() {
		job, err := s.Get(name)
		if err != nil {
			continue
		}
		if err := job.Stop(0); err != nil && !shared.IsInvalidState(err) {
			s.logger.Warn("failed to stop job", "name", name, "error", err)
		}
	}
	s.logger.Info("jobs stopped")
}

// StopContext останавливает все задачи и ждет выхода их циклов.
// Если контекст истекает раньше, возвращается ctx.Err().
func (s *Scheduler) StopContext(ctx context.Context) error {
	s.StopAll()

	for _, name := range s.Names() {
		job, err := s.Get(name)
		if err != nil {
			continue
		}
		select {
		case <-job.Done():
		case <-ctx.Done():
			s.logger.Warn("scheduler stop deadline exceeded", "waiting_for", name)
			return ctx.Err()
		}
	}
	s.logger.Info("scheduler stopped gracefully within deadline")
	return nil
}

// Snapshot возвращает состояние всех задач в порядке регистрации.
func (s *Scheduler) Snapshot() []periodic.Status {
	names := s.Names()
	out := make([]periodic.Status, 0, len(names))
	for _, name := range names {
		if job, err := s.Get(name); err == nil {
			out = append(out, job.Status())
		}
	}
	return out
}
