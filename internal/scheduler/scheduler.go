package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler управляет запуском периодических задач
type Scheduler struct {
	logger *zap.Logger
	jobs   []Job

	// RunOnStart запускает задачи сразу, не дожидаясь первого тика
	RunOnStart bool
}

// Job интерфейс для периодических задач
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc позволяет использовать функцию как Job
type JobFunc func(ctx context.Context) error

// Run реализует Job
func (f JobFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// NewScheduler создает новый планировщик задач
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		jobs:   make([]Job, 0),
	}
}

// AddJob добавляет задачу в планировщик
func (s *Scheduler) AddJob(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start запускает планировщик с указанным интервалом и блокируется до отмены ctx
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Info("планировщик отключен", zap.Duration("interval", interval))
		return
	}

	s.logger.Info("запуск планировщика задач",
		zap.Duration("interval", interval),
		zap.Int("jobs_count", len(s.jobs)))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if s.RunOnStart {
		s.runJobs(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("остановка планировщика задач")
			return
		case <-ticker.C:
			s.runJobs(ctx)
		}
	}
}

// runJobs запускает все зарегистрированные задачи
func (s *Scheduler) runJobs(ctx context.Context) {
	for i, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}

		s.logger.Debug("запуск задачи", zap.Int("job_index", i))

		if err := job.Run(ctx); err != nil {
			s.logger.Error("ошибка выполнения задачи",
				zap.Error(err),
				zap.Int("job_index", i))
		}
	}
}
