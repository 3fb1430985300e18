package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	checkSpec      string
	log            *slog.Logger
}

// NewScheduler enqueues the notification check on checkSpec. An empty spec
// registers nothing.
func NewScheduler(redisOpt asynq.RedisConnOpt, checkSpec string, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: newAsynqLogger(log)}),
		checkSpec:      checkSpec,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	if s.checkSpec == "" {
		s.log.InfoContext(context.Background(), "scheduler: notification check disabled")
		return nil
	}

	if _, err := s.asynqScheduler.Register(s.checkSpec, NewNotificationCheckTask()); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered notification check", slog.String("spec", s.checkSpec))

	return nil
}

func (s *scheduler) Run() {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")

	s.asynqScheduler.Shutdown()
}
