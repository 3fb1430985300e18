package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Shutdown runs registered hooks stage by stage; hooks of one stage run in parallel.
type Shutdown struct {
	mu     sync.Mutex
	stages map[Stage][]Hook
	log    *slog.Logger
}

// NewShutdown constructs a new Shutdown coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{
		stages: make(map[Stage][]Hook),
		log:    log,
	}
}

// Register adds a named shutdown hook to stage.
func (s *Shutdown) Register(stage Stage, name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stages[stage] = append(s.stages[stage], Hook{Name: name, Fn: fn})
}

// Execute runs every stage and returns the joined hook errors. A failing hook
// does not stop later stages.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	order := make([]Stage, 0, len(s.stages))
	stages := make(map[Stage][]Hook, len(s.stages))
	for stage, hooks := range s.stages {
		order = append(order, stage)
		stages[stage] = append([]Hook(nil), hooks...)
	}
	s.mu.Unlock()

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	start := time.Now()
	s.log.InfoContext(ctx, "shutdown sequence started", slog.Int("stage_count", len(order)))

	var errs []error
	for _, stage := range order {
		errs = append(errs, s.runStage(ctx, stages[stage])...)
	}

	s.log.InfoContext(ctx, "shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(errs...)
}

func (s *Shutdown) runStage(ctx context.Context, hooks []Hook) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, h := range hooks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			s.log.InfoContext(ctx, "running shutdown hook", slog.String("hook", h.Name))

			if err := h.Fn(ctx); err != nil {
				s.log.ErrorContext(ctx, "shutdown hook failed", slog.String("hook", h.Name), slog.Any("error", err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
				mu.Unlock()
				return
			}

			s.log.InfoContext(ctx, "shutdown hook completed", slog.String("hook", h.Name))
		}()
	}

	wg.Wait()
	return errs
}
