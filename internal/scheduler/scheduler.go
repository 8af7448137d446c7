// Package scheduler runs the engine's periodic tasks. Each task gets its own
// single worker goroutine, so consecutive ticks of one task never overlap: a
// slow tick delays the next firing instead of racing it. A failing tick is
// logged and abandoned; it never stops the schedule or the other tasks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Task is one periodically executed unit of work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler owns a set of tasks and runs them until the context is cancelled.
type Scheduler struct {
	tasks  []Task
	logger *slog.Logger

	mu   sync.Mutex
	last map[string]domain.TickResult
}

// New creates a Scheduler with no tasks registered.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger: logger.With(slog.String("component", "scheduler")),
		last:   make(map[string]domain.TickResult),
	}
}

// Add registers a task. Must be called before Run.
func (s *Scheduler) Add(t Task) {
	s.tasks = append(s.tasks, t)
}

// Run starts one goroutine per task and blocks until the context is
// cancelled. It returns the context's error; tick errors never propagate.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.tasks) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info("scheduler starting", slog.Int("tasks", len(s.tasks)))
	defer s.logger.Info("scheduler stopped")

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range s.tasks {
		t := t
		g.Go(func() error {
			return s.runTask(ctx, t)
		})
	}
	return g.Wait()
}

// LastResults returns a copy of the most recent tick result per task.
func (s *Scheduler) LastResults() map[string]domain.TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.TickResult, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}

// runTask fires the task immediately, then on every ticker firing until the
// context is done.
func (s *Scheduler) runTask(ctx context.Context, t Task) error {
	s.tick(ctx, t)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

// tick executes one firing of the task, converting panics and errors into a
// recorded TickResult.
func (s *Scheduler) tick(ctx context.Context, t Task) {
	started := time.Now().UTC()
	result := domain.TickResult{
		Task:    t.Name,
		Outcome: domain.TickOK,
		Started: started,
	}

	err := s.safeRun(ctx, t)
	result.Duration = time.Since(started).Milliseconds()

	switch {
	case err == nil:
	case ctx.Err() != nil:
		result.Outcome = domain.TickSkipped
		result.Reason = ctx.Err().Error()
	default:
		result.Outcome = domain.TickFailed
		result.Reason = err.Error()
		s.logger.ErrorContext(ctx, "tick failed",
			slog.String("task", t.Name),
			slog.String("error", err.Error()),
		)
	}

	s.mu.Lock()
	s.last[t.Name] = result
	s.mu.Unlock()
}

// safeRun invokes the task and converts a panic into an error so that one bad
// tick cannot take down the schedule.
func (s *Scheduler) safeRun(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: task %s panicked: %v", t.Name, r)
		}
	}()
	return t.Run(ctx)
}
