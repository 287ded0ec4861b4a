package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"FeedNotifier/internal/pipeline"
	"FeedNotifier/internal/ports"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) pipeline.Report
}

// Scheduler wires the interval driver with the pipeline and keeps at most
// one run in flight.
type Scheduler struct {
	driver ports.Scheduler
	runner Runner
	guard  *semaphore.Weighted
	logger *slog.Logger

	mu      sync.RWMutex
	last    pipeline.Report
	hasLast bool
	skipped int
	closed  bool
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		driver: driver,
		runner: runner,
		guard:  semaphore.NewWeighted(1),
		logger: logger,
	}
}

// Start registers the pipeline with the driver. Runs outlive cancellation of
// ctx so that an in-flight run settles its effects; Stop waits for it.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	runCtx := context.WithoutCancel(ctx)
	return s.driver.Start(ctx, func(trigger time.Time) {
		s.RunOnce(runCtx, trigger)
	})
}

// RunOnce runs the pipeline unless a run is already in flight or the
// scheduler has been stopped. The second result is false when the trigger
// was skipped.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) (pipeline.Report, bool) {
	if !s.guard.TryAcquire(1) {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		s.logger.Warn("previous run still in progress, skipping", "trigger", trigger)
		return pipeline.Report{}, false
	}
	defer s.guard.Release(1)

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		s.logger.Debug("scheduler stopped, dropping trigger", "trigger", trigger)
		return pipeline.Report{}, false
	}

	report := s.safeRun(ctx, trigger)

	s.mu.Lock()
	s.last = report
	s.hasLast = true
	s.mu.Unlock()
	return report, true
}

func (s *Scheduler) safeRun(ctx context.Context, trigger time.Time) (report pipeline.Report) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("run panicked outside pipeline", "panic", r, "stack", string(debug.Stack()))
			report = pipeline.Report{
				StartedAt:  trigger,
				FinishedAt: time.Now(),
				Status:     pipeline.StatusFailed,
				Error:      fmt.Sprintf("run panicked: %v", r),
			}
		}
	}()
	return s.runner.Run(ctx)
}

// LastReport returns the most recent finished run, if any.
func (s *Scheduler) LastReport() (pipeline.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasLast
}

// Skipped counts triggers dropped because a run was in flight.
func (s *Scheduler) Skipped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skipped
}

// Stop halts the driver and waits for an in-flight run, bounded by ctx. No
// run starts after Stop returns.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if s.driver != nil {
		if err := s.driver.Stop(ctx); err != nil {
			return fmt.Errorf("stop driver: %w", err)
		}
	}
	if err := s.guard.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for in-flight run: %w", err)
	}
	s.guard.Release(1)
	return nil
}
