package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"FeedNotifier/internal/ports"
)

// IntervalScheduler fires a job immediately and then on a fixed interval.
// Each tick runs the job in its own goroutine so a slow job never delays the
// ticker; callers guard against overlap. Stop waits for spawned jobs.
type IntervalScheduler struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
	jobs sync.WaitGroup
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler ticking every interval.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{interval: interval, now: time.Now}
}

// Interval reports the tick period.
func (s *IntervalScheduler) Interval() time.Duration {
	return s.interval
}

// Start begins ticking. Calling Start on a running scheduler is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	stop, done := s.stop, s.done
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.spawn(job, s.now())
		for {
			select {
			case t := <-ticker.C:
				s.spawn(job, t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

func (s *IntervalScheduler) spawn(job func(time.Time), t time.Time) {
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		job(t)
	}()
}

// Stop halts the ticker goroutine and waits for the jobs it spawned, bounded
// by ctx.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	drained := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
