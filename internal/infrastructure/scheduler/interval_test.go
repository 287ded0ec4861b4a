package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsEagerlyThenTicks(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fired := make(chan struct{}, 16)
	s := NewIntervalScheduler(10 * time.Millisecond)

	err := s.Start(context.Background(), func(time.Time) {
		calls.Add(1)
		fired <- struct{}{}
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatalf("job fired %d times before timeout", calls.Load())
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() > after+1 {
		t.Fatalf("job kept firing after Stop")
	}
}

func TestIntervalSchedulerTicksDoNotWaitForJob(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var calls atomic.Int32
	s := NewIntervalScheduler(5 * time.Millisecond)
	_ = s.Start(context.Background(), func(time.Time) {
		calls.Add(1)
		<-release
	})

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(release)
	_ = s.Stop(context.Background())

	if calls.Load() < 2 {
		t.Fatalf("blocked job stalled the ticker")
	}
}

func TestIntervalSchedulerRejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	if err := NewIntervalScheduler(0).Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}

func TestIntervalSchedulerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(time.Hour)
	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}

func TestIntervalSchedulerStopWaitsForSpawnedJobs(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	s := NewIntervalScheduler(time.Hour)
	err := s.Start(context.Background(), func(time.Time) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	<-started

	stopped := make(chan error, 1)
	go func() { stopped <- s.Stop(context.Background()) }()

	select {
	case err := <-stopped:
		t.Fatalf("Stop returned while a job was running: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Stop did not return after the job finished")
	}
}

func TestIntervalSchedulerStopBoundedByContext(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)
	s := NewIntervalScheduler(time.Hour)
	_ = s.Start(context.Background(), func(time.Time) {
		started <- struct{}{}
		<-release
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); err == nil {
		t.Fatalf("expected context error while a job is running")
	}
}
