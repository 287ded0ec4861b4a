package pipeline

import (
	"context"

	"FeedNotifier/internal/domain"
)

// CommitFunc is a deferred effect that runs only when the whole run succeeds.
type CommitFunc func(ctx context.Context) error

// RollbackFunc is a deferred effect that runs only when the run fails.
type RollbackFunc func(ctx context.Context, cause error) error

// Effects holds the optional commit and rollback registered by one step.
type Effects struct {
	OnCommit   CommitFunc
	OnRollback RollbackFunc
}

// Outcome is what a step hands back: the transformed entries plus its effects.
// Effects returned together with an error are discarded.
type Outcome[M any] struct {
	Entries []domain.Entry[M]
	Effects
}

// Stage transforms a batch of entries. Implementations must treat the input
// slice as read-only and return fresh entry values.
type Stage[In, Out any] interface {
	Name() string
	Apply(ctx context.Context, entries []domain.Entry[In]) (Outcome[Out], error)
}

// Source produces the entries that start a run.
type Source[M any] interface {
	Fetch(ctx context.Context) (Outcome[M], error)
}

// Notifier delivers the final entries.
type Notifier[M any] interface {
	Notify(ctx context.Context, entries []domain.Entry[M]) (Effects, error)
}

// Alerter reports a failed run out of band.
type Alerter interface {
	Alert(ctx context.Context, err error) error
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc[In, Out any] struct {
	name string
	fn   func(ctx context.Context, entries []domain.Entry[In]) (Outcome[Out], error)
}

var _ Stage[struct{}, struct{}] = StageFunc[struct{}, struct{}]{}

// NewStageFunc names fn as a stage.
func NewStageFunc[In, Out any](name string, fn func(ctx context.Context, entries []domain.Entry[In]) (Outcome[Out], error)) StageFunc[In, Out] {
	return StageFunc[In, Out]{name: name, fn: fn}
}

// Name identifies the stage in logs and errors.
func (s StageFunc[In, Out]) Name() string {
	return s.name
}

// Apply calls the wrapped function.
func (s StageFunc[In, Out]) Apply(ctx context.Context, entries []domain.Entry[In]) (Outcome[Out], error) {
	return s.fn(ctx, entries)
}
