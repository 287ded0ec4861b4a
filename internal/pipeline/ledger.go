package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

type commitEntry struct {
	step string
	fn   CommitFunc
}

type rollbackEntry struct {
	step string
	fn   RollbackFunc
}

// ledger accumulates the effects of one run in registration order.
type ledger struct {
	commits   []commitEntry
	rollbacks []rollbackEntry
}

func (l *ledger) record(step string, e Effects) {
	if e.OnCommit != nil {
		l.commits = append(l.commits, commitEntry{step: step, fn: e.OnCommit})
	}
	if e.OnRollback != nil {
		l.rollbacks = append(l.rollbacks, rollbackEntry{step: step, fn: e.OnRollback})
	}
}

// commit runs every commit effect; a failing one does not stop the rest.
func (l *ledger) commit(ctx context.Context, logger *slog.Logger) (int, []error) {
	var failures []error
	for _, c := range l.commits {
		err := guard(c.step+" commit", func() error { return c.fn(ctx) })
		if err != nil {
			logger.Error("commit effect failed", "step", c.step, "error", err)
			failures = append(failures, fmt.Errorf("%s commit: %w", c.step, err))
		}
	}
	return len(l.commits), failures
}

// rollback runs every rollback effect with the triggering error; failures
// are logged and collected, never returned as a run error.
func (l *ledger) rollback(ctx context.Context, logger *slog.Logger, cause error) (int, []error) {
	var failures []error
	for _, r := range l.rollbacks {
		err := guard(r.step+" rollback", func() error { return r.fn(ctx, cause) })
		if err != nil {
			logger.Error("rollback effect failed", "step", r.step, "error", err)
			failures = append(failures, fmt.Errorf("%s rollback: %w", r.step, err))
		}
	}
	return len(l.rollbacks), failures
}
