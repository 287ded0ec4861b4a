package pipeline

import (
	"context"
	"slices"

	"FeedNotifier/internal/domain"
)

// Chain is a statically typed sequence of stages. Build it with Begin and
// Then; the orchestrator runs it and records every stage's effects as soon
// as that stage returns.
type Chain[In, Out any] struct {
	names []string
	run   func(ctx context.Context, l *ledger, entries []domain.Entry[In]) ([]domain.Entry[Out], error)
}

// Begin starts an empty chain that passes entries through unchanged.
func Begin[M any]() Chain[M, M] {
	return Chain[M, M]{
		run: func(_ context.Context, _ *ledger, entries []domain.Entry[M]) ([]domain.Entry[M], error) {
			return entries, nil
		},
	}
}

// Then appends s to c.
func Then[In, Mid, Out any](c Chain[In, Mid], s Stage[Mid, Out]) Chain[In, Out] {
	prev := c.run
	return Chain[In, Out]{
		names: append(slices.Clone(c.names), s.Name()),
		run: func(ctx context.Context, l *ledger, entries []domain.Entry[In]) ([]domain.Entry[Out], error) {
			mid, err := prev(ctx, l, entries)
			if err != nil {
				return nil, err
			}

			var outcome Outcome[Out]
			err = guard(s.Name(), func() error {
				var applyErr error
				outcome, applyErr = s.Apply(ctx, mid)
				return applyErr
			})
			if err != nil {
				return nil, wrapStep(s.Name(), err)
			}

			l.record(s.Name(), outcome.Effects)
			return outcome.Entries, nil
		},
	}
}

// Stages lists stage names in execution order.
func (c Chain[In, Out]) Stages() []string {
	return slices.Clone(c.names)
}
