package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"FeedNotifier/internal/domain"
)

const (
	sourceStep   = "source"
	notifierStep = "notifier"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Report summarises one run.
type Report struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       Status    `json:"status"`
	Fetched      int       `json:"fetched"`
	Addressed    int       `json:"addressed"`
	Commits      int       `json:"commits"`
	Rollbacks    int       `json:"rollbacks"`
	Error        string    `json:"error,omitempty"`
	EffectErrors []string  `json:"effect_errors,omitempty"`
	AlertError   string    `json:"alert_error,omitempty"`

	err error
}

// Err returns the error that failed the run, or nil.
func (r Report) Err() error {
	return r.err
}

// Deps wires the fixed pipeline of one orchestrator.
type Deps[S, N any] struct {
	Source   Source[S]
	Chain    Chain[S, N]
	Notifier Notifier[N]
	Alerter  Alerter
	Logger   *slog.Logger
	Now      func() time.Time
	NewRunID func() string
}

// Orchestrator runs source, chain and notifier, then settles the recorded
// effects: all commits on success, all rollbacks on failure, never both.
type Orchestrator[S, N any] struct {
	source   Source[S]
	chain    Chain[S, N]
	notifier Notifier[N]
	alerter  Alerter
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// New builds an orchestrator; source, notifier and chain are required.
func New[S, N any](deps Deps[S, N]) (*Orchestrator[S, N], error) {
	if deps.Source == nil {
		return nil, errors.New("pipeline: source is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("pipeline: notifier is required")
	}
	if deps.Chain.run == nil {
		return nil, errors.New("pipeline: chain is required")
	}

	o := &Orchestrator[S, N]{
		source:   deps.Source,
		chain:    deps.Chain,
		notifier: deps.Notifier,
		alerter:  deps.Alerter,
		logger:   deps.Logger,
		now:      deps.Now,
		newRunID: deps.NewRunID,
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newRunID == nil {
		o.newRunID = uuid.NewString
	}
	return o, nil
}

// Stages lists the configured stage names between source and notifier.
func (o *Orchestrator[S, N]) Stages() []string {
	return o.chain.Stages()
}

// Run executes one pipeline pass. It never returns an error: the outcome,
// including any failure, is described by the report.
func (o *Orchestrator[S, N]) Run(ctx context.Context) Report {
	report := Report{RunID: o.newRunID(), StartedAt: o.now()}
	logger := o.logger.With("run_id", report.RunID)
	logger.Debug("run started", "stages", o.chain.Stages())

	var l ledger
	err := o.execute(ctx, logger, &l, &report)

	if err == nil {
		commits, failures := l.commit(ctx, logger)
		report.Status = StatusSucceeded
		report.Commits = commits
		report.EffectErrors = errorStrings(failures)
		report.FinishedAt = o.now()
		logger.Info("run succeeded",
			"fetched", report.Fetched,
			"addressed", report.Addressed,
			"commits", commits,
			"commit_failures", len(failures),
			"duration", report.FinishedAt.Sub(report.StartedAt))
		return report
	}

	logger.Error("run failed", "error", err, "rollbacks", len(l.rollbacks))
	rollbacks, failures := l.rollback(ctx, logger, err)
	report.Status = StatusFailed
	report.err = err
	report.Error = err.Error()
	report.Rollbacks = rollbacks
	report.EffectErrors = errorStrings(failures)

	if alertErr := o.alert(ctx, err); alertErr != nil {
		logger.Error("failed to send alert", "error", alertErr)
		report.AlertError = alertErr.Error()
	}

	report.FinishedAt = o.now()
	return report
}

func (o *Orchestrator[S, N]) execute(ctx context.Context, logger *slog.Logger, l *ledger, report *Report) error {
	var fetched Outcome[S]
	err := guard(sourceStep, func() error {
		var fetchErr error
		fetched, fetchErr = o.source.Fetch(ctx)
		return fetchErr
	})
	if err != nil {
		return wrapStep(sourceStep, err)
	}
	l.record(sourceStep, fetched.Effects)
	report.Fetched = len(fetched.Entries)
	logger.Debug("entries fetched", "count", len(fetched.Entries))

	entries, err := o.chain.run(ctx, l, fetched.Entries)
	if err != nil {
		return err
	}
	report.Addressed = countAddressed(entries)

	var effects Effects
	err = guard(notifierStep, func() error {
		var notifyErr error
		effects, notifyErr = o.notifier.Notify(ctx, entries)
		return notifyErr
	})
	if err != nil {
		return wrapStep(notifierStep, err)
	}
	l.record(notifierStep, effects)
	return nil
}

func (o *Orchestrator[S, N]) alert(ctx context.Context, cause error) (err error) {
	if o.alerter == nil {
		return nil
	}
	return guard("alert", func() error { return o.alerter.Alert(ctx, cause) })
}

func countAddressed[M any](entries []domain.Entry[M]) int {
	n := 0
	for _, e := range entries {
		if e.TargetID != "" {
			n++
		}
	}
	return n
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
