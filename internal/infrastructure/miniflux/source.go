package miniflux

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/pipeline"
)

const (
	// DefaultInitialLookback bounds the first fetch after startup.
	DefaultInitialLookback = time.Hour
	// DefaultPublishedWindow keeps bulk-imported back catalogues out of a run.
	DefaultPublishedWindow = 24 * time.Hour

	statusUnread = "unread"
)

// EntryLister is the upstream read side the provider depends on.
type EntryLister interface {
	Entries(ctx context.Context, q EntryQuery) ([]Entry, error)
}

// SourceOptions tunes the fetch window.
type SourceOptions struct {
	InitialLookback time.Duration
	// PublishedWindow restricts entries to those published within the window.
	// Zero disables the restriction.
	PublishedWindow time.Duration
	Now             func() time.Time
}

// SourceProvider fetches unread entries changed since the committed
// watermark and defers moving the watermark to the run's commit.
type SourceProvider struct {
	client   EntryLister
	cursor   CursorStore
	lookback time.Duration
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

var _ pipeline.Source[domain.FeedMeta] = (*SourceProvider)(nil)

// NewSourceProvider wires the upstream client and the cursor cell.
func NewSourceProvider(client EntryLister, cursor CursorStore, opts SourceOptions, logger *slog.Logger) *SourceProvider {
	if opts.InitialLookback <= 0 {
		opts.InitialLookback = DefaultInitialLookback
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SourceProvider{
		client:   client,
		cursor:   cursor,
		lookback: opts.InitialLookback,
		window:   opts.PublishedWindow,
		now:      opts.Now,
		logger:   logger,
	}
}

// Watermark exposes the committed watermark.
func (s *SourceProvider) Watermark() Watermark {
	return s.cursor.Load()
}

// Fetch lists unread entries in the current window. The watermark is left
// untouched; the returned commit advances it to the window's upper bound and
// the rollback restores the value observed at call start.
func (s *SourceProvider) Fetch(ctx context.Context) (pipeline.Outcome[domain.FeedMeta], error) {
	now := s.now()
	prev := s.cursor.Load()

	query := EntryQuery{
		Status:        statusUnread,
		ChangedAfter:  prev.LowerBound(now, s.lookback),
		ChangedBefore: now,
	}
	if s.window > 0 {
		query.PublishedAfter = now.Add(-s.window)
		query.PublishedBefore = now
	}

	upstream, err := s.client.Entries(ctx, query)
	if err != nil {
		return pipeline.Outcome[domain.FeedMeta]{}, fmt.Errorf("fetch entries: %w", err)
	}

	entries := make([]domain.Entry[domain.FeedMeta], 0, len(upstream))
	for _, e := range upstream {
		entries = append(entries, toEntry(e))
	}

	s.logger.Info("entries fetched",
		"count", len(entries),
		"changed_after", query.ChangedAfter.Format(time.RFC3339),
		"changed_before", query.ChangedBefore.Format(time.RFC3339))

	return pipeline.Outcome[domain.FeedMeta]{
		Entries: entries,
		Effects: pipeline.Effects{
			OnCommit: func(context.Context) error {
				next := prev.Advance(now)
				s.cursor.Store(next)
				s.logger.Debug("watermark advanced", "to", now.Format(time.RFC3339))
				return nil
			},
			OnRollback: func(_ context.Context, cause error) error {
				s.cursor.Store(prev)
				at, ok := prev.Time()
				s.logger.Warn("watermark restored", "to", at, "set", ok, "cause", cause)
				return nil
			},
		},
	}, nil
}

func toEntry(e Entry) domain.Entry[domain.FeedMeta] {
	var categories []string
	if e.Feed.Category.Title != "" {
		categories = []string{e.Feed.Category.Title}
	}
	return domain.Entry[domain.FeedMeta]{
		ID:         strconv.FormatInt(e.ID, 10),
		Title:      e.Title,
		Link:       e.URL,
		Content:    e.Content,
		Author:     e.Feed.Title,
		CreatedAt:  e.PublishedAt,
		UpdatedAt:  e.ChangedAt,
		Categories: categories,
		Metadata:   domain.FeedMeta{FeedID: e.FeedID, Hash: e.Hash},
	}
}
