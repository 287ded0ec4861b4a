package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/pipeline"
)

type fakeDirectory struct {
	channels []domain.Channel
	err      error
	calls    int
}

func (d *fakeDirectory) ListChannels(context.Context) ([]domain.Channel, error) {
	d.calls++
	return d.channels, d.err
}

// scriptedCompleter answers requests in order from replies.
type scriptedCompleter struct {
	mu       sync.Mutex
	replies  []domain.ChatResponse
	err      error
	requests []domain.ChatRequest
}

func (c *scriptedCompleter) Complete(_ context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return domain.ChatResponse{}, c.err
	}
	if len(c.requests) > len(c.replies) {
		return domain.ChatResponse{}, errors.New("no scripted reply left")
	}
	return c.replies[len(c.requests)-1], nil
}

func text(content string) domain.ChatResponse {
	return domain.ChatResponse{Content: content}
}

func enrichedEntries(ids ...string) []domain.Entry[domain.Enrichment] {
	out := make([]domain.Entry[domain.Enrichment], len(ids))
	for i, id := range ids {
		out[i] = domain.Entry[domain.Enrichment]{
			ID:         id,
			Title:      "title " + id,
			Link:       "https://example.com/" + id,
			Content:    "<p>content " + id + "</p>",
			Categories: []string{"Tech"},
		}
	}
	return out
}

var taggedChannels = []domain.Channel{
	{ID: "C0", Name: "random", Topic: "chatter"},
	{ID: "C1", Name: "news", Topic: "daily news for_harukaze_notification"},
	{ID: "C2", Name: "golang", Topic: "for_harukaze_notification go"},
	{ID: "C3", Name: "ml", Topic: "for_harukaze_notification"},
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	started chan struct{}
	panics  bool
}

func (r *fakeRunner) Run(context.Context) pipeline.Report {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	if r.panics {
		panic("runner exploded")
	}
	return pipeline.Report{RunID: "run", Status: pipeline.StatusSucceeded, FinishedAt: time.Now()}
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
