package ports

import (
	"context"
	"time"

	"FeedNotifier/internal/domain"
)

// ChannelDirectory lists channels the bot can post to.
type ChannelDirectory interface {
	ListChannels(ctx context.Context) ([]domain.Channel, error)
}

// ChatCompleter sends a prompt to an LLM and returns the first choice.
type ChatCompleter interface {
	Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
