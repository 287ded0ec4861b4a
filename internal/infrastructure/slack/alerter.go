package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"FeedNotifier/internal/infrastructure/parser"
	"FeedNotifier/internal/pipeline"
)

// Section text is capped at 3000 characters by Slack.
const sectionLimit = 2900

// Alerter reports failed runs to an operations channel.
type Alerter struct {
	poster    MessagePoster
	channelID string
	logger    *slog.Logger
}

var _ pipeline.Alerter = (*Alerter)(nil)

// NewAlerter posts alerts to channelID.
func NewAlerter(poster MessagePoster, channelID string, logger *slog.Logger) (*Alerter, error) {
	if channelID == "" {
		return nil, errors.New("alert channel is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Alerter{poster: poster, channelID: channelID, logger: logger}, nil
}

// Alert posts the error text and, when one was captured, its stack.
func (a *Alerter) Alert(ctx context.Context, cause error) error {
	if cause == nil {
		return nil
	}
	if err := a.poster.PostBlocks(ctx, a.channelID, "Feed notification run failed: "+cause.Error(), AlertBlocks(cause)); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	a.logger.Info("alert sent", "channel", a.channelID)
	return nil
}

// AlertBlocks renders the error, plus the stack trace when present.
func AlertBlocks(cause error) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(markdown(":rotating_light: *Feed notification run failed*"), nil, nil),
		slack.NewSectionBlock(markdown(codeBlock(cause.Error())), nil, nil),
	}
	if stack, ok := pipeline.StackTrace(cause); ok {
		blocks = append(blocks, slack.NewSectionBlock(markdown(codeBlock(stack)), nil, nil))
	}
	return blocks
}

func codeBlock(s string) string {
	return "```" + parser.Truncate(s, sectionLimit) + "```"
}
