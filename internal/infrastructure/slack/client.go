package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/ports"
)

const (
	listPageSize = 200
	maxListPages = 50
)

// MessagePoster delivers one block message to a channel.
type MessagePoster interface {
	PostBlocks(ctx context.Context, channelID, text string, blocks []slack.Block) error
}

// ClientConfig holds the bot credentials.
type ClientConfig struct {
	Token string
	// APIURL overrides https://slack.com/api/, mainly for tests.
	APIURL  string
	Timeout time.Duration
}

// APIClient adapts the Slack Web API to the ports used by the pipeline.
type APIClient struct {
	api *slack.Client
}

var (
	_ ports.ChannelDirectory = (*APIClient)(nil)
	_ MessagePoster          = (*APIClient)(nil)
)

// NewAPIClient registers the bot token.
func NewAPIClient(cfg ClientConfig) (*APIClient, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("slack bot token is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []slack.Option{slack.OptionHTTPClient(&http.Client{Timeout: cfg.Timeout})}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(strings.TrimSuffix(cfg.APIURL, "/")+"/"))
	}
	return &APIClient{api: slack.New(cfg.Token, opts...)}, nil
}

// ListChannels pages through public and private non-archived channels.
func (c *APIClient) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           listPageSize,
		Types:           []string{"public_channel", "private_channel"},
	}

	var out []domain.Channel
	for page := 0; page < maxListPages; page++ {
		channels, next, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("conversations.list: %w", err)
		}
		for _, ch := range channels {
			out = append(out, domain.Channel{ID: ch.ID, Name: ch.Name, Topic: ch.Topic.Value})
		}
		if next == "" {
			return out, nil
		}
		params.Cursor = next
	}
	return nil, fmt.Errorf("conversations.list exceeded %d pages", maxListPages)
}

// PostBlocks sends a message; a non-ok response is reported with its reason.
func (c *APIClient) PostBlocks(ctx context.Context, channelID, text string, blocks []slack.Block) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}
	return nil
}
