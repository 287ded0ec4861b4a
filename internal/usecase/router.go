package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/infrastructure/parser"
	"FeedNotifier/internal/pipeline"
	"FeedNotifier/internal/ports"
)

// DefaultRoutingTag marks channels that accept notifications in their topic.
const DefaultRoutingTag = "for_harukaze_notification"

const routerSystemPrompt = "You are a professional journalist who needs to send a news article to a Slack channel. " +
	"Please select a channel from the list below, and return the channel number."

var (
	// ErrChannelListing means the channel directory could not be read.
	ErrChannelListing = errors.New("channel listing failed")
	// ErrNoEligibleChannels means no channel topic carries the routing tag.
	ErrNoEligibleChannels = errors.New("no eligible channels")
)

// ChoicePolicy maps a model reply to an index into candidates channels. It
// must return a value in [0, candidates).
type ChoicePolicy func(reply string, candidates int) int

// FirstChannelFallback reads the leading integer of the reply, after folding
// full-width digits. Non-numeric and out-of-range replies select channel 0.
func FirstChannelFallback(reply string, candidates int) int {
	folded := width.Fold.String(strings.TrimSpace(reply))

	end := 0
	for end < len(folded) && (unicode.IsDigit(rune(folded[end])) || (end == 0 && (folded[end] == '-' || folded[end] == '+'))) {
		end++
	}
	n, err := strconv.Atoi(folded[:end])
	if err != nil || n < 0 || n >= candidates {
		return 0
	}
	return n
}

// RouterConfig tunes ChannelRouter.
type RouterConfig struct {
	Tag            string
	Model          string
	MaxPromptChars int
	Choose         ChoicePolicy
}

// ChannelRouter asks the LLM to pick a destination channel for each entry.
type ChannelRouter struct {
	channels ports.ChannelDirectory
	llm      ports.ChatCompleter
	cfg      RouterConfig
	logger   *slog.Logger
}

var _ pipeline.Stage[domain.Enrichment, domain.Enrichment] = (*ChannelRouter)(nil)

// NewChannelRouter applies defaults for empty config fields.
func NewChannelRouter(channels ports.ChannelDirectory, llm ports.ChatCompleter, cfg RouterConfig, logger *slog.Logger) *ChannelRouter {
	if cfg.Tag == "" {
		cfg.Tag = DefaultRoutingTag
	}
	if cfg.Choose == nil {
		cfg.Choose = FirstChannelFallback
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ChannelRouter{channels: channels, llm: llm, cfg: cfg, logger: logger}
}

func (r *ChannelRouter) Name() string {
	return "router"
}

// Apply addresses every entry to one eligible channel, in order.
func (r *ChannelRouter) Apply(ctx context.Context, entries []domain.Entry[domain.Enrichment]) (pipeline.Outcome[domain.Enrichment], error) {
	if len(entries) == 0 {
		return pipeline.Outcome[domain.Enrichment]{}, nil
	}

	all, err := r.channels.ListChannels(ctx)
	if err != nil {
		return pipeline.Outcome[domain.Enrichment]{}, pipeline.Fail(r.Name(), fmt.Errorf("%w: %w", ErrChannelListing, err))
	}
	eligible := EligibleChannels(all, r.cfg.Tag)
	if len(eligible) == 0 {
		return pipeline.Outcome[domain.Enrichment]{}, pipeline.Fail(r.Name(), fmt.Errorf("%w: tag %q", ErrNoEligibleChannels, r.cfg.Tag))
	}
	r.logger.Debug("eligible channels", "count", len(eligible), "names", channelNames(eligible))

	out := make([]domain.Entry[domain.Enrichment], 0, len(entries))
	for _, entry := range entries {
		resp, err := r.llm.Complete(ctx, domain.ChatRequest{
			Model:  r.cfg.Model,
			System: routerSystemPrompt,
			User:   r.prompt(entry, eligible),
		})
		if err != nil {
			return pipeline.Outcome[domain.Enrichment]{}, fmt.Errorf("route entry %s: %w", entry.ID, err)
		}

		idx := r.cfg.Choose(resp.Content, len(eligible))
		if idx < 0 || idx >= len(eligible) {
			idx = 0
		}
		target := eligible[idx]
		r.logger.Debug("entry routed", "entry_id", entry.ID, "reply", resp.Content, "channel", target.Name)
		out = append(out, entry.WithTarget(target.ID))
	}
	return pipeline.Outcome[domain.Enrichment]{Entries: out}, nil
}

func (r *ChannelRouter) prompt(entry domain.Entry[domain.Enrichment], channels []domain.Channel) string {
	var b strings.Builder
	b.WriteString("<entry>\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", entry.Title)
	fmt.Fprintf(&b, "  <url>%s</url>\n", entry.Link)
	fmt.Fprintf(&b, "  <category>%s</category>\n", strings.Join(entry.Categories, ", "))
	fmt.Fprintf(&b, "  <content>%s</content>\n", parser.PromptText(entry.Content, r.cfg.MaxPromptChars))
	b.WriteString("</entry>\n\n<channels>\n")
	for i, ch := range channels {
		topic := ch.Topic
		if topic == "" {
			topic = "no topic provided"
		}
		fmt.Fprintf(&b, "  <channel number='%d'>\n    <name>%s</name>\n    <topic>%s</topic>\n  </channel>\n", i, ch.Name, topic)
	}
	b.WriteString("</channels>")
	return b.String()
}

// EligibleChannels keeps channels whose topic contains tag, in listing order.
func EligibleChannels(channels []domain.Channel, tag string) []domain.Channel {
	var out []domain.Channel
	for _, ch := range channels {
		if strings.Contains(ch.Topic, tag) {
			out = append(out, ch)
		}
	}
	return out
}

func channelNames(channels []domain.Channel) []string {
	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name
	}
	return names
}
