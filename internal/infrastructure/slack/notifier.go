package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/infrastructure/parser"
	"FeedNotifier/internal/pipeline"
)

const (
	// FixedBlocks is the number of blocks every message carries besides
	// the stage-injected ones.
	FixedBlocks = 6

	headerLimit     = 150
	timestampLayout = "2006-01-02 15:04"
	viewActionID    = "view_entry"
	placeholder     = "-"
)

// Notifier posts one Slack message per addressed entry.
type Notifier struct {
	poster   MessagePoster
	location *time.Location
	logger   *slog.Logger
}

var _ pipeline.Notifier[domain.Enrichment] = (*Notifier)(nil)

// NewNotifier renders timestamps in loc (UTC when nil).
func NewNotifier(poster MessagePoster, loc *time.Location, logger *slog.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{poster: poster, location: loc, logger: logger}
}

// Notify posts entries in order. Entries without a target are skipped.
// Delivered messages cannot be recalled, so no effects are registered.
func (n *Notifier) Notify(ctx context.Context, entries []domain.Entry[domain.Enrichment]) (pipeline.Effects, error) {
	delivered := 0
	for _, entry := range entries {
		if entry.TargetID == "" {
			continue
		}
		if err := n.poster.PostBlocks(ctx, entry.TargetID, entry.Title, n.Blocks(entry)); err != nil {
			return pipeline.Effects{}, fmt.Errorf("post entry %s: %w", entry.ID, err)
		}
		delivered++
		n.logger.Debug("entry delivered", "entry_id", entry.ID, "channel", entry.TargetID)
	}
	n.logger.Info("entries delivered", "count", delivered, "skipped", len(entries)-delivered)
	return pipeline.Effects{}, nil
}

// Blocks renders the message layout for one entry.
func (n *Notifier) Blocks(entry domain.Entry[domain.Enrichment]) []slack.Block {
	blocks := make([]slack.Block, 0, FixedBlocks+len(entry.Metadata.ExtraBlocks))

	blocks = append(blocks,
		slack.NewHeaderBlock(plain(parser.Truncate(orPlaceholder(entry.Title), headerLimit))),
		n.authorSection(entry),
		slack.NewDividerBlock(),
	)
	for _, b := range entry.Metadata.ExtraBlocks {
		blocks = append(blocks, RenderBlock(b))
	}

	categories := placeholder
	if len(entry.Categories) > 0 {
		categories = strings.Join(entry.Categories, ", ")
	}
	blocks = append(blocks,
		slack.NewContextBlock("", markdown(":art: categories: "+categories)),
		slack.NewContextBlock("", markdown(":link: "+orPlaceholder(entry.Link))),
		slack.NewContextBlock("",
			markdown(":spiral_calendar_pad: *Created at:* "+n.timestamp(entry.CreatedAt)),
			markdown("*Updated at:* "+n.timestamp(entry.UpdatedAt)),
		),
	)
	return blocks
}

func (n *Notifier) authorSection(entry domain.Entry[domain.Enrichment]) *slack.SectionBlock {
	var accessory *slack.Accessory
	if entry.Link != "" {
		button := slack.NewButtonBlockElement(viewActionID, entry.ID, plain("View"))
		button.URL = entry.Link
		accessory = slack.NewAccessory(button)
	}
	return slack.NewSectionBlock(markdown("*"+orPlaceholder(entry.Author)+"*"), nil, accessory)
}

func (n *Notifier) timestamp(t time.Time) string {
	if t.IsZero() {
		return placeholder
	}
	return t.In(n.location).Format(timestampLayout)
}

// RenderBlock maps a stage-injected block to exactly one Slack block.
func RenderBlock(b domain.Block) slack.Block {
	switch b.Kind {
	case domain.BlockDivider:
		return slack.NewDividerBlock()
	default:
		return slack.NewContextBlock("", markdown(parser.Truncate(orPlaceholder(b.Text), sectionLimit)))
	}
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
