package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/infrastructure/llm"
	"FeedNotifier/internal/infrastructure/parser"
	"FeedNotifier/internal/pipeline"
	"FeedNotifier/internal/ports"
)

const (
	commentaryTemperature = 0.2
	defaultLanguage       = "Japanese"
)

// ErrUnparsedCommentary marks a reply that did not match the commentary schema.
var ErrUnparsedCommentary = errors.New("commentary reply did not match schema")

// ParseFailurePolicy decides what happens to an entry whose commentary reply
// could not be decoded. Returning an error aborts the run.
type ParseFailurePolicy func(entry domain.Entry[domain.Enrichment], cause error) (domain.Entry[domain.Enrichment], error)

// DropUnparsedCommentary leaves the entry without commentary.
func DropUnparsedCommentary(entry domain.Entry[domain.Enrichment], _ error) (domain.Entry[domain.Enrichment], error) {
	return entry, nil
}

// CommentaryConfig tunes CommentaryGenerator.
type CommentaryConfig struct {
	Model          string
	Language       string
	MaxComments    int
	MaxPromptChars int
	Rates          llm.RateTable
	OnParseFailure ParseFailurePolicy
}

// CommentaryGenerator voices short commentary on each entry through
// catalog personas.
type CommentaryGenerator struct {
	llm     ports.ChatCompleter
	catalog domain.Catalog
	cfg     CommentaryConfig
	system  string
	logger  *slog.Logger
}

var _ pipeline.Stage[domain.Enrichment, domain.Enrichment] = (*CommentaryGenerator)(nil)

type commentaryReply struct {
	Comments *[]comment `json:"comments"`
}

type comment struct {
	ExpertNumber int    `json:"expertNumber"`
	Message      string `json:"message"`
}

// NewCommentaryGenerator renders the system prompt once for the whole catalog.
func NewCommentaryGenerator(completer ports.ChatCompleter, catalog domain.Catalog, cfg CommentaryConfig, logger *slog.Logger) *CommentaryGenerator {
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.MaxComments <= 0 {
		cfg.MaxComments = 1
	}
	if cfg.Rates == nil {
		cfg.Rates = llm.DefaultRates()
	}
	if cfg.OnParseFailure == nil {
		cfg.OnParseFailure = DropUnparsedCommentary
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CommentaryGenerator{
		llm:     completer,
		catalog: catalog,
		cfg:     cfg,
		system:  commentarySystemPrompt(catalog, cfg.Language, cfg.MaxComments),
		logger:  logger,
	}
}

func (g *CommentaryGenerator) Name() string {
	return "commentary"
}

// Apply requests commentary sequentially so the shared prompt prefix stays
// cacheable upstream.
func (g *CommentaryGenerator) Apply(ctx context.Context, entries []domain.Entry[domain.Enrichment]) (pipeline.Outcome[domain.Enrichment], error) {
	out := make([]domain.Entry[domain.Enrichment], 0, len(entries))
	for _, entry := range entries {
		next, err := g.comment(ctx, entry)
		if err != nil {
			return pipeline.Outcome[domain.Enrichment]{}, err
		}
		out = append(out, next)
	}
	return pipeline.Outcome[domain.Enrichment]{Entries: out}, nil
}

func (g *CommentaryGenerator) comment(ctx context.Context, entry domain.Entry[domain.Enrichment]) (domain.Entry[domain.Enrichment], error) {
	resp, err := g.llm.Complete(ctx, domain.ChatRequest{
		Model:       g.cfg.Model,
		System:      g.system,
		User:        parser.PromptText(entry.Content, g.cfg.MaxPromptChars),
		Temperature: commentaryTemperature,
		Schema: &domain.JSONSchema{
			Name:        "comments",
			Description: "Comments from experts",
			Schema:      &commentarySchema,
		},
	})
	if err != nil {
		return entry, fmt.Errorf("comment on entry %s: %w", entry.ID, err)
	}

	var costBlock *domain.Block
	if resp.Usage != nil {
		cost, err := g.cfg.Rates.Cost(g.cfg.Model, *resp.Usage)
		if err != nil {
			return entry, fmt.Errorf("comment on entry %s: %w", entry.ID, err)
		}
		g.logger.Debug("commentary cost", "entry_id", entry.ID, "usd", cost)
		block := CostBlock(cost, *resp.Usage, g.cfg.Model)
		costBlock = &block
	}

	comments, err := decodeComments(resp)
	if err != nil {
		g.logger.Warn("commentary reply not parsed", "entry_id", entry.ID, "error", err)
		return g.cfg.OnParseFailure(entry, err)
	}
	if len(comments) > g.cfg.MaxComments {
		g.logger.Warn("commentary exceeded limit", "entry_id", entry.ID, "comments", len(comments), "limit", g.cfg.MaxComments)
		comments = comments[:g.cfg.MaxComments]
	}
	if len(comments) == 0 {
		return entry, nil
	}

	blocks := make([]domain.Block, 0, len(comments)+2)
	for _, c := range comments {
		persona, err := g.catalog.ByNumber(c.ExpertNumber)
		if err != nil {
			return entry, pipeline.Fail(g.Name(), fmt.Errorf("entry %s: %w", entry.ID, err))
		}
		blocks = append(blocks, CommentBlock(persona, c.Message))
	}
	if costBlock != nil {
		blocks = append(blocks, *costBlock)
	}
	blocks = append(blocks, domain.DividerBlock())

	return domain.WithExtraBlocks(entry, blocks...), nil
}

func decodeComments(resp domain.ChatResponse) ([]comment, error) {
	if resp.Refusal != "" {
		return nil, fmt.Errorf("%w: refused: %s", ErrUnparsedCommentary, resp.Refusal)
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" || content == "null" {
		return nil, fmt.Errorf("%w: empty reply", ErrUnparsedCommentary)
	}

	var reply commentaryReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparsedCommentary, err)
	}
	if reply.Comments == nil {
		return nil, fmt.Errorf("%w: missing comments", ErrUnparsedCommentary)
	}
	return *reply.Comments, nil
}

// CommentBlock renders one persona comment.
func CommentBlock(persona domain.Commentator, message string) domain.Block {
	return domain.ContextBlock(fmt.Sprintf("*%s*  (%s):\n%s", persona.Name, persona.Field, message))
}

// CostBlock renders the price of one completion.
func CostBlock(cost float64, usage domain.Usage, model string) domain.Block {
	nonCached := usage.PromptTokens - usage.CachedTokens
	return domain.ContextBlock(fmt.Sprintf(
		":moneybag: $%.5f (cached-input: %d, non-cached-input: %d, output: %d, model: %s)",
		cost, usage.CachedTokens, nonCached, usage.CompletionTokens, model))
}

var commentarySchema = jsonschema.Definition{
	Type:                 jsonschema.Object,
	AdditionalProperties: false,
	Required:             []string{"comments"},
	Properties: map[string]jsonschema.Definition{
		"comments": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type:                 jsonschema.Object,
				AdditionalProperties: false,
				Required:             []string{"expertNumber", "message"},
				Properties: map[string]jsonschema.Definition{
					"expertNumber": {Type: jsonschema.Integer},
					"message":      {Type: jsonschema.String},
				},
			},
		},
	},
}

func commentarySystemPrompt(catalog domain.Catalog, language string, maxComments int) string {
	var b strings.Builder
	b.WriteString(`You are an editor working with the experts listed below. Read the article and decide which expert, if any, should summarize it.
You do not have to ask every expert. DO NOT ask experts whose field does not fit the article.
`)
	if maxComments == 1 {
		b.WriteString("If several experts fit, choose the single most suitable one.\n")
	} else {
		fmt.Fprintf(&b, "If several experts fit, choose at most %d of the most suitable ones.\n", maxComments)
	}
	b.WriteString("If no expert fits, return no comments.\n\n")
	fmt.Fprintf(&b, "Comments must be written in %s.\n\n", language)
	b.WriteString(`Style guidelines for each comment:
- Summarize the article in one sentence, then quote the two most important or interesting points other than the title.
- Keep the quotation marks when quoting and make the context of each quote clear.
- Write tersely, like a post on a social news site.
- No polite or honorific padding.
- Do not criticize the article or suggest improvements.
- Do not add personal opinions or impressions, and do not praise the article.
- Readers care about technical and academic points; focus on those when possible.

Commentators:
`)
	for i, c := range catalog.All() {
		fmt.Fprintf(&b, "%d. %s (%s). (%s)\n", i+1, c.Name, c.Field, c.Details)
	}
	return b.String()
}
