package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/infrastructure/llm"
)

const defaultTimezone = "UTC"

// Version is set at build time via -ldflags.
var Version = "dev"

type rawConfig struct {
	SlackBotToken     string `long:"slack-bot-token" env:"SLACK_BOT_TOKEN" required:"true" description:"Slack bot token"`
	SlackAlertChannel string `long:"slack-alert-channel" env:"SLACK_ALERT_CHANNEL" description:"Channel id receiving failure alerts (disabled when empty)"`
	SlackAPIURL       string `long:"slack-api-url" env:"SLACK_API_URL" description:"Override of the Slack Web API base URL"`

	MinifluxAPIURL string `long:"miniflux-api-url" env:"MINIFLUX_API_URL" required:"true" description:"Miniflux base URL"`
	MinifluxAPIKey string `long:"miniflux-api-key" env:"MINIFLUX_API_KEY" required:"true" description:"Miniflux API token"`

	OpenAIAPIKey  string `long:"openai-api-key" env:"OPENAI_API_KEY" required:"true" description:"OpenAI API key"`
	OpenAIBaseURL string `long:"openai-base-url" env:"OPENAI_BASE_URL" description:"OpenAI-compatible API base URL"`
	OpenAIModel   string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"Chat model for routing and commentary"`

	Port string `long:"port" env:"PORT" required:"true" description:"HTTP status server port"`

	FetchInterval   time.Duration `long:"fetch-interval" env:"FETCH_INTERVAL" default:"60s" description:"Delay between pipeline runs"`
	InitialLookback time.Duration `long:"initial-lookback" env:"INITIAL_LOOKBACK" default:"1h" description:"Changed-since window of the first fetch"`
	PublishedWindow time.Duration `long:"published-window" env:"PUBLISHED_WINDOW" default:"24h" description:"Only entries published within this window are fetched (0 disables)"`

	RoutingTag       string `long:"routing-tag" env:"ROUTING_TAG" default:"for_harukaze_notification" description:"Channel topic marker for eligible channels"`
	CommentatorsFile string `long:"commentators-file" env:"COMMENTATORS_FILE" description:"YAML commentator catalog (embedded default when empty)"`
	CommentLanguage  string `long:"comment-language" env:"COMMENT_LANGUAGE" default:"Japanese" description:"Language of generated commentary"`
	MaxComments      int    `long:"max-comments" env:"MAX_COMMENTS" default:"1" description:"Maximum comments per entry"`
	MaxPromptChars   int    `long:"max-prompt-chars" env:"MAX_PROMPT_CHARS" default:"8000" description:"Entry content is truncated to this many characters in prompts"`

	Timezone  string `long:"timezone" env:"TIMEZONE" default:"UTC" description:"Timezone for rendered timestamps"`
	LogLevel  string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"debug, info, warn or error"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" default:"text" description:"text or json"`

	Once bool `long:"once" env:"RUN_ONCE" description:"Run the pipeline once and exit"`
}

// Config holds high-level settings required across the application.
type Config struct {
	Slack      SlackConfig
	Miniflux   MinifluxConfig
	OpenAI     OpenAIConfig
	Scheduler  SchedulerConfig
	Routing    RoutingConfig
	Commentary CommentaryConfig
	HTTP       HTTPConfig
	Logging    LoggingConfig
	Version    string
	// Once runs a single pass instead of the schedule.
	Once bool
}

// SlackConfig wires all data required to post messages.
type SlackConfig struct {
	BotToken     string
	AlertChannel string
	APIURL       string
	location     *time.Location
}

// Location resolves the configured timezone.
func (s SlackConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// MinifluxConfig describes the upstream aggregator.
type MinifluxConfig struct {
	APIURL          string
	APIKey          string
	InitialLookback time.Duration
	PublishedWindow time.Duration
}

// OpenAIConfig defines how to contact the OpenAI API.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// SchedulerConfig defines when the pipeline runs.
type SchedulerConfig struct {
	Interval time.Duration
}

// RoutingConfig tunes channel selection.
type RoutingConfig struct {
	Tag            string
	MaxPromptChars int
}

// CommentaryConfig tunes persona commentary.
type CommentaryConfig struct {
	Language       string
	MaxComments    int
	MaxPromptChars int
	Catalog        domain.Catalog
}

// HTTPConfig describes the status server.
type HTTPConfig struct {
	Port string
}

// Addr is the listen address.
func (h HTTPConfig) Addr() string {
	return ":" + strings.TrimPrefix(h.Port, ":")
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// ErrHelp is returned when usage was requested.
var ErrHelp = errors.New("help requested")

// Load reads an optional .env file, then environment variables and args.
// Values already present in the environment win over .env.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return parse(args)
}

func parse(args []string) (Config, error) {
	var raw rawConfig
	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			return Config{}, ErrHelp
		}
		return Config{}, fmt.Errorf("parse configuration: %w", err)
	}

	if err := raw.validate(); err != nil {
		return Config{}, err
	}

	loc, err := time.LoadLocation(raw.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("timezone %q: %w", raw.Timezone, err)
	}

	catalog, err := LoadCatalog(raw.CommentatorsFile)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Slack: SlackConfig{
			BotToken:     raw.SlackBotToken,
			AlertChannel: raw.SlackAlertChannel,
			APIURL:       raw.SlackAPIURL,
			location:     loc,
		},
		Miniflux: MinifluxConfig{
			APIURL:          raw.MinifluxAPIURL,
			APIKey:          raw.MinifluxAPIKey,
			InitialLookback: raw.InitialLookback,
			PublishedWindow: raw.PublishedWindow,
		},
		OpenAI: OpenAIConfig{
			APIKey:  raw.OpenAIAPIKey,
			BaseURL: raw.OpenAIBaseURL,
			Model:   raw.OpenAIModel,
		},
		Scheduler: SchedulerConfig{Interval: raw.FetchInterval},
		Routing: RoutingConfig{
			Tag:            raw.RoutingTag,
			MaxPromptChars: raw.MaxPromptChars,
		},
		Commentary: CommentaryConfig{
			Language:       raw.CommentLanguage,
			MaxComments:    raw.MaxComments,
			MaxPromptChars: raw.MaxPromptChars,
			Catalog:        catalog,
		},
		HTTP:    HTTPConfig{Port: raw.Port},
		Logging: LoggingConfig{Level: raw.LogLevel, Format: raw.LogFormat},
		Version: Version,
		Once:    raw.Once,
	}, nil
}

func (r rawConfig) validate() error {
	var errs []error
	if r.FetchInterval <= 0 {
		errs = append(errs, fmt.Errorf("fetch interval must be positive, got %s", r.FetchInterval))
	}
	if r.InitialLookback <= 0 {
		errs = append(errs, fmt.Errorf("initial lookback must be positive, got %s", r.InitialLookback))
	}
	if r.PublishedWindow < 0 {
		errs = append(errs, fmt.Errorf("published window must not be negative, got %s", r.PublishedWindow))
	}
	if r.MaxComments < 1 {
		errs = append(errs, fmt.Errorf("max comments must be at least 1, got %d", r.MaxComments))
	}
	if strings.TrimSpace(r.RoutingTag) == "" {
		errs = append(errs, errors.New("routing tag must not be empty"))
	}
	if !llm.DefaultRates().Supports(r.OpenAIModel) {
		errs = append(errs, fmt.Errorf("openai model %q: %w", r.OpenAIModel, llm.ErrUnsupportedModel))
	}
	return errors.Join(errs...)
}
