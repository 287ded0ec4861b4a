package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/infrastructure/llm"
)

var requiredArgs = []string{
	"--slack-bot-token=xoxb-1",
	"--miniflux-api-url=https://miniflux.example.com",
	"--miniflux-api-key=mf-key",
	"--openai-api-key=sk-test",
	"--port=8080",
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(requiredArgs)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	if cfg.Scheduler.Interval != 60*time.Second {
		t.Fatalf("unexpected interval: %s", cfg.Scheduler.Interval)
	}
	if cfg.Miniflux.InitialLookback != time.Hour || cfg.Miniflux.PublishedWindow != 24*time.Hour {
		t.Fatalf("unexpected fetch windows: %+v", cfg.Miniflux)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %s", cfg.OpenAI.Model)
	}
	if cfg.Routing.Tag != "for_harukaze_notification" {
		t.Fatalf("unexpected routing tag: %s", cfg.Routing.Tag)
	}
	if cfg.Commentary.Language != "Japanese" || cfg.Commentary.MaxComments != 1 {
		t.Fatalf("unexpected commentary config: %+v", cfg.Commentary)
	}
	if cfg.Commentary.Catalog.Len() == 0 {
		t.Fatalf("embedded catalog not loaded")
	}
	if cfg.Slack.Location() != time.UTC {
		t.Fatalf("expected UTC, got %s", cfg.Slack.Location())
	}
	if cfg.HTTP.Addr() != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.HTTP.Addr())
	}
}

func TestParseFromEnvironment(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-env")
	t.Setenv("MINIFLUX_API_URL", "https://rss.example.com")
	t.Setenv("MINIFLUX_API_KEY", "k")
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("PORT", "9000")
	t.Setenv("FETCH_INTERVAL", "5m")
	t.Setenv("TIMEZONE", "Asia/Tokyo")
	t.Setenv("MAX_COMMENTS", "2")

	cfg, err := parse(nil)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if cfg.Slack.BotToken != "xoxb-env" || cfg.HTTP.Port != "9000" {
		t.Fatalf("environment not applied: %+v", cfg)
	}
	if cfg.Scheduler.Interval != 5*time.Minute {
		t.Fatalf("unexpected interval: %s", cfg.Scheduler.Interval)
	}
	if cfg.Slack.Location().String() != "Asia/Tokyo" {
		t.Fatalf("unexpected location: %s", cfg.Slack.Location())
	}
	if cfg.Commentary.MaxComments != 2 {
		t.Fatalf("unexpected max comments: %d", cfg.Commentary.MaxComments)
	}
}

func TestParseRequiresCredentials(t *testing.T) {
	for _, key := range []string{"SLACK_BOT_TOKEN", "MINIFLUX_API_URL", "MINIFLUX_API_KEY", "OPENAI_API_KEY", "PORT"} {
		if _, ok := os.LookupEnv(key); ok {
			t.Skipf("%s is set in the environment", key)
		}
	}

	_, err := parse([]string{"--port=8080"})
	if err == nil {
		t.Fatalf("expected missing required values to fail")
	}
	if !strings.Contains(err.Error(), "slack-bot-token") {
		t.Fatalf("error should name the missing option: %v", err)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	args := append([]string{"--fetch-interval=0s", "--max-comments=0"}, requiredArgs...)
	_, err := parse(args)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "fetch interval") || !strings.Contains(err.Error(), "max comments") {
		t.Fatalf("expected both problems reported, got %v", err)
	}

	if _, err := parse(append([]string{"--timezone=Mars/Olympus"}, requiredArgs...)); err == nil {
		t.Fatalf("expected unknown timezone to fail")
	}
}

func TestParseRejectsUnpricedModel(t *testing.T) {
	_, err := parse(append([]string{"--openai-model=gpt-3.5-turbo"}, requiredArgs...))
	if !errors.Is(err, llm.ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}

	cfg, err := parse(append([]string{"--openai-model=gpt-4o"}, requiredArgs...))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %s", cfg.OpenAI.Model)
	}
}

func TestParseHelp(t *testing.T) {
	if _, err := parse([]string{"--help"}); !errors.Is(err, ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "commentators.yaml")
	content := "commentators:\n  - name: Ada\n    field: Computing\n    details: engines\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	got, err := catalog.ByNumber(1)
	if err != nil || got != (domain.Commentator{Name: "Ada", Field: "Computing", Details: "engines"}) {
		t.Fatalf("unexpected commentator: %+v, %v", got, err)
	}
}

func TestParseCatalogValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":         "commentators: []\n",
		"missing field": "commentators:\n  - name: Ada\n",
		"not yaml":      "commentators: [",
	}
	for name, raw := range cases {
		if _, err := ParseCatalog([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
