package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/ports"
)

// DefaultModel is used when a request names no model.
const DefaultModel = openai.GPT4oMini

// Config defines how to contact the OpenAI API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient implements ports.ChatCompleter backed by OpenAI-compatible APIs.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

var _ ports.ChatCompleter = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Model returns the configured default model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends one system+user exchange and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	request := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}

	if req.Schema != nil {
		schema, err := schemaMarshaler(req.Schema.Schema)
		if err != nil {
			return domain.ChatResponse{}, fmt.Errorf("encode schema %s: %w", req.Schema.Name, err)
		}
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      schema,
				Strict:      true,
			},
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.ChatResponse{}, errors.New("chat completion returned no choices")
	}

	out := domain.ChatResponse{
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
		Refusal: resp.Choices[0].Message.Refusal,
	}
	if out.Model == "" {
		out.Model = model
	}
	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		usage := &domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}
		if details := resp.Usage.PromptTokensDetails; details != nil {
			usage.CachedTokens = details.CachedTokens
		}
		out.Usage = usage
	}
	return out, nil
}

func schemaMarshaler(schema any) (json.Marshaler, error) {
	if m, ok := schema.(json.Marshaler); ok {
		return m, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}
