package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenRouterProvider implements the Provider interface for OpenRouter.
// OpenRouter speaks the OpenAI chat-completions dialect, so it rides on the
// official SDK with an overridden base URL.
type OpenRouterProvider struct {
	Base
	client *openai.Client
}

// NewOpenRouter creates an OpenRouter provider from cfg.
func NewOpenRouter(cfg Config) (Provider, error) {
	if cfg.Name == "" {
		cfg.Name = "openrouter"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	cfg.ApplyDefaults()
	return &OpenRouterProvider{Base: Base{cfg: cfg}}, nil
}

// SupportedModels returns a representative set of free-tier routes. OpenRouter
// fronts hundreds of models; the real catalog lives upstream.
func (p *OpenRouterProvider) SupportedModels() []string {
	return []string{
		"deepseek/deepseek-chat",
		"meta-llama/llama-3.1-70b-instruct",
		"mistralai/mistral-7b-instruct",
		"qwen/qwen-2.5-72b-instruct",
	}
}

func (p *OpenRouterProvider) ValidateConfig() error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}
	return p.cfg.requireAPIKey()
}

// Initialize builds the SDK client. The referer and title headers identify
// the app in OpenRouter's dashboards and can be overridden via extra_headers.
func (p *OpenRouterProvider) Initialize() error {
	if err := p.ValidateConfig(); err != nil {
		return err
	}
	opts := []option.RequestOption{
		option.WithAPIKey(p.cfg.APIKey),
		option.WithBaseURL(p.cfg.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: p.cfg.Timeout}),
	}
	for k, v := range p.cfg.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}
	client := openai.NewClient(opts...)
	p.client = &client
	return nil
}

// GenerateMessage sends one chat-completion request through the SDK.
func (p *OpenRouterProvider) GenerateMessage(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	if p.client == nil {
		return nil, ErrNotInitialized
	}
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model: p.cfg.Model,
	}
	params.MaxTokens = openai.Int(int64(p.cfg.MaxTokens))
	if p.cfg.Temperature != nil {
		params.Temperature = openai.Float(*p.cfg.Temperature)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.cfg.Name, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices in response", p.cfg.Name)
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("%s: empty content in response", p.cfg.Name)
	}

	return &Response{
		Content:  content,
		Provider: p.cfg.Name,
		Model:    completion.Model,
		Usage: map[string]int{
			"prompt_tokens":     int(completion.Usage.PromptTokens),
			"completion_tokens": int(completion.Usage.CompletionTokens),
			"total_tokens":      int(completion.Usage.TotalTokens),
		},
		Metadata: map[string]any{
			"response_id":   completion.ID,
			"created":       completion.Created,
			"finish_reason": string(completion.Choices[0].FinishReason),
		},
	}, nil
}

// HealthCheck issues a one-token completion through the SDK.
func (p *OpenRouterProvider) HealthCheck(ctx context.Context) bool {
	if p.client == nil {
		return false
	}
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello"),
		},
		Model: p.cfg.Model,
	}
	params.MaxTokens = openai.Int(1)
	_, err := p.client.Chat.Completions.New(ctx, params)
	return err == nil
}
