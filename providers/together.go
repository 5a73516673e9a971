package providers

import "context"

// TogetherProvider implements the Provider interface for Together AI's
// OpenAI-compatible chat-completions endpoint.
type TogetherProvider struct {
	Base
	chat *chatCompleter
}

// NewTogether creates a Together AI provider from cfg. Empty name and base
// URL fall back to the provider defaults; remaining optional fields are
// resolved by ApplyDefaults.
func NewTogether(cfg Config) (Provider, error) {
	if cfg.Name == "" {
		cfg.Name = "together"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.together.xyz/v1"
	}
	cfg.ApplyDefaults()
	return &TogetherProvider{Base: Base{cfg: cfg}}, nil
}

// SupportedModels returns well-known Together model IDs. The upstream API
// validates model names, so unknown models are not rejected locally.
func (p *TogetherProvider) SupportedModels() []string {
	return []string{
		"meta-llama/Llama-3.1-70B-Instruct-Turbo",
		"meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo",
		"mistralai/Mixtral-8x7B-Instruct-v0.1",
		"Qwen/Qwen2.5-72B-Instruct-Turbo",
	}
}

// ValidateConfig checks the shared invariants plus API-key presence.
func (p *TogetherProvider) ValidateConfig() error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}
	return p.cfg.requireAPIKey()
}

// Initialize prepares the HTTP client. It fails on invalid configuration and
// issues no network requests.
func (p *TogetherProvider) Initialize() error {
	if err := p.ValidateConfig(); err != nil {
		return err
	}
	p.chat = newChatCompleter(p.cfg)
	return nil
}

// GenerateMessage sends one chat-completion request.
func (p *TogetherProvider) GenerateMessage(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	if p.chat == nil {
		return nil, ErrNotInitialized
	}
	return p.chat.complete(ctx, systemPrompt, userPrompt)
}

// HealthCheck probes the endpoint with a minimal completion.
func (p *TogetherProvider) HealthCheck(ctx context.Context) bool {
	return p.chat != nil && p.chat.probe(ctx)
}
