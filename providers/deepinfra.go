package providers

import "context"

// DeepInfraProvider implements the Provider interface for DeepInfra's
// OpenAI-compatible inference endpoint.
type DeepInfraProvider struct {
	Base
	chat *chatCompleter
}

// NewDeepInfra creates a DeepInfra provider from cfg.
func NewDeepInfra(cfg Config) (Provider, error) {
	if cfg.Name == "" {
		cfg.Name = "deepinfra"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepinfra.com/v1/openai"
	}
	cfg.ApplyDefaults()
	return &DeepInfraProvider{Base: Base{cfg: cfg}}, nil
}

func (p *DeepInfraProvider) SupportedModels() []string {
	return []string{
		"meta-llama/Meta-Llama-3.1-70B-Instruct",
		"meta-llama/Meta-Llama-3.1-8B-Instruct",
		"mistralai/Mistral-7B-Instruct-v0.3",
		"microsoft/WizardLM-2-8x22B",
	}
}

func (p *DeepInfraProvider) ValidateConfig() error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}
	return p.cfg.requireAPIKey()
}

func (p *DeepInfraProvider) Initialize() error {
	if err := p.ValidateConfig(); err != nil {
		return err
	}
	p.chat = newChatCompleter(p.cfg)
	return nil
}

func (p *DeepInfraProvider) GenerateMessage(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	if p.chat == nil {
		return nil, ErrNotInitialized
	}
	return p.chat.complete(ctx, systemPrompt, userPrompt)
}

func (p *DeepInfraProvider) HealthCheck(ctx context.Context) bool {
	return p.chat != nil && p.chat.probe(ctx)
}
