package providers

// Base provides the common fields and accessors shared by provider
// implementations. Embed this struct to avoid repeating name and config
// handling across providers.
type Base struct {
	cfg Config
}

// Name returns the configured provider instance name.
func (b *Base) Name() string { return b.cfg.Name }

// Config returns a copy of the provider configuration.
func (b *Base) Config() Config { return b.cfg }

// ValidateConfig runs the generic structural checks. Providers with extra
// requirements (API key, region) shadow this method.
func (b *Base) ValidateConfig() error { return b.cfg.Validate() }

// Info is a read-only descriptive snapshot of a provider instance, exposed
// through the client's administrative endpoints.
type Info struct {
	Name            string   `json:"name"`
	Model           string   `json:"model"`
	BaseURL         string   `json:"base_url"`
	SupportedModels []string `json:"supported_models"`
	MaxTokens       int      `json:"max_tokens"`
	TimeoutSeconds  int      `json:"timeout_seconds"`
}

// Describe builds an Info snapshot for any provider.
func Describe(p Provider) Info {
	info := Info{
		Name:            p.Name(),
		SupportedModels: p.SupportedModels(),
	}
	if c, ok := p.(interface{ Config() Config }); ok {
		cfg := c.Config()
		info.Model = cfg.Model
		info.BaseURL = cfg.BaseURL
		info.MaxTokens = cfg.MaxTokens
		info.TimeoutSeconds = int(cfg.Timeout.Seconds())
	}
	return info
}
