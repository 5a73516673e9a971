// Package providers defines the Provider interface and shared data types
// implemented by every AI text-generation backend.
//
// A Provider is constructed from a Config by its plugin factory, validated,
// initialized, and then asked for single messages via GenerateMessage. All
// expected failure modes (timeouts, non-2xx responses, malformed payloads)
// surface as error returns so the client can fail over to the next backend.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default values applied by Config.ApplyDefaults.
const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.7
	DefaultTimeout     = 30 * time.Second
)

// ErrNotInitialized is returned by GenerateMessage when Initialize has not
// been called or has failed. This is a programmer error, not a transport error.
var ErrNotInitialized = errors.New("provider not initialized")

// Provider is the interface all AI provider backends must implement.
type Provider interface {
	// Name returns the configured instance name (e.g. "openrouter").
	Name() string
	// SupportedModels returns the static list of known model IDs.
	SupportedModels() []string
	// ValidateConfig performs a pre-flight structural check of the
	// configuration. Called before Initialize.
	ValidateConfig() error
	// Initialize establishes client/auth state from the configuration.
	// It must not issue network requests.
	Initialize() error
	// GenerateMessage issues one chat-completion request. Transport and API
	// errors are returned as errors, never panics, so failover is a simple
	// error check.
	GenerateMessage(ctx context.Context, systemPrompt, userPrompt string) (*Response, error)
	// HealthCheck is a lightweight liveness probe. It must not mutate state
	// observable by GenerateMessage.
	HealthCheck(ctx context.Context) bool
}

// Config holds the connection settings for one provider instance.
// Optional fields are resolved once by ApplyDefaults, not at call sites.
// Temperature is a pointer so an explicit 0 (deterministic sampling) stays
// distinguishable from unset.
type Config struct {
	Name         string            `json:"name" yaml:"name"`
	APIKey       string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL      string            `json:"base_url" yaml:"base_url"`
	Model        string            `json:"model" yaml:"model"`
	MaxTokens    int               `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature  *float64          `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Timeout      time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	ExtraHeaders map[string]string `json:"extra_headers,omitempty" yaml:"extra_headers,omitempty"`
}

// ApplyDefaults fills unset optional fields with package defaults.
func (c *Config) ApplyDefaults() {
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks the structural invariants common to all providers: name,
// base URL, and model must be set, numeric fields must be in range. API-key
// presence is provider-specific (Bedrock authenticates through the AWS
// credential chain) and checked by each ValidateConfig implementation.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New("provider name is required")
	}
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	if c.MaxTokens <= 0 {
		return errors.New("max_tokens must be positive")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return errors.New("temperature must be between 0 and 2")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// requireAPIKey is the extra validation step for providers that authenticate
// with a bearer token.
func (c Config) requireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("provider %s: API key is required", c.Name)
	}
	return nil
}

// Response is a normalized response from a provider. Produced once per
// successful generation call and never mutated afterwards.
type Response struct {
	Content  string         `json:"content"`
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Usage    map[string]int `json:"usage,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
