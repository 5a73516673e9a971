package aiticker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ai-ticker/ai-ticker/providers"
)

// LoadConfig reads and parses a config file from the given path.
// Supported formats: JSON (.json), YAML (.yaml, .yml). Values of the form
// ${VAR} are expanded from the environment before parsing, so API keys stay
// out of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	data = []byte(expandEnv(string(data)))

	var cfg Config
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// expandEnv substitutes ${VAR} references. Unlike os.ExpandEnv it leaves
// bare $VAR untouched, so Postgres DSNs and shell-looking strings survive.
func expandEnv(s string) string {
	return os.Expand(s, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "${" + name + "}"
	})
}

// DefaultConfig builds a configuration from environment variables alone: one
// provider per recognized API key, in a fixed priority order. Used when no
// config file is supplied.
func DefaultConfig() *Config {
	cfg := &Config{}

	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		cfg.Providers = append(cfg.Providers, ProviderSpec{
			Plugin: "openrouter",
			Config: providerEnvConfig("openrouter", key, os.Getenv("OPENROUTER_MODEL"), "deepseek/deepseek-chat"),
		})
	}
	if key := os.Getenv("TOGETHER_API_KEY"); key != "" {
		cfg.Providers = append(cfg.Providers, ProviderSpec{
			Plugin: "together",
			Config: providerEnvConfig("together", key, os.Getenv("TOGETHER_MODEL"), "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo"),
		})
	}
	if key := os.Getenv("DEEPINFRA_API_KEY"); key != "" {
		cfg.Providers = append(cfg.Providers, ProviderSpec{
			Plugin: "deepinfra",
			Config: providerEnvConfig("deepinfra", key, os.Getenv("DEEPINFRA_MODEL"), "meta-llama/Meta-Llama-3.1-8B-Instruct"),
		})
	}
	if region := os.Getenv("BEDROCK_REGION"); region != "" {
		model := os.Getenv("BEDROCK_MODEL")
		if model == "" {
			model = "anthropic.claude-3-haiku-20240307-v1:0"
		}
		spec := ProviderSpec{Plugin: "bedrock"}
		spec.Config.Name = "bedrock"
		spec.Config.Model = model
		spec.Config.ExtraHeaders = map[string]string{"region": region}
		cfg.Providers = append(cfg.Providers, spec)
	}

	cfg.ApplyDefaults()
	return cfg
}

func providerEnvConfig(name, key, model, defaultModel string) (cfg providers.Config) {
	if model == "" {
		model = defaultModel
	}
	cfg.Name = name
	cfg.APIKey = key
	cfg.Model = model
	return cfg
}

// ValidateConfig validates a Config for correctness. Provider connection
// details are validated later by each provider's ValidateConfig; this guards
// the settings the core itself consumes.
func ValidateConfig(cfg Config) error {
	active := 0
	for i, spec := range cfg.Providers {
		if spec.Plugin == "" {
			return fmt.Errorf("provider %d: plugin name is required", i)
		}
		if !spec.Disabled {
			active++
		}
	}
	if active == 0 {
		return fmt.Errorf("at least one enabled provider is required")
	}
	if cfg.Cache.FuzzyThreshold < 1 || cfg.Cache.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy_threshold must be between 1 and 100")
	}
	if cfg.Cache.Probability != nil && (*cfg.Cache.Probability < 0 || *cfg.Cache.Probability > 1) {
		return fmt.Errorf("cache probability must be between 0 and 1")
	}
	if cfg.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache max_size must be positive")
	}
	if cfg.Cache.RecentLimit <= 0 {
		return fmt.Errorf("cache recent_limit must be positive")
	}
	switch cfg.History.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown history driver: %q", cfg.History.Driver)
	}
	return nil
}
