package aiticker

import (
	"github.com/ai-ticker/ai-ticker/providers"
)

// Defaults for the cache and dedup policy.
const (
	DefaultFuzzyThreshold   = 85
	DefaultCacheProbability = 0.6
	DefaultMaxCacheSize     = 200
	DefaultRecentLimit      = 3
	DefaultRatePerMinute    = 10
	DefaultCachePath        = "message_cache.json"
)

// Config holds the configuration for the ticker backend.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `json:"server" yaml:"server"`
	// Providers lists the enabled backends in priority order.
	Providers []ProviderSpec `json:"providers" yaml:"providers"`
	// Cache configures the duplicate-avoidance cache.
	Cache CacheConfig `json:"cache" yaml:"cache"`
	// History configures the served-message log (optional).
	History HistoryConfig `json:"history,omitempty" yaml:"history,omitempty"`
	// Prompts are the system and user prompts sent on each generation.
	Prompts PromptConfig `json:"prompts" yaml:"prompts"`
	// Plugins configures custom plugin discovery (optional).
	Plugins PluginSettings `json:"plugins,omitempty" yaml:"plugins,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	// RatePerMinute limits /api/message requests per client IP.
	RatePerMinute int `json:"rate_per_minute,omitempty" yaml:"rate_per_minute,omitempty"`
}

// ProviderSpec binds a plugin name to a provider configuration. Priority is
// list order: the first spec is tried first on every request.
type ProviderSpec struct {
	// Plugin is the registered plugin name backing this provider.
	Plugin string `json:"plugin" yaml:"plugin"`
	// Disabled skips this spec without removing it from the file.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	// Config is the provider connection configuration.
	Config providers.Config `json:"config" yaml:"config"`
}

// CacheConfig configures the message cache and the fuzzy-duplicate policy.
type CacheConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// FuzzyThreshold is the 0-100 similarity score at or above which a
	// candidate counts as a duplicate.
	FuzzyThreshold int `json:"fuzzy_threshold,omitempty" yaml:"fuzzy_threshold,omitempty"`
	// Probability is the per-request chance of trying the cache before any
	// provider. A pointer so an explicit 0 (never serve from cache) stays
	// distinguishable from unset.
	Probability *float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
	MaxSize     int      `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	RecentLimit int      `json:"recent_limit,omitempty" yaml:"recent_limit,omitempty"`
}

// HistoryConfig configures the served-message log. An empty driver disables
// history.
type HistoryConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// PromptConfig holds the prompts sent on each generation request.
type PromptConfig struct {
	System string `json:"system" yaml:"system"`
	User   string `json:"user" yaml:"user"`
}

// PluginSettings configures custom plugin discovery.
type PluginSettings struct {
	// ManifestDir is scanned for custom plugin manifests.
	ManifestDir string `json:"manifest_dir,omitempty" yaml:"manifest_dir,omitempty"`
	// StateFile persists the enabled/disabled plugin set.
	StateFile string `json:"state_file,omitempty" yaml:"state_file,omitempty"`
}

// ApplyDefaults fills zero-valued optional fields with package defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RatePerMinute == 0 {
		c.Server.RatePerMinute = DefaultRatePerMinute
	}
	if c.Cache.Path == "" {
		c.Cache.Path = DefaultCachePath
	}
	if c.Cache.FuzzyThreshold == 0 {
		c.Cache.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if c.Cache.Probability == nil {
		p := DefaultCacheProbability
		c.Cache.Probability = &p
	}
	if c.Cache.MaxSize == 0 {
		c.Cache.MaxSize = DefaultMaxCacheSize
	}
	if c.Cache.RecentLimit == 0 {
		c.Cache.RecentLimit = DefaultRecentLimit
	}
	if c.Prompts.System == "" {
		c.Prompts.System = "You are a concise writer of surprising, true, one-sentence facts."
	}
	if c.Prompts.User == "" {
		c.Prompts.User = "Share one surprising fact in a single short sentence."
	}
	for i := range c.Providers {
		c.Providers[i].Config.ApplyDefaults()
	}
}
