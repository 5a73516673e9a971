// Package aiticker implements the message backend for the ticker dashboard:
// a plugin-managed set of AI providers tried in priority order, combined with
// a persistent fuzzy-duplicate cache that decides when a previously served
// message can be reused instead of paying for a fresh generation.
package aiticker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ai-ticker/ai-ticker/internal/breaker"
	"github.com/ai-ticker/ai-ticker/internal/cache"
	"github.com/ai-ticker/ai-ticker/internal/fuzzy"
	"github.com/ai-ticker/ai-ticker/internal/history"
	"github.com/ai-ticker/ai-ticker/internal/logging"
	"github.com/ai-ticker/ai-ticker/internal/metrics"
	"github.com/ai-ticker/ai-ticker/plugin"
	"github.com/ai-ticker/ai-ticker/plugin/builtin"
	"github.com/ai-ticker/ai-ticker/providers"
)

// ErrNoMessage is returned when every provider failed or produced only
// duplicates and the cache holds no acceptable fallback. The web layer
// decides the user-visible behavior.
var ErrNoMessage = errors.New("no message available")

// Message is one served message with its origin.
type Message struct {
	Content  string `json:"content"`
	Source   string `json:"source"` // "cache" or "provider"
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// activeProvider is one entry of the failover rotation.
type activeProvider struct {
	name     string
	provider providers.Provider
	gate     *breaker.Gate

	initMu      sync.Mutex
	initialized bool
	initErr     error
}

// initialize runs Initialize once; later calls return the first outcome.
func (a *activeProvider) initialize() error {
	a.initMu.Lock()
	defer a.initMu.Unlock()
	if a.initialized {
		return a.initErr
	}
	a.initialized = true
	a.initErr = a.provider.Initialize()
	return a.initErr
}

// Client is the orchestration façade used by the web layer. It owns the
// plugin manager, the provider rotation, and the dedup cache.
type Client struct {
	cfg     *Config
	manager *plugin.Manager
	store   *cache.Store
	history history.Recorder

	mu     sync.RWMutex // guards active
	active []*activeProvider

	rngMu sync.Mutex
	randF func() float64 // test hook
	randN func(n int) int
}

// New builds a Client from cfg: loads the built-in plugins (plus any custom
// manifests), constructs one provider per enabled spec, and opens the cache
// and history stores.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	cfg.ApplyDefaults()
	if err := ValidateConfig(*cfg); err != nil {
		return nil, err
	}

	manager := plugin.NewManager(
		plugin.WithBuiltins(builtin.All()),
		plugin.WithFactoryResolver(builtin.Lookup),
		plugin.WithManifestDir(cfg.Plugins.ManifestDir),
		plugin.WithStateFile(cfg.Plugins.StateFile),
	)

	store, err := cache.New(cfg.Cache.Path, cfg.Cache.MaxSize, cfg.Cache.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("opening message cache: %w", err)
	}

	var recorder history.Recorder = history.NoopRecorder{}
	switch cfg.History.Driver {
	case "sqlite":
		recorder, err = history.NewSQLite(cfg.History.DSN)
	case "postgres":
		recorder, err = history.NewPostgres(cfg.History.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	c := &Client{
		cfg:     cfg,
		manager: manager,
		store:   store,
		history: recorder,
		randF:   rng.Float64,
		randN:   rng.Intn,
	}
	if err := c.buildProviders(); err != nil {
		_ = recorder.Close()
		return nil, err
	}
	metrics.CacheSize.Set(float64(store.Len()))
	return c, nil
}

// buildProviders constructs the provider rotation from the configured specs.
// A spec whose plugin fails to load or whose provider fails construction is
// logged and skipped; the process only fails when nothing at all loads.
func (c *Client) buildProviders() error {
	var active []*activeProvider
	for _, spec := range c.cfg.Providers {
		if spec.Disabled {
			continue
		}
		if _, err := c.manager.LoadPlugin(spec.Plugin); err != nil {
			logging.Logger.Warn("skipping provider: plugin load failed",
				"plugin", spec.Plugin, "error", err)
			continue
		}
		prov, err := c.manager.CreateProvider(spec.Plugin, spec.Config)
		if err != nil {
			logging.Logger.Warn("skipping provider: construction failed",
				"plugin", spec.Plugin, "error", err)
			continue
		}
		active = append(active, &activeProvider{
			name:     prov.Name(),
			provider: prov,
			gate:     breaker.NewGate(0, 0),
		})
	}
	if len(active) == 0 {
		return errors.New("no provider could be loaded")
	}
	c.mu.Lock()
	c.active = active
	c.mu.Unlock()
	return nil
}

// snapshot returns the current rotation. Callers iterate the returned slice
// so a concurrent reload cannot expose a half-replaced set.
func (c *Client) snapshot() []*activeProvider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*activeProvider, len(c.active))
	copy(out, c.active)
	return out
}

// GetMessage returns one message for the ticker. Empty prompts fall back to
// the configured defaults; fuzzyThreshold <= 0 falls back to the configured
// threshold.
//
// Policy: with the configured probability, a cached message not in the
// recent list and not fuzzy-similar to existingMessages is served without
// any provider call. Otherwise providers are tried in priority order; a
// response too similar to existingMessages or the recent list is a soft
// failure and the next provider is tried. An accepted message is cached,
// pushed onto the recent list, persisted, and recorded in history.
func (c *Client) GetMessage(ctx context.Context, systemPrompt, userPrompt string, existingMessages []string, fuzzyThreshold int) (*Message, error) {
	if systemPrompt == "" {
		systemPrompt = c.cfg.Prompts.System
	}
	if userPrompt == "" {
		userPrompt = c.cfg.Prompts.User
	}
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = c.cfg.Cache.FuzzyThreshold
	}
	log := logging.FromContext(ctx)

	if msg := c.tryCache(existingMessages, fuzzyThreshold); msg != "" {
		metrics.MessagesServed.WithLabelValues("cache", "").Inc()
		if err := c.history.Record(ctx, history.Entry{Content: msg, Source: "cache"}); err != nil {
			log.Warn("history record failed", "error", err)
		}
		log.Debug("served from cache")
		return &Message{Content: msg, Source: "cache"}, nil
	}

	for _, ap := range c.snapshot() {
		if !ap.gate.Allow() {
			metrics.ProviderRequests.WithLabelValues(ap.name, "blocked").Inc()
			continue
		}
		if err := ap.initialize(); err != nil {
			log.Warn("provider initialization failed", "provider", ap.name, "error", err)
			ap.gate.Failure()
			metrics.ProviderRequests.WithLabelValues(ap.name, "error").Inc()
			continue
		}

		start := time.Now()
		resp, err := ap.provider.GenerateMessage(ctx, systemPrompt, userPrompt)
		metrics.ProviderLatency.WithLabelValues(ap.name).Observe(time.Since(start).Seconds())
		if err != nil {
			log.Warn("provider request failed", "provider", ap.name, "error", err)
			ap.gate.Failure()
			metrics.ProviderRequests.WithLabelValues(ap.name, "error").Inc()
			continue
		}
		ap.gate.Success()

		if fuzzy.TooSimilar(resp.Content, existingMessages, fuzzyThreshold) ||
			fuzzy.TooSimilar(resp.Content, c.store.Recent(), fuzzyThreshold) {
			log.Debug("rejecting near-duplicate response", "provider", ap.name)
			metrics.FuzzyRejections.Inc()
			metrics.ProviderRequests.WithLabelValues(ap.name, "duplicate").Inc()
			continue
		}

		if err := c.store.Add(resp.Content); err != nil {
			log.Warn("cache persist failed", "error", err)
		}
		metrics.CacheSize.Set(float64(c.store.Len()))
		metrics.ProviderRequests.WithLabelValues(ap.name, "success").Inc()
		metrics.MessagesServed.WithLabelValues("provider", ap.name).Inc()
		if err := c.history.Record(ctx, history.Entry{
			Content:          resp.Content,
			Source:           "provider",
			Provider:         resp.Provider,
			Model:            resp.Model,
			PromptTokens:     resp.Usage["prompt_tokens"],
			CompletionTokens: resp.Usage["completion_tokens"],
		}); err != nil {
			log.Warn("history record failed", "error", err)
		}
		return &Message{
			Content:  resp.Content,
			Source:   "provider",
			Provider: resp.Provider,
			Model:    resp.Model,
		}, nil
	}

	return nil, ErrNoMessage
}

// tryCache rolls the cache-probability dice and, on a hit, picks a random
// cached message that is outside the recent list and not fuzzy-similar to
// existing. Returns "" when the cache should be skipped.
func (c *Client) tryCache(existing []string, threshold int) string {
	if c.store.Len() == 0 {
		return ""
	}
	c.rngMu.Lock()
	roll := c.randF()
	c.rngMu.Unlock()
	if roll >= *c.cfg.Cache.Probability {
		return ""
	}

	recent := c.store.Recent()
	var eligible []string
	for _, msg := range c.store.Messages() {
		if contains(recent, msg) {
			continue
		}
		if fuzzy.TooSimilar(msg, existing, threshold) {
			continue
		}
		eligible = append(eligible, msg)
	}
	if len(eligible) == 0 {
		return ""
	}
	c.rngMu.Lock()
	msg := eligible[c.randN(len(eligible))]
	c.rngMu.Unlock()
	if err := c.store.MarkServed(msg); err != nil {
		logging.Logger.Warn("cache persist failed", "error", err)
	}
	return msg
}

// HealthCheckAll probes every provider in the rotation. The provider list is
// snapshotted at call start, so a concurrent reload cannot produce a partial
// view. A failed initialization counts as unhealthy.
func (c *Client) HealthCheckAll(ctx context.Context) map[string]bool {
	results := make(map[string]bool)
	for _, ap := range c.snapshot() {
		healthy := ap.initialize() == nil && ap.provider.HealthCheck(ctx)
		results[ap.name] = healthy
		v := 0.0
		if healthy {
			v = 1.0
		}
		metrics.ProviderHealthy.WithLabelValues(ap.name).Set(v)
	}
	return results
}

// AvailableProviders returns the provider names in priority order.
func (c *Client) AvailableProviders() []string {
	aps := c.snapshot()
	names := make([]string, len(aps))
	for i, ap := range aps {
		names[i] = ap.name
	}
	return names
}

// ProviderInfo returns descriptive snapshots keyed by provider name.
func (c *Client) ProviderInfo() map[string]providers.Info {
	out := make(map[string]providers.Info)
	for _, ap := range c.snapshot() {
		out[ap.name] = providers.Describe(ap.provider)
	}
	return out
}

// AddCustomProvider loads the named plugin, builds a provider from the given
// config, and appends it to the end of the rotation.
func (c *Client) AddCustomProvider(spec ProviderSpec) error {
	if spec.Plugin == "" {
		return errors.New("plugin name is required")
	}
	if _, err := c.manager.LoadPlugin(spec.Plugin); err != nil {
		return err
	}
	prov, err := c.manager.CreateProvider(spec.Plugin, spec.Config)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.active = append(c.active, &activeProvider{
		name:     prov.Name(),
		provider: prov,
		gate:     breaker.NewGate(0, 0),
	})
	c.mu.Unlock()
	return nil
}

// ReloadProviders re-runs plugin loading and replaces the rotation without a
// process restart. In-flight requests keep the snapshot they started with.
func (c *Client) ReloadProviders() error {
	return c.buildProviders()
}

// PluginList returns info snapshots of all loaded plugins.
func (c *Client) PluginList() []plugin.Info {
	return c.manager.PluginList()
}

// Manager exposes the plugin manager for administrative use.
func (c *Client) Manager() *plugin.Manager {
	return c.manager
}

// History exposes the served-message recorder.
func (c *Client) History() history.Recorder {
	return c.history
}

// Close persists the cache and releases the history store.
func (c *Client) Close() error {
	var errs []error
	if err := c.store.Persist(); err != nil {
		errs = append(errs, err)
	}
	if err := c.history.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
