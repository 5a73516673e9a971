package plugin

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ai-ticker/ai-ticker/providers"
)

// FactoryResolver maps a provider type from a manifest to a concrete factory.
// Built-in provider types resolve through plugin/builtin.Lookup.
type FactoryResolver func(providerType string) (Factory, bool)

// Manager controls the plugin lifecycle: discovery, loading, unloading, and
// the enabled/disabled state. It owns the Registry.
type Manager struct {
	mu          sync.Mutex
	registry    *Registry
	builtins    []*Plugin
	resolver    FactoryResolver
	manifestDir string
	stateFile   string
	disabled    map[string]struct{}
	logger      *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithBuiltins sets the built-in plugin set considered by discovery.
func WithBuiltins(plugins []*Plugin) Option {
	return func(m *Manager) { m.builtins = plugins }
}

// WithFactoryResolver sets the resolver used to bind manifest provider types
// to factories.
func WithFactoryResolver(r FactoryResolver) Option {
	return func(m *Manager) { m.resolver = r }
}

// WithManifestDir sets the directory scanned for custom plugin manifests.
func WithManifestDir(dir string) Option {
	return func(m *Manager) { m.manifestDir = dir }
}

// WithStateFile sets the JSON file where the disabled set is persisted.
func WithStateFile(path string) Option {
	return func(m *Manager) { m.stateFile = path }
}

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager with an empty registry and loads any persisted
// disabled set from the state file.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		registry: NewRegistry(),
		disabled: make(map[string]struct{}),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.loadState()
	return m
}

type managerState struct {
	Disabled []string `json:"disabled"`
}

func (m *Manager) loadState() {
	if m.stateFile == "" {
		return
	}
	raw, err := os.ReadFile(m.stateFile)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("failed to read plugin state file", "path", m.stateFile, "error", err)
		}
		return
	}
	var state managerState
	if err := json.Unmarshal(raw, &state); err != nil {
		m.logger.Warn("malformed plugin state file", "path", m.stateFile, "error", err)
		return
	}
	for _, name := range state.Disabled {
		m.disabled[name] = struct{}{}
	}
}

// saveState persists the disabled set. Callers hold m.mu.
func (m *Manager) saveState() {
	if m.stateFile == "" {
		return
	}
	state := managerState{Disabled: make([]string, 0, len(m.disabled))}
	for name := range m.disabled {
		state.Disabled = append(state.Disabled, name)
	}
	sort.Strings(state.Disabled)
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		m.logger.Warn("failed to encode plugin state", "error", err)
		return
	}
	if err := os.WriteFile(m.stateFile, raw, 0o644); err != nil {
		m.logger.Warn("failed to write plugin state file", "path", m.stateFile, "error", err)
	}
}

// Discover returns info for every discoverable plugin: the built-in set plus
// any valid manifests in the manifest directory. A bad manifest is logged and
// skipped without aborting the rest.
func (m *Manager) Discover() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	var infos []Info
	for _, p := range m.builtins {
		infos = append(infos, p.Info())
	}
	for _, p := range m.discoverManifests(m.manifestDir) {
		infos = append(infos, p.Info())
	}
	return infos
}

// discoverManifests builds plugins from every parseable manifest in dir.
// Callers hold m.mu.
func (m *Manager) discoverManifests(dir string) []*Plugin {
	if dir == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		m.logger.Warn("manifest directory scan failed", "dir", dir, "error", err)
		return nil
	}
	sort.Strings(matches)
	var plugins []*Plugin
	for _, path := range matches {
		p, err := m.pluginFromManifest(path)
		if err != nil {
			m.logger.Warn("skipping plugin manifest", "path", path, "error", err)
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins
}

func (m *Manager) pluginFromManifest(path string) (*Plugin, error) {
	manifest, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if m.resolver == nil {
		return nil, fmt.Errorf("no factory resolver configured")
	}
	factory, ok := m.resolver(manifest.ProviderType)
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", manifest.ProviderType)
	}
	return New(manifest.ProviderType, manifest.Metadata, factory), nil
}

// findCandidate locates a loadable plugin by name among the builtins and the
// manifest directory. Callers hold m.mu.
func (m *Manager) findCandidate(name string) (*Plugin, error) {
	for _, p := range m.builtins {
		if p.Meta.Name == name {
			return p, nil
		}
	}
	if m.manifestDir != "" {
		path := filepath.Join(m.manifestDir, name+".json")
		if _, err := os.Stat(path); err == nil {
			return m.pluginFromManifest(path)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// LoadPlugin loads the named plugin into the registry and returns it. Loading
// an already-registered plugin returns the registered instance. Disabled
// plugins refuse to load.
func (m *Manager) LoadPlugin(name string) (*Plugin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(name)
}

func (m *Manager) loadLocked(name string) (*Plugin, error) {
	if _, off := m.disabled[name]; off {
		return nil, fmt.Errorf("plugin %s is disabled", name)
	}
	if p, ok := m.registry.Get(name); ok {
		return p, nil
	}
	p, err := m.findCandidate(name)
	if err != nil {
		return nil, err
	}
	if err := m.registry.Register(name, p); err != nil {
		return nil, err
	}
	m.logger.Info("plugin loaded", "name", name, "provider_type", p.ProviderType)
	return p, nil
}

// LoadAll loads every discoverable plugin, best-effort. The result maps each
// candidate name to its load error (nil on success); one failure never stops
// the rest.
func (m *Manager) LoadAll() map[string]error {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make(map[string]error)
	for _, p := range m.builtins {
		_, err := m.loadLocked(p.Meta.Name)
		results[p.Meta.Name] = err
	}
	for _, p := range m.discoverManifests(m.manifestDir) {
		_, err := m.loadLocked(p.Meta.Name)
		results[p.Meta.Name] = err
	}
	return results
}

// LoadFromDirectory loads every valid manifest in dir and returns the names
// loaded, sorted.
func (m *Manager) LoadFromDirectory(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var loaded []string
	for _, p := range m.discoverManifests(dir) {
		name := p.Meta.Name
		if _, off := m.disabled[name]; off {
			continue
		}
		if m.registry.IsRegistered(name) {
			continue
		}
		if err := m.registry.Register(name, p); err != nil {
			m.logger.Warn("failed to register plugin", "name", name, "error", err)
			continue
		}
		loaded = append(loaded, name)
	}
	sort.Strings(loaded)
	return loaded, nil
}

// Unload removes the named plugin from the registry.
func (m *Manager) Unload(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.registry.Unregister(name); err != nil {
		return err
	}
	m.logger.Info("plugin unloaded", "name", name)
	return nil
}

// Reload unloads and re-loads the named plugin. If the load step fails, the
// previously registered plugin is restored so the registry never ends up with
// a dangling entry.
func (m *Manager) Reload(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	if err := m.registry.Unregister(name); err != nil {
		return err
	}
	if _, err := m.loadLocked(name); err != nil {
		if regErr := m.registry.Register(name, old); regErr != nil {
			m.logger.Error("failed to restore plugin after reload failure", "name", name, "error", regErr)
		}
		return fmt.Errorf("reload %s: %w", name, err)
	}
	return nil
}

// Enable removes the plugin from the disabled set. Idempotent.
func (m *Manager) Enable(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, off := m.disabled[name]; !off {
		return
	}
	delete(m.disabled, name)
	m.saveState()
}

// Disable adds the plugin to the disabled set and unloads it if loaded.
// Idempotent.
func (m *Manager) Disable(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, off := m.disabled[name]; off {
		return
	}
	m.disabled[name] = struct{}{}
	if m.registry.IsRegistered(name) {
		_ = m.registry.Unregister(name)
	}
	m.saveState()
}

// IsDisabled reports whether the named plugin is in the disabled set.
func (m *Manager) IsDisabled(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, off := m.disabled[name]
	return off
}

// PluginList returns info snapshots of all loaded plugins, sorted by name.
func (m *Manager) PluginList() []Info {
	all := m.registry.All()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		infos = append(infos, all[name].Info())
	}
	return infos
}

// Registry exposes the underlying registry for read access.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// CreateProvider builds an uninitialized provider from the named loaded
// plugin.
func (m *Manager) CreateProvider(name string, cfg providers.Config) (providers.Provider, error) {
	p, ok := m.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return p.CreateProvider(cfg)
}
