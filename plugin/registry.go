package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry sentinel errors.
var (
	ErrPluginExists   = errors.New("plugin already registered")
	ErrPluginNotFound = errors.New("plugin not found")
)

// Registry is a thread-safe store of plugins keyed by name. Registering an
// existing name fails without mutating state; last-writer-wins is rejected to
// avoid silently shadowing a plugin.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]*Plugin)}
}

// Register adds a plugin under name. Returns ErrPluginExists if the name is
// taken; the existing entry is left untouched.
func (r *Registry) Register(name string, p *Plugin) error {
	if p == nil {
		return errors.New("plugin is nil")
	}
	if err := r.ValidatePlugin(p); err != nil {
		return fmt.Errorf("plugin %s: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[name]; ok {
		return fmt.Errorf("%w: %s", ErrPluginExists, name)
	}
	r.plugins[name] = p
	return nil
}

// Unregister removes the named plugin. Returns ErrPluginNotFound if absent.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[name]; !ok {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	delete(r.plugins, name)
	return nil
}

// Get returns the named plugin.
func (r *Registry) Get(name string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// IsRegistered reports whether name is present.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[name]
	return ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Clear removes every plugin.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = make(map[string]*Plugin)
}

// All returns a copy of the name-to-plugin mapping.
func (r *Registry) All() map[string]*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Plugin, len(r.plugins))
	for name, p := range r.plugins {
		out[name] = p
	}
	return out
}

// FindByProviderType returns the names of plugins backed by the given
// provider type, sorted.
func (r *Registry) FindByProviderType(providerType string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, p := range r.plugins {
		if p.ProviderType == providerType {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FindByMetadata returns the names of plugins whose metadata field key equals
// value. Supported keys: name, version, author, category, feature (matches
// any declared feature tag).
func (r *Registry) FindByMetadata(key, value string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, p := range r.plugins {
		var match bool
		switch key {
		case "name":
			match = p.Meta.Name == value
		case "version":
			match = p.Meta.Version == value
		case "author":
			match = p.Meta.Author == value
		case "category":
			match = string(p.Meta.Category) == value
		case "feature":
			match = p.Meta.HasFeature(value)
		}
		if match {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the declared dependency list of the named plugin.
func (r *Registry) Dependencies(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	deps := make([]string, len(p.Meta.Requires))
	copy(deps, p.Meta.Requires)
	return deps, nil
}

// CheckDependencies reports, for each declared dependency of the named
// plugin, whether a plugin with that name is registered. Purely informational.
func (r *Registry) CheckDependencies(name string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	out := make(map[string]bool, len(p.Meta.Requires))
	for _, dep := range p.Meta.Requires {
		_, present := r.plugins[dep]
		out[dep] = present
	}
	return out, nil
}

// DependentPlugins returns the names of plugins that declare name as a
// dependency, sorted.
func (r *Registry) DependentPlugins(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for candidate, p := range r.plugins {
		for _, dep := range p.Meta.Requires {
			if dep == name {
				names = append(names, candidate)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// ValidatePlugin checks a plugin's structure: a usable factory, a provider
// type, and the required metadata fields.
func (r *Registry) ValidatePlugin(p *Plugin) error {
	if p == nil {
		return errors.New("plugin is nil")
	}
	if p.factory == nil {
		return errors.New("provider factory is required")
	}
	if p.ProviderType == "" {
		return errors.New("provider type is required")
	}
	return p.Meta.Validate()
}

// Report is the outcome of a registry-wide validation pass.
type Report struct {
	Valid   []string          `json:"valid"`
	Invalid map[string]string `json:"invalid"`
}

// Validate runs ValidatePlugin over every entry under one lock so the report
// reflects a consistent snapshot. Invalid entries are reported, not removed.
func (r *Registry) Validate() Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report := Report{Invalid: make(map[string]string)}
	for name, p := range r.plugins {
		if err := r.validateLocked(p); err != nil {
			report.Invalid[name] = err.Error()
		} else {
			report.Valid = append(report.Valid, name)
		}
	}
	sort.Strings(report.Valid)
	return report
}

func (r *Registry) validateLocked(p *Plugin) error {
	if p.factory == nil {
		return errors.New("provider factory is required")
	}
	if p.ProviderType == "" {
		return errors.New("provider type is required")
	}
	return p.Meta.Validate()
}

// Export captures a serializable snapshot of the registry taken under lock.
type Export struct {
	APIVersion string          `json:"api_version"`
	Plugins    map[string]Info `json:"plugins"`
}

// Export returns a deep, consistent snapshot of all plugins. Factories are
// not serializable; re-import resolves them by provider type.
func (r *Registry) Export() Export {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := Export{
		APIVersion: APIVersion,
		Plugins:    make(map[string]Info, len(r.plugins)),
	}
	for name, p := range r.plugins {
		out.Plugins[name] = p.Info()
	}
	return out
}
