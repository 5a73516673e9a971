// Package plugin wraps provider implementations with descriptive metadata and
// manages their registration lifecycle.
//
// A Plugin pairs a provider factory with its Metadata (name, version, author,
// dependency list, capability tags). Plugins live in a Registry owned by the
// Manager; built-in plugins are declared in plugin/builtin, custom plugins are
// discovered from JSON manifests in a configurable directory.
package plugin

import (
	"errors"
	"fmt"

	"github.com/ai-ticker/ai-ticker/providers"
)

// APIVersion is the plugin API contract version expected by this build.
const APIVersion = "1.0"

// Category classifies where a plugin came from.
type Category string

// Category values.
const (
	CategoryBuiltin   Category = "builtin"
	CategoryCustom    Category = "custom"
	CategoryCommunity Category = "community"
)

// Metadata describes a plugin. Name, Version, Author, and Description are
// required; the rest is optional.
type Metadata struct {
	Name        string   `json:"name" yaml:"name"`
	Version     string   `json:"version" yaml:"version"`
	Author      string   `json:"author" yaml:"author"`
	Description string   `json:"description" yaml:"description"`
	Requires    []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Category    Category `json:"category,omitempty" yaml:"category,omitempty"`
	APIVersion  string   `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	Features    []string `json:"features,omitempty" yaml:"features,omitempty"`
}

// Validate checks the required metadata fields.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return errors.New("metadata name is required")
	}
	if m.Version == "" {
		return errors.New("metadata version is required")
	}
	if m.Author == "" {
		return errors.New("metadata author is required")
	}
	if m.Description == "" {
		return errors.New("metadata description is required")
	}
	switch m.Category {
	case "", CategoryBuiltin, CategoryCustom, CategoryCommunity:
	default:
		return fmt.Errorf("unknown category: %s", m.Category)
	}
	return nil
}

// HasFeature reports whether the plugin declares the given capability tag.
func (m Metadata) HasFeature(feature string) bool {
	for _, f := range m.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Factory constructs a provider instance from a configuration. Factories must
// not call Initialize; construction and connection setup stay decoupled so
// validation can run in between.
type Factory func(providers.Config) (providers.Provider, error)

// Plugin associates a provider factory with its metadata. The registered name
// (Meta.Name) is the plugin's identity.
type Plugin struct {
	// ProviderType identifies the underlying provider implementation
	// (e.g. "openrouter"). Several plugins may share one provider type.
	ProviderType string
	Meta         Metadata
	factory      Factory
}

// New creates a plugin from a provider type, metadata, and factory.
func New(providerType string, meta Metadata, factory Factory) *Plugin {
	return &Plugin{ProviderType: providerType, Meta: meta, factory: factory}
}

// CreateProvider constructs a fresh, uninitialized provider bound to cfg.
func (p *Plugin) CreateProvider(cfg providers.Config) (providers.Provider, error) {
	if p.factory == nil {
		return nil, fmt.Errorf("plugin %s has no provider factory", p.Meta.Name)
	}
	cfg.ApplyDefaults()
	return p.factory(cfg)
}

// Info is a read-only snapshot of a plugin's identity and metadata.
type Info struct {
	Name         string   `json:"name"`
	ProviderType string   `json:"provider_type"`
	Metadata     Metadata `json:"metadata"`
}

// Info returns a descriptive snapshot. Side-effect free.
func (p *Plugin) Info() Info {
	return Info{
		Name:         p.Meta.Name,
		ProviderType: p.ProviderType,
		Metadata:     p.Meta,
	}
}
