// Package builtin declares the built-in provider plugins shipped with the
// binary. The set is a plain slice of constructors rather than anything
// discovered at runtime, so the core never depends on a loader.
package builtin

import (
	"github.com/ai-ticker/ai-ticker/plugin"
	"github.com/ai-ticker/ai-ticker/providers"
)

const author = "AI-Ticker Team"

var factories = map[string]plugin.Factory{
	"openrouter": providers.NewOpenRouter,
	"together":   providers.NewTogether,
	"deepinfra":  providers.NewDeepInfra,
	"bedrock":    providers.NewBedrock,
}

// Lookup resolves a built-in provider type to its factory. Used by the
// manager to bind manifest-declared plugins to real implementations.
func Lookup(providerType string) (plugin.Factory, bool) {
	f, ok := factories[providerType]
	return f, ok
}

// All returns freshly constructed plugin records for every built-in provider.
func All() []*plugin.Plugin {
	return []*plugin.Plugin{
		plugin.New("openrouter", plugin.Metadata{
			Name:        "openrouter",
			Version:     "1.0.0",
			Author:      author,
			Description: "OpenRouter multi-model gateway via the OpenAI-compatible API",
			Category:    plugin.CategoryBuiltin,
			APIVersion:  plugin.APIVersion,
			Features:    []string{"chat", "free-tier"},
		}, providers.NewOpenRouter),
		plugin.New("together", plugin.Metadata{
			Name:        "together",
			Version:     "1.0.0",
			Author:      author,
			Description: "Together AI hosted open-weight models",
			Category:    plugin.CategoryBuiltin,
			APIVersion:  plugin.APIVersion,
			Features:    []string{"chat"},
		}, providers.NewTogether),
		plugin.New("deepinfra", plugin.Metadata{
			Name:        "deepinfra",
			Version:     "1.0.0",
			Author:      author,
			Description: "DeepInfra serverless inference via the OpenAI-compatible API",
			Category:    plugin.CategoryBuiltin,
			APIVersion:  plugin.APIVersion,
			Features:    []string{"chat"},
		}, providers.NewDeepInfra),
		plugin.New("bedrock", plugin.Metadata{
			Name:        "bedrock",
			Version:     "1.0.0",
			Author:      author,
			Description: "AWS Bedrock runtime for Claude and Titan model families",
			Category:    plugin.CategoryBuiltin,
			APIVersion:  plugin.APIVersion,
			Features:    []string{"chat", "aws"},
		}, providers.NewBedrock),
	}
}
