package builtin

import (
	"testing"

	"github.com/ai-ticker/ai-ticker/plugin"
)

func TestAll(t *testing.T) {
	plugins := All()
	if len(plugins) != 4 {
		t.Fatalf("All() = %d plugins, want 4", len(plugins))
	}
	seen := make(map[string]bool)
	for _, p := range plugins {
		if err := p.Meta.Validate(); err != nil {
			t.Errorf("builtin %s metadata invalid: %v", p.Meta.Name, err)
		}
		if p.Meta.Category != plugin.CategoryBuiltin {
			t.Errorf("builtin %s category = %q", p.Meta.Name, p.Meta.Category)
		}
		if seen[p.Meta.Name] {
			t.Errorf("duplicate builtin name %s", p.Meta.Name)
		}
		seen[p.Meta.Name] = true
	}
}

func TestLookup(t *testing.T) {
	for _, providerType := range []string{"openrouter", "together", "deepinfra", "bedrock"} {
		if _, ok := Lookup(providerType); !ok {
			t.Errorf("Lookup(%s) = false", providerType)
		}
	}
	if _, ok := Lookup("unknown"); ok {
		t.Error("Lookup(unknown) = true")
	}
}

func TestRegisterAll(t *testing.T) {
	r := plugin.NewRegistry()
	for _, p := range All() {
		if err := r.Register(p.Meta.Name, p); err != nil {
			t.Errorf("Register(%s) error: %v", p.Meta.Name, err)
		}
	}
	if r.Count() != 4 {
		t.Errorf("Count() = %d, want 4", r.Count())
	}
}
