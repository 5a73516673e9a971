package plugin

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := NewRegistry()
	first := testPlugin("alpha")
	second := New("other", Metadata{
		Name: "alpha", Version: "2.0.0", Author: "someone else", Description: "imposter",
	}, mockFactory)

	if err := r.Register("alpha", first); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	err := r.Register("alpha", second)
	if !errors.Is(err, ErrPluginExists) {
		t.Fatalf("second Register() error = %v, want ErrPluginExists", err)
	}

	// The first registration must survive untouched.
	got, ok := r.Get("alpha")
	if !ok {
		t.Fatal("Get(alpha) not found after duplicate register")
	}
	if got.Meta.Author != "tester" {
		t.Errorf("Meta.Author = %q, want tester", got.Meta.Author)
	}
}

func TestRegistry_Count(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		if err := r.Register(name, testPlugin(name)); err != nil {
			t.Fatalf("Register(%s) error: %v", name, err)
		}
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}
	if err := r.Unregister("b"); err != nil {
		t.Fatalf("Unregister(b) error: %v", err)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	if err := r.Unregister("b"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("second Unregister(b) error = %v, want ErrPluginNotFound", err)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d after failed unregister, want 2", r.Count())
	}
}

func TestRegistry_Names_Sorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_ = r.Register(name, testPlugin(name))
	}
	names := r.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistry_ExportRoundTrip(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"alpha", "beta"} {
		_ = r.Register(name, testPlugin(name))
	}
	export := r.Export()
	if export.APIVersion != APIVersion {
		t.Errorf("APIVersion = %q, want %q", export.APIVersion, APIVersion)
	}

	// Rebuild a registry from the export, resolving factories by provider type.
	resolve := func(string) (Factory, bool) { return mockFactory, true }
	restored := NewRegistry()
	for name, info := range export.Plugins {
		factory, _ := resolve(info.ProviderType)
		if err := restored.Register(name, New(info.ProviderType, info.Metadata, factory)); err != nil {
			t.Fatalf("re-register %s: %v", name, err)
		}
	}

	if restored.Count() != r.Count() {
		t.Fatalf("restored Count() = %d, want %d", restored.Count(), r.Count())
	}
	for _, name := range r.Names() {
		orig, _ := r.Get(name)
		got, ok := restored.Get(name)
		if !ok {
			t.Fatalf("restored registry missing %s", name)
		}
		if !reflect.DeepEqual(got.Meta, orig.Meta) {
			t.Errorf("restored metadata for %s = %+v, want %+v", name, got.Meta, orig.Meta)
		}
	}
}

func TestRegistry_Validate(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("good", testPlugin("good"))
	// Sneak in an invalid entry bypassing Register's validation.
	r.plugins["bad"] = &Plugin{ProviderType: "mock", Meta: Metadata{Name: "bad"}}

	report := r.Validate()
	if len(report.Valid) != 1 || report.Valid[0] != "good" {
		t.Errorf("Valid = %v, want [good]", report.Valid)
	}
	if _, ok := report.Invalid["bad"]; !ok {
		t.Errorf("Invalid = %v, want entry for bad", report.Invalid)
	}
	// Reporting only: the invalid entry stays registered.
	if !r.IsRegistered("bad") {
		t.Error("invalid entry was removed by Validate()")
	}
}

func TestRegistry_Dependencies(t *testing.T) {
	r := NewRegistry()
	base := testPlugin("base")
	dependent := New("mock", Metadata{
		Name: "dependent", Version: "1.0.0", Author: "tester", Description: "needs base",
		Requires: []string{"base", "missing"},
	}, mockFactory)
	_ = r.Register("base", base)
	_ = r.Register("dependent", dependent)

	deps, err := r.CheckDependencies("dependent")
	if err != nil {
		t.Fatalf("CheckDependencies() error: %v", err)
	}
	if !deps["base"] {
		t.Error("base should be reported available")
	}
	if deps["missing"] {
		t.Error("missing should be reported unavailable")
	}

	dependents := r.DependentPlugins("base")
	if len(dependents) != 1 || dependents[0] != "dependent" {
		t.Errorf("DependentPlugins(base) = %v, want [dependent]", dependents)
	}

	if _, err := r.CheckDependencies("ghost"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("CheckDependencies(ghost) error = %v, want ErrPluginNotFound", err)
	}
}

func TestRegistry_FindByMetadata(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("alpha", testPlugin("alpha"))
	featured := New("mock", Metadata{
		Name: "beta", Version: "1.0.0", Author: "other", Description: "d",
		Features: []string{"chat"},
	}, mockFactory)
	_ = r.Register("beta", featured)

	if got := r.FindByMetadata("author", "tester"); len(got) != 1 || got[0] != "alpha" {
		t.Errorf("FindByMetadata(author, tester) = %v", got)
	}
	if got := r.FindByMetadata("feature", "chat"); len(got) != 1 || got[0] != "beta" {
		t.Errorf("FindByMetadata(feature, chat) = %v", got)
	}
	if got := r.FindByMetadata("feature", "images"); len(got) != 0 {
		t.Errorf("FindByMetadata(feature, images) = %v, want empty", got)
	}
}

func TestRegistry_FindByProviderType(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("alpha", testPlugin("alpha"))
	_ = r.Register("beta", New("other", Metadata{
		Name: "beta", Version: "1.0.0", Author: "a", Description: "d",
	}, mockFactory))

	if got := r.FindByProviderType("mock"); len(got) != 1 || got[0] != "alpha" {
		t.Errorf("FindByProviderType(mock) = %v", got)
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("alpha", testPlugin("alpha"))
	r.Clear()
	if r.Count() != 0 {
		t.Errorf("Count() = %d after Clear, want 0", r.Count())
	}
}
