package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

const validManifest = `{
  "name": "custom-mock",
  "provider_type": "mock",
  "metadata": {
    "name": "custom-mock",
    "version": "0.1.0",
    "author": "tester",
    "description": "manifest-backed mock"
  }
}`

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	base := []Option{
		WithBuiltins([]*Plugin{testPlugin("alpha"), testPlugin("beta")}),
		WithFactoryResolver(func(providerType string) (Factory, bool) {
			if providerType == "mock" {
				return mockFactory, true
			}
			return nil, false
		}),
	}
	return NewManager(append(base, opts...)...)
}

func TestManager_LoadPlugin(t *testing.T) {
	m := newTestManager(t)
	p, err := m.LoadPlugin("alpha")
	if err != nil {
		t.Fatalf("LoadPlugin() error: %v", err)
	}
	if p.Meta.Name != "alpha" {
		t.Errorf("Meta.Name = %q, want alpha", p.Meta.Name)
	}

	// Loading again returns the registered instance, not an error.
	again, err := m.LoadPlugin("alpha")
	if err != nil {
		t.Fatalf("second LoadPlugin() error: %v", err)
	}
	if again != p {
		t.Error("second LoadPlugin() returned a different instance")
	}
}

func TestManager_LoadPlugin_Unknown(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.LoadPlugin("ghost"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("LoadPlugin(ghost) error = %v, want ErrPluginNotFound", err)
	}
}

func TestManager_LoadAll(t *testing.T) {
	m := newTestManager(t)
	results := m.LoadAll()
	if len(results) != 2 {
		t.Fatalf("LoadAll() = %d results, want 2", len(results))
	}
	for name, err := range results {
		if err != nil {
			t.Errorf("LoadAll()[%s] = %v, want nil", name, err)
		}
	}
	if m.Registry().Count() != 2 {
		t.Errorf("registry Count() = %d, want 2", m.Registry().Count())
	}
}

func TestManager_Discover_SkipsBadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "good.json", validManifest)
	writeManifest(t, dir, "broken.json", `{"name": "broken"`)
	writeManifest(t, dir, "incomplete.json", `{"name": "incomplete", "provider_type": "mock", "metadata": {"name": "incomplete"}}`)

	m := newTestManager(t, WithManifestDir(dir))
	infos := m.Discover()

	// Two builtins plus the one valid manifest.
	if len(infos) != 3 {
		t.Fatalf("Discover() = %d plugins, want 3", len(infos))
	}
	found := false
	for _, info := range infos {
		if info.Name == "custom-mock" {
			found = true
			if info.Metadata.Category != CategoryCustom {
				t.Errorf("manifest category = %q, want custom", info.Metadata.Category)
			}
		}
	}
	if !found {
		t.Error("custom-mock not discovered")
	}
}

func TestManager_LoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "custom-mock.json", validManifest)

	m := newTestManager(t)
	loaded, err := m.LoadFromDirectory(dir)
	if err != nil {
		t.Fatalf("LoadFromDirectory() error: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != "custom-mock" {
		t.Errorf("loaded = %v, want [custom-mock]", loaded)
	}
	if !m.Registry().IsRegistered("custom-mock") {
		t.Error("custom-mock not registered after LoadFromDirectory")
	}
}

func TestManager_DisableEnable(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.LoadPlugin("alpha"); err != nil {
		t.Fatalf("LoadPlugin() error: %v", err)
	}

	m.Disable("alpha")
	if m.Registry().IsRegistered("alpha") {
		t.Error("alpha still registered after Disable")
	}
	if _, err := m.LoadPlugin("alpha"); err == nil {
		t.Error("LoadPlugin() = nil error for disabled plugin")
	}

	// Idempotence: disabling twice leaves the same final state as once.
	m.Disable("alpha")
	if !m.IsDisabled("alpha") {
		t.Error("alpha not disabled after second Disable")
	}

	m.Enable("alpha")
	if m.IsDisabled("alpha") {
		t.Error("alpha still disabled after Enable")
	}
	if _, err := m.LoadPlugin("alpha"); err != nil {
		t.Errorf("LoadPlugin() after Enable error: %v", err)
	}
}

func TestManager_StatePersistence(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "plugin_state.json")

	m := newTestManager(t, WithStateFile(stateFile))
	m.Disable("beta")

	// A fresh manager sharing the state file sees the disabled set.
	m2 := newTestManager(t, WithStateFile(stateFile))
	if !m2.IsDisabled("beta") {
		t.Error("disabled set not restored from state file")
	}
	if m2.IsDisabled("alpha") {
		t.Error("alpha unexpectedly disabled")
	}
}

func TestManager_Reload_RestoresOnFailure(t *testing.T) {
	m := newTestManager(t)
	p, err := m.LoadPlugin("alpha")
	if err != nil {
		t.Fatalf("LoadPlugin() error: %v", err)
	}

	// Remove alpha from the candidate set so the reload's load step fails.
	m.mu.Lock()
	m.builtins = []*Plugin{testPlugin("beta")}
	m.mu.Unlock()

	if err := m.Reload("alpha"); err == nil {
		t.Fatal("Reload() = nil error with no load candidate")
	}
	restored, ok := m.Registry().Get("alpha")
	if !ok {
		t.Fatal("alpha missing from registry after failed reload")
	}
	if restored != p {
		t.Error("restored plugin differs from the pre-reload instance")
	}
}

func TestManager_Reload(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.LoadPlugin("alpha"); err != nil {
		t.Fatalf("LoadPlugin() error: %v", err)
	}
	if err := m.Reload("alpha"); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if !m.Registry().IsRegistered("alpha") {
		t.Error("alpha missing after Reload")
	}
	if err := m.Reload("ghost"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Reload(ghost) error = %v, want ErrPluginNotFound", err)
	}
}

func TestManager_CreateProvider(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.LoadPlugin("alpha"); err != nil {
		t.Fatalf("LoadPlugin() error: %v", err)
	}
	prov, err := m.CreateProvider("alpha", mockConfig("alpha"))
	if err != nil {
		t.Fatalf("CreateProvider() error: %v", err)
	}
	if prov.Name() != "alpha" {
		t.Errorf("provider Name() = %q, want alpha", prov.Name())
	}
	if _, err := m.CreateProvider("ghost", mockConfig("ghost")); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("CreateProvider(ghost) error = %v, want ErrPluginNotFound", err)
	}
}

func TestManager_PluginList(t *testing.T) {
	m := newTestManager(t)
	m.LoadAll()
	list := m.PluginList()
	if len(list) != 2 {
		t.Fatalf("PluginList() = %d entries, want 2", len(list))
	}
	if list[0].Name != "alpha" || list[1].Name != "beta" {
		t.Errorf("PluginList() order = [%s %s], want [alpha beta]", list[0].Name, list[1].Name)
	}
}
