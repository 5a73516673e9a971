package providers

import (
	"context"
	"net/http"
	"testing"
)

func TestNewDeepInfra_Defaults(t *testing.T) {
	p, err := NewDeepInfra(Config{APIKey: "test-key", Model: "test-model"})
	if err != nil {
		t.Fatalf("NewDeepInfra() error: %v", err)
	}
	if p.Name() != "deepinfra" {
		t.Errorf("Name() = %q, want deepinfra", p.Name())
	}
	info := Describe(p)
	if info.BaseURL != "https://api.deepinfra.com/v1/openai" {
		t.Errorf("BaseURL = %q", info.BaseURL)
	}
}

func TestDeepInfraProvider_GenerateMessage(t *testing.T) {
	srv := newChatTestServer(t, http.StatusOK, completionBody("Markets rallied today."))
	defer srv.Close()

	p, _ := NewDeepInfra(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	if err := p.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	resp, err := p.GenerateMessage(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("GenerateMessage() error: %v", err)
	}
	if resp.Content != "Markets rallied today." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Provider != "deepinfra" {
		t.Errorf("Provider = %q, want deepinfra", resp.Provider)
	}
}

func TestDeepInfraProvider_Initialize_InvalidConfig(t *testing.T) {
	p, _ := NewDeepInfra(Config{Model: "test-model"})
	if err := p.Initialize(); err == nil {
		t.Error("Initialize() = nil, want error for missing API key")
	}
	if _, err := p.GenerateMessage(context.Background(), "s", "u"); err != ErrNotInitialized {
		t.Errorf("GenerateMessage() error = %v, want ErrNotInitialized", err)
	}
}
