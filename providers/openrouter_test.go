package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenRouter_Defaults(t *testing.T) {
	p, err := NewOpenRouter(Config{APIKey: "test-key", Model: "deepseek/deepseek-chat"})
	if err != nil {
		t.Fatalf("NewOpenRouter() error: %v", err)
	}
	if p.Name() != "openrouter" {
		t.Errorf("Name() = %q, want openrouter", p.Name())
	}
	info := Describe(p)
	if info.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("BaseURL = %q", info.BaseURL)
	}
}

func TestOpenRouterProvider_GenerateMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("Fresh off the wire."))
	}))
	defer srv.Close()

	p, _ := NewOpenRouter(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	if err := p.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	resp, err := p.GenerateMessage(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("GenerateMessage() error: %v", err)
	}
	if resp.Content != "Fresh off the wire." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Provider != "openrouter" {
		t.Errorf("Provider = %q, want openrouter", resp.Provider)
	}
	if resp.Usage["completion_tokens"] != 7 {
		t.Errorf("completion_tokens = %d, want 7", resp.Usage["completion_tokens"])
	}
}

func TestOpenRouterProvider_GenerateMessage_NotInitialized(t *testing.T) {
	p, _ := NewOpenRouter(Config{APIKey: "test-key", Model: "test-model"})
	if _, err := p.GenerateMessage(context.Background(), "s", "u"); err != ErrNotInitialized {
		t.Errorf("GenerateMessage() error = %v, want ErrNotInitialized", err)
	}
}

func TestOpenRouterProvider_Initialize_RequiresAPIKey(t *testing.T) {
	p, _ := NewOpenRouter(Config{Model: "test-model"})
	if err := p.Initialize(); err == nil {
		t.Error("Initialize() = nil, want error for missing API key")
	}
}
