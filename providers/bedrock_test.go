package providers

import (
	"context"
	"strings"
	"testing"
)

func TestNewBedrock_Defaults(t *testing.T) {
	p, err := NewBedrock(Config{Model: "anthropic.claude-3-haiku-20240307-v1:0"})
	if err != nil {
		t.Fatalf("NewBedrock() error: %v", err)
	}
	if p.Name() != "bedrock" {
		t.Errorf("Name() = %q, want bedrock", p.Name())
	}
	info := Describe(p)
	if !strings.Contains(info.BaseURL, "us-east-1") {
		t.Errorf("BaseURL = %q, want default us-east-1 endpoint", info.BaseURL)
	}
}

func TestNewBedrock_RegionOverride(t *testing.T) {
	p, _ := NewBedrock(Config{
		Model:        "amazon.titan-text-lite-v1",
		ExtraHeaders: map[string]string{"region": "eu-west-1"},
	})
	info := Describe(p)
	if !strings.Contains(info.BaseURL, "eu-west-1") {
		t.Errorf("BaseURL = %q, want eu-west-1 endpoint", info.BaseURL)
	}
}

func TestBedrockProvider_ValidateConfig_NoAPIKeyRequired(t *testing.T) {
	p, _ := NewBedrock(Config{Model: "anthropic.claude-3-haiku-20240307-v1:0"})
	if err := p.ValidateConfig(); err != nil {
		t.Errorf("ValidateConfig() error = %v, want nil without API key", err)
	}
}

func TestBedrockProvider_ValidateConfig_UnknownModelFamily(t *testing.T) {
	p, _ := NewBedrock(Config{Model: "cohere.command-r-v1:0"})
	if err := p.ValidateConfig(); err == nil {
		t.Error("ValidateConfig() = nil, want error for unknown model family")
	}
}

func TestBedrockProvider_GenerateMessage_NotInitialized(t *testing.T) {
	p, _ := NewBedrock(Config{Model: "anthropic.claude-3-haiku-20240307-v1:0"})
	if _, err := p.GenerateMessage(context.Background(), "s", "u"); err != ErrNotInitialized {
		t.Errorf("GenerateMessage() error = %v, want ErrNotInitialized", err)
	}
	if p.HealthCheck(context.Background()) {
		t.Error("HealthCheck() = true before Initialize")
	}
}
