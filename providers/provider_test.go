package providers

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Name:    "test",
		APIKey:  "test-key",
		BaseURL: "https://api.example.com/v1",
		Model:   "test-model",
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	if cfg.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", cfg.MaxTokens, DefaultMaxTokens)
	}
	if cfg.Temperature == nil || *cfg.Temperature != DefaultTemperature {
		t.Errorf("Temperature = %v, want %v", cfg.Temperature, DefaultTemperature)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
}

func TestConfig_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.MaxTokens = 64
	cfg.Temperature = floatPtr(1.5)
	cfg.Timeout = 5 * time.Second
	cfg.ApplyDefaults()
	if cfg.MaxTokens != 64 || *cfg.Temperature != 1.5 || cfg.Timeout != 5*time.Second {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestConfig_ApplyDefaults_KeepsExplicitZeroTemperature(t *testing.T) {
	cfg := validConfig()
	cfg.Temperature = floatPtr(0)
	cfg.ApplyDefaults()
	if cfg.Temperature == nil || *cfg.Temperature != 0 {
		t.Errorf("Temperature = %v, want explicit 0 preserved", cfg.Temperature)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v for temperature 0", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing name", func(c *Config) { c.Name = "" }, true},
		{"missing base URL", func(c *Config) { c.BaseURL = "" }, true},
		{"missing model", func(c *Config) { c.Model = "" }, true},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, true},
		{"negative max tokens", func(c *Config) { c.MaxTokens = -1 }, true},
		{"temperature too high", func(c *Config) { c.Temperature = floatPtr(2.5) }, true},
		{"temperature negative", func(c *Config) { c.Temperature = floatPtr(-0.1) }, true},
		{"temperature zero", func(c *Config) { c.Temperature = floatPtr(0) }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	p, err := NewTogether(validConfig())
	if err != nil {
		t.Fatalf("NewTogether() error: %v", err)
	}
	info := Describe(p)
	if info.Name != "test" {
		t.Errorf("Name = %q, want test", info.Name)
	}
	if info.Model != "test-model" {
		t.Errorf("Model = %q, want test-model", info.Model)
	}
	if info.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", info.MaxTokens, DefaultMaxTokens)
	}
	if len(info.SupportedModels) == 0 {
		t.Error("SupportedModels is empty")
	}
}
