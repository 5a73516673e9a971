package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockProvider implements the Provider interface for AWS Bedrock.
// Supports Anthropic Claude and Amazon Titan models via the Bedrock runtime
// InvokeModel API. Authentication rides on the AWS credential chain, so no
// API key is configured here.
type BedrockProvider struct {
	Base
	client *bedrockruntime.Client
	region string
}

// NewBedrock creates an AWS Bedrock provider from cfg. The AWS region is
// taken from extra_headers["region"] falling back to us-east-1; base_url is
// synthesized from the region since the SDK resolves endpoints itself.
func NewBedrock(cfg Config) (Provider, error) {
	region := cfg.ExtraHeaders["region"]
	if region == "" {
		region = "us-east-1"
	}
	if cfg.Name == "" {
		cfg.Name = "bedrock"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region)
	}
	cfg.ApplyDefaults()
	return &BedrockProvider{Base: Base{cfg: cfg}, region: region}, nil
}

// SupportedModels returns well-known Bedrock model IDs.
func (p *BedrockProvider) SupportedModels() []string {
	return []string{
		"anthropic.claude-3-5-sonnet-20241022-v2:0",
		"anthropic.claude-3-5-haiku-20241022-v1:0",
		"anthropic.claude-3-haiku-20240307-v1:0",
		"amazon.titan-text-express-v1",
		"amazon.titan-text-lite-v1",
	}
}

// ValidateConfig checks the shared invariants and that the model belongs to a
// family this provider knows how to marshal requests for.
func (p *BedrockProvider) ValidateConfig() error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}
	if !strings.HasPrefix(p.cfg.Model, "anthropic.") && !strings.HasPrefix(p.cfg.Model, "amazon.titan") {
		return fmt.Errorf("unsupported Bedrock model family: %s", p.cfg.Model)
	}
	return nil
}

// Initialize loads the AWS credential chain and builds the runtime client.
func (p *BedrockProvider) Initialize() error {
	if err := p.ValidateConfig(); err != nil {
		return err
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(p.region),
	)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	p.client = bedrockruntime.NewFromConfig(awsCfg)
	return nil
}

type bedrockClaudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockClaudeRequest struct {
	AnthropicVersion string                 `json:"anthropic_version"`
	MaxTokens        int                    `json:"max_tokens"`
	Messages         []bedrockClaudeMessage `json:"messages"`
	Temperature      *float64               `json:"temperature,omitempty"`
	System           string                 `json:"system,omitempty"`
}

type bedrockClaudeResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type bedrockTitanRequest struct {
	InputText            string `json:"inputText"`
	TextGenerationConfig struct {
		MaxTokenCount int      `json:"maxTokenCount,omitempty"`
		Temperature   *float64 `json:"temperature,omitempty"`
	} `json:"textGenerationConfig"`
}

type bedrockTitanResponse struct {
	InputTextTokenCount int `json:"inputTextTokenCount"`
	Results             []struct {
		TokenCount       int    `json:"tokenCount"`
		OutputText       string `json:"outputText"`
		CompletionReason string `json:"completionReason"`
	} `json:"results"`
}

// GenerateMessage marshals a model-family-specific request body and invokes
// the Bedrock runtime.
func (p *BedrockProvider) GenerateMessage(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	if p.client == nil {
		return nil, ErrNotInitialized
	}
	if strings.HasPrefix(p.cfg.Model, "anthropic.") {
		return p.generateClaude(ctx, systemPrompt, userPrompt)
	}
	return p.generateTitan(ctx, systemPrompt, userPrompt)
}

func (p *BedrockProvider) generateClaude(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	body, err := json.Marshal(bedrockClaudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        p.cfg.MaxTokens,
		Messages:         []bedrockClaudeMessage{{Role: "user", Content: userPrompt}},
		Temperature:      p.cfg.Temperature,
		System:           systemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := p.invoke(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp bedrockClaudeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return nil, fmt.Errorf("%s: empty content in response", p.cfg.Name)
	}

	return &Response{
		Content:  content,
		Provider: p.cfg.Name,
		Model:    p.cfg.Model,
		Usage: map[string]int{
			"prompt_tokens":     resp.Usage.InputTokens,
			"completion_tokens": resp.Usage.OutputTokens,
			"total_tokens":      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		Metadata: map[string]any{
			"response_id":   resp.ID,
			"finish_reason": resp.StopReason,
		},
	}, nil
}

func (p *BedrockProvider) generateTitan(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	req := bedrockTitanRequest{InputText: systemPrompt + "\n" + userPrompt}
	req.TextGenerationConfig.MaxTokenCount = p.cfg.MaxTokens
	req.TextGenerationConfig.Temperature = p.cfg.Temperature

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := p.invoke(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp bedrockTitanResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%s: no results in response", p.cfg.Name)
	}
	content := strings.TrimSpace(resp.Results[0].OutputText)
	if content == "" {
		return nil, fmt.Errorf("%s: empty content in response", p.cfg.Name)
	}

	completionTokens := 0
	for _, r := range resp.Results {
		completionTokens += r.TokenCount
	}
	return &Response{
		Content:  content,
		Provider: p.cfg.Name,
		Model:    p.cfg.Model,
		Usage: map[string]int{
			"prompt_tokens":     resp.InputTextTokenCount,
			"completion_tokens": completionTokens,
			"total_tokens":      resp.InputTextTokenCount + completionTokens,
		},
		Metadata: map[string]any{
			"finish_reason": resp.Results[0].CompletionReason,
		},
	}, nil
}

func (p *BedrockProvider) invoke(ctx context.Context, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.cfg.Model),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke failed: %w", err)
	}
	return output.Body, nil
}

// HealthCheck issues a minimal generation. A failed credential chain or a
// missing model entitlement both surface here as false.
func (p *BedrockProvider) HealthCheck(ctx context.Context) bool {
	if p.client == nil {
		return false
	}
	probe := *p
	probe.cfg.MaxTokens = 1
	_, err := probe.GenerateMessage(ctx, "", "Hello")
	return err == nil
}
