package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meysamhadeli/gitai/providers/contracts"
	"github.com/meysamhadeli/gitai/providers/models"
	"github.com/meysamhadeli/gitai/providers/transport"
)

// AnthropicConfig implements the provider contract for the Messages API.
type AnthropicConfig struct {
	BaseURL    string
	Model      string
	ApiKey     string
	ApiVersion string
	Timeout    time.Duration

	client *http.Client
}

const (
	defaultBaseURL    = "https://api.anthropic.com"
	defaultApiVersion = "2023-06-01"
	defaultMaxTokens  = 2000
)

type messagesRequest struct {
	Model       string           `json:"model"`
	System      string           `json:"system,omitempty"`
	Messages    []models.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
}

type messagesResponse struct {
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

// NewAnthropicMessagesProvider initializes a new Anthropic provider.
func NewAnthropicMessagesProvider(config *AnthropicConfig) contracts.IChatAIProvider {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiVersion := config.ApiVersion
	if apiVersion == "" {
		apiVersion = defaultApiVersion
	}
	return &AnthropicConfig{
		BaseURL:    baseURL,
		Model:      config.Model,
		ApiKey:     config.ApiKey,
		ApiVersion: apiVersion,
		Timeout:    config.Timeout,
		client:     transport.NewHTTPClient(config.Timeout),
	}
}

func (p *AnthropicConfig) Name() string {
	return "anthropic"
}

func (p *AnthropicConfig) Validate() error {
	if strings.TrimSpace(p.ApiKey) == "" {
		return fmt.Errorf("anthropic: %w", models.ErrMissingAPIKey)
	}
	if p.Model == "" {
		return fmt.Errorf("anthropic: model is not configured")
	}
	return nil
}

func (p *AnthropicConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) (*models.ChatResponse, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	reqBody := toMessagesRequest(p.Model, request)

	var resp messagesResponse
	if err := transport.PostJSON(ctx, p.client, p.Name(), p.BaseURL+"/v1/messages", p.headers(), reqBody, &resp); err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &models.ChatResponse{
		Content: content.String(),
		Usage: models.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// TestConnection sends a minimal message, the Messages API has no cheaper probe.
func (p *AnthropicConfig) TestConnection(ctx context.Context) error {
	_, err := p.ChatCompletionRequest(ctx, models.ChatRequest{
		Messages:  []models.Message{{Role: models.RoleUser, Content: "Hello"}},
		MaxTokens: 10,
	})
	return err
}

func (p *AnthropicConfig) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.ApiKey,
		"anthropic-version": p.ApiVersion,
	}
}

// toMessagesRequest moves system messages into the top-level system field.
func toMessagesRequest(defaultModel string, request models.ChatRequest) messagesRequest {
	model := request.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var system []string
	messages := make([]models.Message, 0, len(request.Messages))
	for _, m := range request.Messages {
		if m.Role == models.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		messages = append(messages, m)
	}

	return messagesRequest{
		Model:       model,
		System:      strings.Join(system, "\n\n"),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: request.Temperature,
	}
}
