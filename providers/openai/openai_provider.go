package openai

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

// OpenAIConfig implements the provider contract for every OpenAI compatible API
// (openai, deepseek, moonshot, openrouter).
type OpenAIConfig struct {
	ProviderName   string
	BaseURL        string
	Model          string
	ApiKey         string
	RequiresAPIKey bool
	Timeout        time.Duration

	client *http.Client
}

const defaultBaseURL = "https://api.openai.com/v1"

type chatCompletionRequest struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Stream      bool             `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage models.Usage `json:"usage"`
}

// NewOpenAIChatProvider initializes a new OpenAI compatible provider.
func NewOpenAIChatProvider(config *OpenAIConfig) contracts.IChatAIProvider {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	name := config.ProviderName
	if name == "" {
		name = "openai"
	}
	return &OpenAIConfig{
		ProviderName:   name,
		BaseURL:        baseURL,
		Model:          config.Model,
		ApiKey:         config.ApiKey,
		RequiresAPIKey: config.RequiresAPIKey,
		Timeout:        config.Timeout,
		client:         transport.NewHTTPClient(config.Timeout),
	}
}

func (p *OpenAIConfig) Name() string {
	return p.ProviderName
}

func (p *OpenAIConfig) Validate() error {
	if p.RequiresAPIKey && strings.TrimSpace(p.ApiKey) == "" {
		return fmt.Errorf("%s: %w", p.ProviderName, models.ErrMissingAPIKey)
	}
	if p.Model == "" {
		return fmt.Errorf("%s: model is not configured", p.ProviderName)
	}
	return nil
}

func (p *OpenAIConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) (*models.ChatResponse, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	model := request.Model
	if model == "" {
		model = p.Model
	}

	reqBody := chatCompletionRequest{
		Model:       model,
		Messages:    request.Messages,
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
		Stream:      false,
	}

	var resp chatCompletionResponse
	if err := transport.PostJSON(ctx, p.client, p.ProviderName, p.BaseURL+"/chat/completions", p.headers(), reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: response contained no choices", p.ProviderName)
	}

	usage := resp.Usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return &models.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Usage:   usage,
	}, nil
}

// TestConnection lists the available models.
func (p *OpenAIConfig) TestConnection(ctx context.Context) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return transport.Get(ctx, p.client, p.ProviderName, p.BaseURL+"/models", p.headers(), nil)
}

func (p *OpenAIConfig) headers() map[string]string {
	headers := map[string]string{}
	if p.ApiKey != "" {
		headers["Authorization"] = "Bearer " + p.ApiKey
	}
	return headers
}
