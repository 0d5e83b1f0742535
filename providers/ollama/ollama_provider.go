package ollama

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

// OllamaConfig implements the provider contract for a local Ollama server.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	client *http.Client
}

const (
	defaultBaseURL = "http://localhost:11434/api"
)

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatCompletionRequest struct {
	Model    string           `json:"model"`
	Messages []models.Message `json:"messages"`
	Stream   bool             `json:"stream"`
	Options  ollamaOptions    `json:"options"`
}

type ollamaChatCompletionResponse struct {
	Model           string         `json:"model"`
	Message         models.Message `json:"message"`
	Done            bool           `json:"done"`
	PromptEvalCount int            `json:"prompt_eval_count"`
	EvalCount       int            `json:"eval_count"`
}

// NewOllamaChatProvider initializes a new Ollama provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OllamaConfig{
		BaseURL: baseURL,
		Model:   config.Model,
		Timeout: config.Timeout,
		client:  transport.NewHTTPClient(config.Timeout),
	}
}

func (ollamaProvider *OllamaConfig) Name() string {
	return "ollama"
}

// Validate only needs a model, a local server takes no credentials.
func (ollamaProvider *OllamaConfig) Validate() error {
	if ollamaProvider.Model == "" {
		return fmt.Errorf("ollama: model is not configured")
	}
	return nil
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) (*models.ChatResponse, error) {
	if err := ollamaProvider.Validate(); err != nil {
		return nil, err
	}

	model := request.Model
	if model == "" {
		model = ollamaProvider.Model
	}

	reqBody := ollamaChatCompletionRequest{
		Model:    model,
		Messages: request.Messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: request.Temperature,
			NumPredict:  request.MaxTokens,
		},
	}

	var response ollamaChatCompletionResponse
	if err := transport.PostJSON(ctx, ollamaProvider.client, ollamaProvider.Name(), fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), nil, reqBody, &response); err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		Content: response.Message.Content,
		Usage: models.Usage{
			PromptTokens:     response.PromptEvalCount,
			CompletionTokens: response.EvalCount,
			TotalTokens:      response.PromptEvalCount + response.EvalCount,
		},
	}, nil
}

// TestConnection lists the locally pulled models.
func (ollamaProvider *OllamaConfig) TestConnection(ctx context.Context) error {
	return transport.Get(ctx, ollamaProvider.client, ollamaProvider.Name(), fmt.Sprintf("%s/tags", ollamaProvider.BaseURL), nil, nil)
}
