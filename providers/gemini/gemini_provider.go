package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meysamhadeli/gitai/providers/contracts"
	"github.com/meysamhadeli/gitai/providers/models"
	"github.com/meysamhadeli/gitai/providers/transport"
)

// GeminiConfig implements the provider contract for the generateContent API.
type GeminiConfig struct {
	BaseURL string
	Model   string
	ApiKey  string
	Timeout time.Duration

	client *http.Client
}

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateContentRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiChatProvider initializes a new Gemini provider.
func NewGeminiChatProvider(config *GeminiConfig) contracts.IChatAIProvider {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &GeminiConfig{
		BaseURL: baseURL,
		Model:   config.Model,
		ApiKey:  config.ApiKey,
		Timeout: config.Timeout,
		client:  transport.NewHTTPClient(config.Timeout),
	}
}

func (p *GeminiConfig) Name() string {
	return "gemini"
}

func (p *GeminiConfig) Validate() error {
	if strings.TrimSpace(p.ApiKey) == "" {
		return fmt.Errorf("gemini: %w", models.ErrMissingAPIKey)
	}
	if p.Model == "" {
		return fmt.Errorf("gemini: model is not configured")
	}
	return nil
}

func (p *GeminiConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) (*models.ChatResponse, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	model := request.Model
	if model == "" {
		model = p.Model
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.BaseURL, url.PathEscape(model))

	var resp generateContentResponse
	if err := transport.PostJSON(ctx, p.client, p.Name(), endpoint, p.headers(), toGenerateContentRequest(request), &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: response contained no candidates")
	}

	var text strings.Builder
	for _, pt := range resp.Candidates[0].Content.Parts {
		text.WriteString(pt.Text)
	}

	usage := models.Usage{
		PromptTokens:     resp.UsageMetadata.PromptTokenCount,
		CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      resp.UsageMetadata.TotalTokenCount,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return &models.ChatResponse{Content: text.String(), Usage: usage}, nil
}

// TestConnection lists the models visible to the key.
func (p *GeminiConfig) TestConnection(ctx context.Context) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return transport.Get(ctx, p.client, p.Name(), p.BaseURL+"/models", p.headers(), nil)
}

func (p *GeminiConfig) headers() map[string]string {
	return map[string]string{"x-goog-api-key": p.ApiKey}
}

// toGenerateContentRequest maps chat roles onto Gemini's user/model roles.
func toGenerateContentRequest(request models.ChatRequest) generateContentRequest {
	req := generateContentRequest{
		GenerationConfig: generationConfig{
			Temperature:     request.Temperature,
			MaxOutputTokens: request.MaxTokens,
		},
	}

	var system []part
	for _, m := range request.Messages {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, part{Text: m.Content})
		case models.RoleAssistant:
			req.Contents = append(req.Contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		req.SystemInstruction = &content{Parts: system}
	}

	return req
}
