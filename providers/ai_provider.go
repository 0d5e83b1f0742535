package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meysamhadeli/gitai/metrics"
	"github.com/meysamhadeli/gitai/providers/anthropic"
	"github.com/meysamhadeli/gitai/providers/contracts"
	"github.com/meysamhadeli/gitai/providers/gemini"
	"github.com/meysamhadeli/gitai/providers/models"
	"github.com/meysamhadeli/gitai/providers/ollama"
	"github.com/meysamhadeli/gitai/providers/openai"
	contracts_token "github.com/meysamhadeli/gitai/token_management/contracts"
	"go.uber.org/zap"
)

// AIProviderConfig selects and configures the chat provider.
type AIProviderConfig struct {
	Provider   string        `mapstructure:"provider"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	ApiKey     string        `mapstructure:"api_key"`
	ApiVersion string        `mapstructure:"api_version"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ProviderInfo describes a supported provider for listings and defaults.
type ProviderInfo struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Models         []string `json:"models" yaml:"models"`
	DefaultBaseURL string   `json:"default_base_url" yaml:"default_base_url"`
	RequiresAPIKey bool     `json:"requires_api_key" yaml:"requires_api_key"`
}

// Moonshot accepts region aliases in place of a base URL.
const (
	moonshotChinaURL         = "https://api.moonshot.cn/v1"
	moonshotInternationalURL = "https://api.moonshot.ai/v1"
)

var catalog = map[string]ProviderInfo{
	"openai": {
		ID:             "openai",
		Name:           "OpenAI",
		Description:    "OpenAI GPT models",
		Models:         []string{"gpt-4o", "gpt-4o-mini", "o3-mini", "o4-mini"},
		DefaultBaseURL: "https://api.openai.com/v1",
		RequiresAPIKey: true,
	},
	"anthropic": {
		ID:             "anthropic",
		Name:           "Anthropic",
		Description:    "Claude models",
		Models:         []string{"claude-3-7-sonnet-20250219", "claude-3-5-sonnet-20241022"},
		DefaultBaseURL: "https://api.anthropic.com",
		RequiresAPIKey: true,
	},
	"gemini": {
		ID:             "gemini",
		Name:           "Google Gemini",
		Description:    "Gemini models",
		Models:         []string{"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-flash"},
		DefaultBaseURL: "https://generativelanguage.googleapis.com/v1beta",
		RequiresAPIKey: true,
	},
	"deepseek": {
		ID:             "deepseek",
		Name:           "DeepSeek",
		Description:    "DeepSeek models",
		Models:         []string{"deepseek-chat", "deepseek-reasoner"},
		DefaultBaseURL: "https://api.deepseek.com/v1",
		RequiresAPIKey: true,
	},
	"moonshot": {
		ID:             "moonshot",
		Name:           "Moonshot",
		Description:    "Moonshot AI models",
		Models:         []string{"kimi-k2-0711-preview", "kimi-k2-turbo-preview", "moonshot-v1-128k-vision-preview"},
		DefaultBaseURL: moonshotInternationalURL,
		RequiresAPIKey: true,
	},
	"openrouter": {
		ID:             "openrouter",
		Name:           "OpenRouter",
		Description:    "Models routed through OpenRouter",
		Models:         []string{"openai/gpt-4o-mini", "anthropic/claude-3.5-sonnet"},
		DefaultBaseURL: "https://openrouter.ai/api/v1",
		RequiresAPIKey: true,
	},
	"ollama": {
		ID:             "ollama",
		Name:           "Ollama",
		Description:    "Local models served by Ollama",
		Models:         []string{"llama3", "qwen2.5-coder"},
		DefaultBaseURL: "http://localhost:11434/api",
		RequiresAPIKey: false,
	},
}

// LookupProvider returns the catalog entry for name (case-insensitive).
func LookupProvider(name string) (ProviderInfo, bool) {
	info, ok := catalog[strings.ToLower(strings.TrimSpace(name))]
	return info, ok
}

// AvailableProviders returns every catalog entry ordered by id.
func AvailableProviders() []ProviderInfo {
	list := make([]ProviderInfo, 0, len(catalog))
	for _, info := range catalog {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// ResolveBaseURL applies provider defaults and the moonshot region aliases.
func ResolveBaseURL(provider, baseURL string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	baseURL = strings.TrimSpace(baseURL)

	if provider == "moonshot" {
		switch strings.ToLower(baseURL) {
		case "china":
			return moonshotChinaURL
		case "", "international":
			return moonshotInternationalURL
		}
	}

	if baseURL == "" {
		if info, ok := catalog[provider]; ok {
			return info.DefaultBaseURL
		}
	}
	return baseURL
}

// NewChatProvider builds the adapter for config.Provider, wrapped with token
// accounting, metrics and logging.
func NewChatProvider(config *AIProviderConfig, tokenManagement contracts_token.ITokenManagement, logger *zap.Logger) (contracts.IChatAIProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("ai provider configuration is missing")
	}

	info, ok := LookupProvider(config.Provider)
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}

	baseURL := ResolveBaseURL(info.ID, config.BaseURL)

	var provider contracts.IChatAIProvider
	switch info.ID {
	case "anthropic":
		provider = anthropic.NewAnthropicMessagesProvider(&anthropic.AnthropicConfig{
			BaseURL:    baseURL,
			Model:      config.Model,
			ApiKey:     config.ApiKey,
			ApiVersion: config.ApiVersion,
			Timeout:    config.Timeout,
		})
	case "gemini":
		provider = gemini.NewGeminiChatProvider(&gemini.GeminiConfig{
			BaseURL: baseURL,
			Model:   config.Model,
			ApiKey:  config.ApiKey,
			Timeout: config.Timeout,
		})
	case "ollama":
		provider = ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL: baseURL,
			Model:   config.Model,
			Timeout: config.Timeout,
		})
	default:
		provider = openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			ProviderName:   info.ID,
			BaseURL:        baseURL,
			Model:          config.Model,
			ApiKey:         config.ApiKey,
			RequiresAPIKey: info.RequiresAPIKey,
			Timeout:        config.Timeout,
		})
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &instrumentedProvider{
		next:            provider,
		model:           config.Model,
		tokenManagement: tokenManagement,
		logger:          logger.Named("provider").With(zap.String("provider", info.ID)),
	}, nil
}

type instrumentedProvider struct {
	next            contracts.IChatAIProvider
	model           string
	tokenManagement contracts_token.ITokenManagement
	logger          *zap.Logger
}

func (p *instrumentedProvider) Name() string {
	return p.next.Name()
}

func (p *instrumentedProvider) Validate() error {
	return p.next.Validate()
}

func (p *instrumentedProvider) TestConnection(ctx context.Context) error {
	return p.next.TestConnection(ctx)
}

func (p *instrumentedProvider) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()
	resp, err := p.next.ChatCompletionRequest(ctx, request)
	elapsed := time.Since(start)

	metrics.RecordAIRequest(p.next.Name(), elapsed, err == nil)

	if err != nil {
		p.logger.Warn("chat completion failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, err
	}

	metrics.RecordTokens(p.next.Name(), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if p.tokenManagement != nil {
		p.tokenManagement.UsedTokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	p.logger.Debug("chat completion",
		zap.String("model", p.model),
		zap.Duration("elapsed", elapsed),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp, nil
}
