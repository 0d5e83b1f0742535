package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meysamhadeli/gitai/providers/models"
	"github.com/meysamhadeli/gitai/token_management"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupProvider(t *testing.T) {
	info, ok := LookupProvider(" DeepSeek ")
	require.True(t, ok)
	assert.Equal(t, "https://api.deepseek.com/v1", info.DefaultBaseURL)
	assert.True(t, info.RequiresAPIKey)

	_, ok = LookupProvider("azure")
	assert.False(t, ok)
}

func TestAvailableProviders_Sorted(t *testing.T) {
	list := AvailableProviders()
	require.Len(t, list, len(catalog))
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}

func TestResolveBaseURL(t *testing.T) {
	assert.Equal(t, moonshotChinaURL, ResolveBaseURL("moonshot", "china"))
	assert.Equal(t, moonshotInternationalURL, ResolveBaseURL("moonshot", "international"))
	assert.Equal(t, moonshotInternationalURL, ResolveBaseURL("moonshot", ""))
	assert.Equal(t, "https://proxy.local/v1", ResolveBaseURL("moonshot", "https://proxy.local/v1"))
	assert.Equal(t, "https://api.deepseek.com/v1", ResolveBaseURL("deepseek", ""))
	assert.Equal(t, "http://localhost:9999", ResolveBaseURL("openai", "http://localhost:9999"))
}

func TestNewChatProvider_Unsupported(t *testing.T) {
	_, err := NewChatProvider(&AIProviderConfig{Provider: "nope"}, nil, nil)
	assert.Error(t, err)
}

func TestNewChatProvider_MissingKey(t *testing.T) {
	provider, err := NewChatProvider(&AIProviderConfig{Provider: "anthropic", Model: "claude-3-5-sonnet-20241022"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider.Name())
	assert.ErrorIs(t, provider.Validate(), models.ErrMissingAPIKey)
}

func TestNewChatProvider_RecordsTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":30,"completion_tokens":10,"total_tokens":40}}`))
	}))
	defer server.Close()

	tm := token_management.NewTokenManager()
	provider, err := NewChatProvider(&AIProviderConfig{Provider: "openrouter", BaseURL: server.URL, Model: "openai/gpt-4o-mini", ApiKey: "k"}, tm, nil)
	require.NoError(t, err)

	resp, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{Messages: []models.Message{{Role: models.RoleUser, Content: "q"}}})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)

	total, input, output := tm.GetCurrentTokenUsage()
	assert.Equal(t, 40, total)
	assert.Equal(t, 30, input)
	assert.Equal(t, 10, output)
}
