package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meysamhadeli/gitai/providers/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletionRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		assert.Equal(t, 1500, body.MaxTokens)
		assert.InDelta(t, 0.7, body.Temperature, 1e-9)
		assert.False(t, body.Stream)
		require.Len(t, body.Messages, 2)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`))
	}))
	defer server.Close()

	provider := NewOpenAIChatProvider(&OpenAIConfig{BaseURL: server.URL + "/v1/", Model: "gpt-4o-mini", ApiKey: "secret", RequiresAPIKey: true})

	resp, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: "system"},
			{Role: models.RoleUser, Content: "hi"},
		},
		Temperature: 0.7,
		MaxTokens:   1500,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestChatCompletionRequest_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIChatProvider(&OpenAIConfig{ProviderName: "deepseek", BaseURL: server.URL, Model: "deepseek-chat", ApiKey: "bad", RequiresAPIKey: true})

	_, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}}})
	require.Error(t, err)

	var apiErr *models.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "deepseek", apiErr.Provider)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestValidate_MissingKey(t *testing.T) {
	provider := NewOpenAIChatProvider(&OpenAIConfig{Model: "gpt-4o", RequiresAPIKey: true})

	err := provider.Validate()
	assert.ErrorIs(t, err, models.ErrMissingAPIKey)

	_, err = provider.ChatCompletionRequest(context.Background(), models.ChatRequest{})
	assert.ErrorIs(t, err, models.ErrMissingAPIKey)
}

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	provider := NewOpenAIChatProvider(&OpenAIConfig{BaseURL: server.URL, Model: "gpt-4o", ApiKey: "k", RequiresAPIKey: true})
	assert.NoError(t, provider.TestConnection(context.Background()))
}
