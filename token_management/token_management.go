package token_management

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/embed_data"
	"github.com/meysamhadeli/gitai/token_management/contracts"
)

// tokenManager accumulates usage across every AI call of the process.
// A single request may run two calls (selector and synthesizer) and the
// HTTP server runs requests concurrently, so counters are guarded.
type tokenManager struct {
	mu              sync.Mutex
	usedToken       int
	usedInputToken  int
	usedOutputToken int
}

type details struct {
	MaxTokens                  int     `json:"max_tokens"`
	MaxInputTokens             int     `json:"max_input_tokens"`
	MaxOutputTokens            int     `json:"max_output_tokens"`
	InputCostPerMillionTokens  float64 `json:"input_cost_per_million_tokens,omitempty"`
	OutputCostPerMillionTokens float64 `json:"output_cost_per_million_tokens,omitempty"`
	Mode                       string  `json:"mode"`
}

type Models struct {
	ModelDetails map[string]details `json:"models"`
}

var (
	pricesOnce sync.Once
	prices     Models
	pricesErr  error
)

// NewTokenManager creates a new token manager
func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// UsedTokens accumulates the token count for the session.
func (tm *tokenManager) UsedTokens(inputToken int, outputToken int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenManager) TokenSummary(chatProviderName string, chatModel string) string {
	total, input, output := tm.GetCurrentTokenUsage()
	cost := tm.CalculateCost(chatProviderName, chatModel, input, output)
	return fmt.Sprintf("Token Used: %d - Cost: %.6f $ - Chat Model: %s", total, cost, chatModel)
}

func (tm *tokenManager) DisplayTokens(chatProviderName string, chatModel string) {
	fmt.Println(lipgloss.BoxStyle.Render(tm.TokenSummary(chatProviderName, chatModel)))
}

func (tm *tokenManager) GetCurrentTokenUsage() (total int, input int, output int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	return tm.usedToken, tm.usedInputToken, tm.usedOutputToken
}

func (tm *tokenManager) ClearToken() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedOutputToken = 0
}

func (tm *tokenManager) CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64 {
	modelDetails, err := getModelDetails(providerName, modelName)
	if err != nil {
		return 0
	}
	inputCost := float64(inputToken) * modelDetails.InputCostPerMillionTokens / 1000000.0
	outputCost := float64(outputToken) * modelDetails.OutputCostPerMillionTokens / 1000000.0

	return inputCost + outputCost
}

func getModelDetails(providerName string, modelName string) (details, error) {
	pricesOnce.Do(func() {
		prices = Models{ModelDetails: make(map[string]details)}
		pricesErr = json.Unmarshal(embed_data.ModelDetails, &prices)
	})
	if pricesErr != nil {
		return details{}, fmt.Errorf("error unmarshaling model details: %w", pricesErr)
	}

	providerName = strings.ToLower(providerName)
	modelName = strings.ToLower(modelName)

	// openrouter style names carry a vendor prefix
	if i := strings.LastIndex(modelName, "/"); i >= 0 {
		modelName = modelName[i+1:]
	}

	model, exists := prices.ModelDetails[modelName]
	if !exists {
		return details{}, fmt.Errorf("model details price with name '%s' not found for provider '%s'", modelName, providerName)
	}

	return model, nil
}
