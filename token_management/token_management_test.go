package token_management

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsedTokens_Accumulates(t *testing.T) {
	tm := NewTokenManager()

	tm.UsedTokens(100, 20)
	tm.UsedTokens(50, 5)

	total, input, output := tm.GetCurrentTokenUsage()
	assert.Equal(t, 175, total)
	assert.Equal(t, 150, input)
	assert.Equal(t, 25, output)

	tm.ClearToken()
	total, _, _ = tm.GetCurrentTokenUsage()
	assert.Zero(t, total)
}

func TestUsedTokens_Concurrent(t *testing.T) {
	tm := NewTokenManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.UsedTokens(2, 1)
		}()
	}
	wg.Wait()

	total, _, _ := tm.GetCurrentTokenUsage()
	assert.Equal(t, 150, total)
}

func TestCalculateCost(t *testing.T) {
	tm := NewTokenManager()

	cost := tm.CalculateCost("openai", "gpt-4o-mini", 1000000, 1000000)
	assert.InDelta(t, 0.75, cost, 1e-9)

	assert.InDelta(t, 0.75, tm.CalculateCost("openrouter", "openai/GPT-4o-mini", 1000000, 1000000), 1e-9)
	assert.Zero(t, tm.CalculateCost("ollama", "llama3", 1000, 1000))
}

func TestTokenSummary(t *testing.T) {
	tm := NewTokenManager()
	tm.UsedTokens(10, 5)

	assert.Contains(t, tm.TokenSummary("openai", "gpt-4o"), "Token Used: 15")
}
