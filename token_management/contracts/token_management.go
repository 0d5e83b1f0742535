package contracts

// ITokenManagement accumulates the token usage of every AI call in the session.
type ITokenManagement interface {
	UsedTokens(inputToken int, outputToken int)
	// CalculateCost estimates the cost in USD from the embedded price table; unknown models cost 0.
	CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64
	DisplayTokens(chatProviderName string, chatModel string)
	TokenSummary(chatProviderName string, chatModel string) string
	GetCurrentTokenUsage() (total int, input int, output int)
	ClearToken()
}
