package contracts

import (
	"context"

	"github.com/meysamhadeli/gitai/providers/models"
)

type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, request models.ChatRequest) (*models.ChatResponse, error)
	// Validate checks the adapter has everything it needs before any network call.
	Validate() error
	TestConnection(ctx context.Context) error
	Name() string
}
