package smart_conversation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meysamhadeli/gitai/providers/contracts"
	provider_models "github.com/meysamhadeli/gitai/providers/models"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"go.uber.org/zap"
)

const (
	synthesisTemperature = 0.7
	synthesisMaxTokens   = 1500
	fileExcerptLength    = 1000

	synthesisSystemPrompt = "You are a professional code-analysis assistant, good at in-depth project analysis based on code file contents."
)

// FileContent is one file handed to the synthesizer, in shortlist order.
type FileContent struct {
	Path    string
	Content string
}

type SynthesisInput struct {
	ProjectPath string
	Query       string
	Files       []FileContent
	Context     map[string]models.ReadHistoryEntry
}

// ResponseSynthesizer asks the AI provider for the final answer.
type ResponseSynthesizer struct {
	provider contracts.IChatAIProvider
	logger   *zap.Logger
}

func NewResponseSynthesizer(provider contracts.IChatAIProvider, logger *zap.Logger) *ResponseSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseSynthesizer{provider: provider, logger: logger.Named("synthesizer")}
}

// BuildPrompt renders the user message of the synthesis request.
func BuildPrompt(input SynthesisInput) string {
	var builder strings.Builder

	builder.WriteString("You are a professional code-analysis assistant. Answer the user's question using the project files below.\n\n")
	fmt.Fprintf(&builder, "User question: %s\n", input.Query)
	fmt.Fprintf(&builder, "Project path: %s\n\n", input.ProjectPath)

	if len(input.Context) > 0 {
		paths := make([]string, 0, len(input.Context))
		for filePath := range input.Context {
			paths = append(paths, filePath)
		}
		sort.Strings(paths)

		builder.WriteString("Related context files:\n")
		for _, filePath := range paths {
			fmt.Fprintf(&builder, "- %s (last read: %s)\n", filePath, input.Context[filePath].Timestamp.Format(time.RFC3339))
		}
		builder.WriteString("\n")
	}

	if len(input.Files) > 0 {
		builder.WriteString("Project file contents:\n\n")
		for _, file := range input.Files {
			fmt.Fprintf(&builder, "File: %s\nContent:\n%s\n", file.Path, truncateRunes(file.Content, fileExcerptLength))
			builder.WriteString(strings.Repeat("-", 50))
			builder.WriteString("\n\n")
		}
	} else {
		builder.WriteString("No project file could be read for this question.\n\n")
	}

	builder.WriteString("Give a detailed and accurate answer based on the file contents above. Reference the relevant files where it helps.")
	return builder.String()
}

// Validate reports a configuration error before any AI call is made.
func (s *ResponseSynthesizer) Validate() error {
	if s.provider == nil {
		return fmt.Errorf("ai provider is not configured")
	}
	if err := s.provider.Validate(); err != nil {
		return fmt.Errorf("ai provider is not configured: %w", err)
	}
	return nil
}

// Synthesize sends one blocking completion request and returns the answer text as is.
func (s *ResponseSynthesizer) Synthesize(ctx context.Context, input SynthesisInput) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	request := provider_models.ChatRequest{
		Messages: []provider_models.Message{
			{Role: provider_models.RoleSystem, Content: synthesisSystemPrompt},
			{Role: provider_models.RoleUser, Content: BuildPrompt(input)},
		},
		Temperature: synthesisTemperature,
		MaxTokens:   synthesisMaxTokens,
	}

	s.logger.Debug("requesting answer", zap.Int("files", len(input.Files)), zap.Int("context_files", len(input.Context)))
	response, err := s.provider.ChatCompletionRequest(ctx, request)
	if err != nil {
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	return response.Content, nil
}
