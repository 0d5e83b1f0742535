package smart_conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	analyzer_contracts "github.com/meysamhadeli/gitai/code_analyzer/contracts"
	provider_contracts "github.com/meysamhadeli/gitai/providers/contracts"
	provider_models "github.com/meysamhadeli/gitai/providers/models"
	"github.com/meysamhadeli/gitai/smart_conversation/contracts"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"go.uber.org/zap"
)

const (
	selectionTemperature = 0.3
	selectionMaxTokens   = 500
	maxMapFiles          = 400

	selectionSystemPrompt = "You are a professional code-analysis assistant, good at analysing project structure and deciding which files to read to answer a question."
)

// FallbackShortlist is used when the model answer cannot be used.
func FallbackShortlist() []models.FileCandidate {
	return []models.FileCandidate{
		{FilePath: "README.md", Reason: "understand project overview", Priority: models.PriorityFallback},
		{FilePath: "package.json", Reason: "understand dependencies and configuration", Priority: models.PriorityFallback},
	}
}

// AISelector lets the AI model choose the files to read from a repository map.
type AISelector struct {
	provider provider_contracts.IChatAIProvider
	analyzer analyzer_contracts.ICodeAnalyzer
	limit    int
	logger   *zap.Logger
}

// NewAISelector creates the selector. analyzer may be nil, the map then lists paths only.
func NewAISelector(provider provider_contracts.IChatAIProvider, analyzer analyzer_contracts.ICodeAnalyzer, limit int, logger *zap.Logger) contracts.IFileSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AISelector{provider: provider, analyzer: analyzer, limit: limit, logger: logger.Named("ai_selector")}
}

func (s *AISelector) Name() string {
	return SelectorAI
}

func (s *AISelector) repositoryMap(ctx context.Context, request models.SelectionRequest) string {
	files := request.Tree.Files()
	if len(files) > maxMapFiles {
		files = files[:maxMapFiles]
	}
	if s.analyzer != nil {
		return s.analyzer.RepositoryMap(ctx, request.ProjectPath, files)
	}
	return strings.Join(files, "\n") + "\n"
}

func buildSelectionPrompt(query, projectPath, repositoryMap string) string {
	var builder strings.Builder
	builder.WriteString("You are a professional code-analysis assistant. The user has the following question about a project:\n\n")
	fmt.Fprintf(&builder, "User question: %s\n", query)
	fmt.Fprintf(&builder, "Project path: %s\n\n", projectPath)
	builder.WriteString("Project files and their main definitions:\n")
	builder.WriteString(repositoryMap)
	builder.WriteString(`
Decide which files must be read to answer the question. Consider:
1. project configuration files (package.json, requirements.txt, etc.)
2. the main source files
3. documentation files
4. configuration files

Return a JSON array with the relative path of each file and why it is needed:
[
  {
    "file_path": "relative path",
    "reason": "why this file is needed"
  }
]

Only return the 2-3 most important files.`)
	return builder.String()
}

type selectedFile struct {
	FilePath string `json:"file_path"`
	Reason   string `json:"reason"`
}

// parseSelection extracts the JSON array from a model answer, tolerating code fences and prose.
// Each "[" is tried in turn; the first one that starts a non-empty selection wins.
func parseSelection(content string) ([]selectedFile, error) {
	found := false
	var lastErr error
	for offset := 0; ; {
		i := strings.Index(content[offset:], "[")
		if i < 0 {
			break
		}
		start := offset + i
		offset = start + 1

		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(&raw); err != nil {
			lastErr = err
			continue
		}
		files, err := decodeSelection(raw)
		if err != nil {
			lastErr = err
			continue
		}
		found = true
		if len(files) > 0 {
			return files, nil
		}
	}

	if found {
		return nil, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed to parse model answer: %w", lastErr)
	}
	return nil, fmt.Errorf("no JSON array in model answer")
}

func decodeSelection(raw json.RawMessage) ([]selectedFile, error) {
	var files []selectedFile
	if err := json.Unmarshal(raw, &files); err == nil {
		return files, nil
	}

	var paths []string
	if err := json.Unmarshal(raw, &paths); err != nil {
		return nil, err
	}
	for _, p := range paths {
		files = append(files, selectedFile{FilePath: p})
	}
	return files, nil
}

func normalizeSelectedPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return strings.TrimPrefix(p, "/")
}

// resolveSelected maps a model-chosen path onto the tree. A bare file name resolves when it
// names exactly one file.
func resolveSelected(p string, known map[string]struct{}, byName map[string][]string) (string, bool) {
	if _, ok := known[p]; ok {
		return p, true
	}
	if matches := byName[strings.ToLower(p)]; len(matches) == 1 {
		return matches[0], true
	}
	return "", false
}

func (s *AISelector) SelectFiles(ctx context.Context, request models.SelectionRequest) ([]models.FileCandidate, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("ai provider is not configured")
	}
	if err := s.provider.Validate(); err != nil {
		return nil, fmt.Errorf("ai provider is not configured: %w", err)
	}

	chatRequest := provider_models.ChatRequest{
		Messages: []provider_models.Message{
			{Role: provider_models.RoleSystem, Content: selectionSystemPrompt},
			{Role: provider_models.RoleUser, Content: buildSelectionPrompt(request.Query, request.ProjectPath, s.repositoryMap(ctx, request))},
		},
		Temperature: selectionTemperature,
		MaxTokens:   selectionMaxTokens,
	}

	response, err := s.provider.ChatCompletionRequest(ctx, chatRequest)
	if err != nil {
		return nil, fmt.Errorf("file selection request failed: %w", err)
	}

	selected, err := parseSelection(response.Content)
	if err != nil {
		s.logger.Warn("unusable selection, using fallback", zap.Error(err))
		return FallbackShortlist(), nil
	}

	known := make(map[string]struct{})
	byName := make(map[string][]string)
	for _, p := range request.Tree.Files() {
		known[p] = struct{}{}
		name := strings.ToLower(p[strings.LastIndex(p, "/")+1:])
		byName[name] = append(byName[name], p)
	}

	var candidates []models.FileCandidate
	for _, file := range selected {
		p, ok := resolveSelected(normalizeSelectedPath(file.FilePath), known, byName)
		if !ok {
			s.logger.Debug("selected file not in project", zap.String("file", file.FilePath))
			continue
		}
		reason := file.Reason
		if reason == "" {
			reason = "selected by model"
		}
		candidates = append(candidates, models.FileCandidate{FilePath: p, Reason: reason, Priority: models.PriorityModelSelection})
	}

	if len(candidates) == 0 {
		s.logger.Warn("model selected no known file, using fallback")
		return FallbackShortlist(), nil
	}
	return RankCandidates(candidates, s.limit), nil
}
