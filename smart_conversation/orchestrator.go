package smart_conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/meysamhadeli/gitai/metrics"
	file_contracts "github.com/meysamhadeli/gitai/project_files/contracts"
	"github.com/meysamhadeli/gitai/smart_conversation/contracts"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"go.uber.org/zap"
)

const DefaultMaxTreeDepth = 10

// SmartConversationManager runs a question through selection, reading and synthesis.
type SmartConversationManager struct {
	selector     contracts.IFileSelector
	fileAccess   file_contracts.IFileAccess
	reader       *AutoFileReader
	synthesizer  *ResponseSynthesizer
	store        *ConversationStore
	maxTreeDepth int
	logger       *zap.Logger
}

type ManagerOptions struct {
	Selector     contracts.IFileSelector
	FileAccess   file_contracts.IFileAccess
	Synthesizer  *ResponseSynthesizer
	Store        *ConversationStore
	MaxTreeDepth int
	Logger       *zap.Logger
}

func NewSmartConversationManager(options ManagerOptions) contracts.ISmartChat {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := options.Store
	if store == nil {
		store = NewConversationStore(DefaultMaxConversations, DefaultConversationTTL)
	}
	maxTreeDepth := options.MaxTreeDepth
	if maxTreeDepth <= 0 {
		maxTreeDepth = DefaultMaxTreeDepth
	}

	return &SmartConversationManager{
		selector:     options.Selector,
		fileAccess:   options.FileAccess,
		reader:       NewAutoFileReader(options.FileAccess, logger),
		synthesizer:  options.Synthesizer,
		store:        store,
		maxTreeDepth: maxTreeDepth,
		logger:       logger.Named("smart_chat"),
	}
}

// run tracks the state of one request.
type run struct {
	state  models.State
	logger *zap.Logger
}

func (r *run) enter(state models.State) {
	r.logger.Debug("state change", zap.String("from", string(r.state)), zap.String("to", string(state)))
	r.state = state
}

func failedResult(conversationID string, err error) *models.SmartChatResult {
	return &models.SmartChatResult{
		Response:       fmt.Sprintf("error processing request: %s", err.Error()),
		ToolCalls:      []models.ToolCall{},
		ConversationID: conversationID,
		State:          models.StateFailed,
		Error:          err.Error(),
	}
}

// ProcessSmartChat answers one question. It never panics and never returns nil; failures are
// reported in the result.
func (m *SmartConversationManager) ProcessSmartChat(ctx context.Context, conversationID string, projectPath string, query string) (result *models.SmartChatResult) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	started := time.Now()
	selectorName := "none"
	if m.selector != nil {
		selectorName = m.selector.Name()
	}
	r := &run{
		state:  models.StateIdle,
		logger: m.logger.With(zap.String("conversation_id", conversationID)),
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("smart chat panicked", zap.Any("panic", recovered), zap.String("state", string(r.state)))
			result = failedResult(conversationID, fmt.Errorf("internal error: %v", recovered))
		}
		metrics.RecordSmartChat(selectorName, string(result.State), time.Since(started))
	}()

	conversation, release := m.store.Acquire(conversationID)
	defer release()

	answer, analysis, toolCalls, err := m.process(ctx, r, conversation, projectPath, query)
	if err != nil {
		r.enter(models.StateFailed)
		r.logger.Error("smart chat failed", zap.Error(err))
		return failedResult(conversationID, err)
	}

	r.enter(models.StateDone)
	return &models.SmartChatResult{
		Response:        answer,
		ToolCalls:       toolCalls,
		ConversationID:  conversationID,
		AnalysisContext: analysis,
		State:           models.StateDone,
	}
}

func (m *SmartConversationManager) process(ctx context.Context, r *run, conversation *Conversation, projectPath string, query string) (string, *models.AnalysisContext, []models.ToolCall, error) {
	if m.selector == nil || m.fileAccess == nil || m.synthesizer == nil {
		return "", nil, nil, errors.New("smart chat is not fully configured")
	}
	if err := m.synthesizer.Validate(); err != nil {
		return "", nil, nil, err
	}

	r.enter(models.StateAnalyzingIntent)
	tree, err := m.fileAccess.ListProjectFiles(ctx, projectPath, m.maxTreeDepth)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to list project files: %w", err)
	}

	shortlist, err := m.selector.SelectFiles(ctx, models.SelectionRequest{ProjectPath: projectPath, Query: query, Tree: tree})
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to select files: %w", err)
	}
	if len(shortlist) == 0 {
		r.logger.Info("no file matched, using default files")
		shortlist = FallbackShortlist()
		shortlist[0].Reason = "default project documentation"
		shortlist[1].Reason = "default project configuration"
	}
	metrics.ObserveShortlist(len(shortlist))

	r.enter(models.StateReadingFiles)
	contents, outcomes, err := m.reader.ReadFiles(ctx, projectPath, shortlist)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to read files: %w", err)
	}

	files := make([]FileContent, 0, len(contents))
	seen := make(map[string]struct{}, len(contents))
	toolCalls := make([]models.ToolCall, 0, len(shortlist))
	for i, candidate := range shortlist {
		outcome := outcomes[i]
		resultPath := candidate.FilePath
		content := ""
		if outcome.OK {
			resultPath = outcome.ResolvedPath
			content = contents[resultPath]
			if _, ok := seen[resultPath]; !ok {
				seen[resultPath] = struct{}{}
				conversation.Tracker.TrackFileRead(resultPath, content)
				files = append(files, FileContent{Path: resultPath, Content: content})
			}
		}

		toolCalls = append(toolCalls, models.ToolCall{
			ToolName:  models.ToolReadProjectFile,
			Arguments: models.ToolCallArguments{ProjectPath: projectPath, FilePath: candidate.FilePath},
			Result:    models.ToolCallResult{Success: outcome.OK, Content: content, FilePath: resultPath},
			Reason:    candidate.Reason,
		})
	}

	relevant := conversation.Tracker.GetRelevantContext(query)
	contextFiles := make([]string, 0, len(relevant))
	for filePath := range relevant {
		contextFiles = append(contextFiles, filePath)
	}
	sort.Strings(contextFiles)

	r.logger.Info("files read",
		zap.Int("shortlist", len(shortlist)),
		zap.Int("read", len(files)),
		zap.Int("context_files", len(contextFiles)),
	)

	r.enter(models.StateSynthesizing)
	answer, err := m.synthesizer.Synthesize(ctx, SynthesisInput{
		ProjectPath: projectPath,
		Query:       query,
		Files:       files,
		Context:     relevant,
	})
	if err != nil {
		return "", nil, nil, err
	}

	analysis := &models.AnalysisContext{
		Query:           query,
		Selector:        m.selector.Name(),
		SelectedFiles:   shortlist,
		SuccessfulReads: len(files),
		ContextFiles:    contextFiles,
		ReadOutcomes:    outcomes,
	}
	return answer, analysis, toolCalls, nil
}
