package models

import (
	"time"

	file_models "github.com/meysamhadeli/gitai/project_files/models"
)

// Priority tiers, highest wins when a file is matched more than once.
const (
	PriorityExactFilename    = 20
	PriorityAIModuleIntent   = 18
	PriorityDependencyIntent = 16
	PriorityKeywordMapping   = 15
	PriorityFileTypeCategory = 10
	PriorityDefaultConfig    = 5
	PriorityFallback         = 1

	// PriorityModelSelection is given to every file chosen by the AI selector.
	PriorityModelSelection = PriorityKeywordMapping
)

// MaxShortlist is the largest shortlist the ranker returns.
const MaxShortlist = 8

// FileCandidate is a file proposed for reading, keyed by its relative path.
type FileCandidate struct {
	FilePath string `json:"file_path" yaml:"file_path"`
	Reason   string `json:"reason" yaml:"reason"`
	Priority int    `json:"priority" yaml:"priority"`
}

// ReadHistoryEntry records the last read of one file within a conversation.
type ReadHistoryEntry struct {
	FilePath      string    `json:"file_path" yaml:"file_path"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
	Preview       string    `json:"preview" yaml:"preview"`
	ContentLength int       `json:"content_length" yaml:"content_length"`
}

// ReadOutcome audits one shortlist entry through the auto file reader.
type ReadOutcome struct {
	RequestedPath string `json:"requested_path" yaml:"requested_path"`
	ResolvedPath  string `json:"resolved_path,omitempty" yaml:"resolved_path,omitempty"`
	OK            bool   `json:"ok" yaml:"ok"`
	Corrected     bool   `json:"corrected" yaml:"corrected"`
	Err           string `json:"error,omitempty" yaml:"error,omitempty"`
}

// State is a step of the smart chat state machine.
type State string

const (
	StateIdle            State = "idle"
	StateAnalyzingIntent State = "analyzing_intent"
	StateReadingFiles    State = "reading_files"
	StateSynthesizing    State = "synthesizing"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

const ToolReadProjectFile = "read_project_file"

type ToolCallArguments struct {
	ProjectPath string `json:"project_path" yaml:"project_path"`
	FilePath    string `json:"file_path" yaml:"file_path"`
}

type ToolCallResult struct {
	Success  bool   `json:"success" yaml:"success"`
	Content  string `json:"content" yaml:"content"`
	FilePath string `json:"file_path" yaml:"file_path"`
}

// ToolCall is the audit record of one file read performed for an answer.
type ToolCall struct {
	ToolName  string            `json:"tool_name" yaml:"tool_name"`
	Arguments ToolCallArguments `json:"arguments" yaml:"arguments"`
	Result    ToolCallResult    `json:"result" yaml:"result"`
	Reason    string            `json:"reason" yaml:"reason"`
}

type AnalysisContext struct {
	Query           string          `json:"query" yaml:"query"`
	Selector        string          `json:"selector" yaml:"selector"`
	SelectedFiles   []FileCandidate `json:"selected_files" yaml:"selected_files"`
	SuccessfulReads int             `json:"successful_reads" yaml:"successful_reads"`
	ContextFiles    []string        `json:"context_files" yaml:"context_files"`
	ReadOutcomes    []ReadOutcome   `json:"read_outcomes" yaml:"read_outcomes"`
}

// SmartChatResult is returned for every request. A failed request carries Error
// and an empty ToolCalls list.
type SmartChatResult struct {
	Response        string           `json:"response" yaml:"response"`
	ToolCalls       []ToolCall       `json:"tool_calls" yaml:"tool_calls"`
	ConversationID  string           `json:"conversation_id" yaml:"conversation_id"`
	AnalysisContext *AnalysisContext `json:"analysis_context,omitempty" yaml:"analysis_context,omitempty"`
	State           State            `json:"state" yaml:"state"`
	Error           string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// SelectionRequest is the input of a file selector.
type SelectionRequest struct {
	ProjectPath string
	Query       string
	Tree        *file_models.FileTreeNode
}
