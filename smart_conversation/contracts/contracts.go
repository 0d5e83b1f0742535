package contracts

import (
	"context"

	"github.com/meysamhadeli/gitai/smart_conversation/models"
)

// IFileSelector turns a question into a ranked shortlist of files.
type IFileSelector interface {
	Name() string
	SelectFiles(ctx context.Context, request models.SelectionRequest) ([]models.FileCandidate, error)
}

// IContextTracker remembers the files read during one conversation.
type IContextTracker interface {
	TrackFileRead(filePath string, content string)
	GetRelevantContext(query string) map[string]models.ReadHistoryEntry
	GetReadHistory() map[string]models.ReadHistoryEntry
}

type ISmartChat interface {
	ProcessSmartChat(ctx context.Context, conversationID string, projectPath string, query string) *models.SmartChatResult
}
