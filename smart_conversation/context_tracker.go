package smart_conversation

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/meysamhadeli/gitai/smart_conversation/contracts"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
)

const (
	previewLength = 200
	ellipsis      = "..."
)

// FileContextTracker keeps the last read of every file in a conversation.
type FileContextTracker struct {
	mu          sync.RWMutex
	readHistory map[string]models.ReadHistoryEntry
	now         func() time.Time
}

func NewFileContextTracker() contracts.IContextTracker {
	return newFileContextTracker(time.Now)
}

func newFileContextTracker(now func() time.Time) *FileContextTracker {
	return &FileContextTracker{
		readHistory: make(map[string]models.ReadHistoryEntry),
		now:         now,
	}
}

// truncateRunes cuts s to n runes, appending "..." when something was cut.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + ellipsis
}

func (t *FileContextTracker) TrackFileRead(filePath string, content string) {
	entry := models.ReadHistoryEntry{
		FilePath:      filePath,
		Timestamp:     t.now(),
		Preview:       truncateRunes(content, previewLength),
		ContentLength: utf8.RuneCountInString(content),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.readHistory[filePath] = entry
}

// GetRelevantContext returns the entries whose path or preview contains any whitespace
// separated token of the query, compared case-insensitively.
func (t *FileContextTracker) GetRelevantContext(query string) map[string]models.ReadHistoryEntry {
	tokens := strings.Fields(strings.ToLower(query))
	relevant := make(map[string]models.ReadHistoryEntry)
	if len(tokens) == 0 {
		return relevant
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for filePath, entry := range t.readHistory {
		path := strings.ToLower(filePath)
		preview := strings.ToLower(entry.Preview)
		for _, token := range tokens {
			if strings.Contains(path, token) || strings.Contains(preview, token) {
				relevant[filePath] = entry
				break
			}
		}
	}
	return relevant
}

func (t *FileContextTracker) GetReadHistory() map[string]models.ReadHistoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	history := make(map[string]models.ReadHistoryEntry, len(t.readHistory))
	for filePath, entry := range t.readHistory {
		history[filePath] = entry
	}
	return history
}
