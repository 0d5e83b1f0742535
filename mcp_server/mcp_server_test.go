package mcp_server

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meysamhadeli/gitai/project_files"
	file_models "github.com/meysamhadeli/gitai/project_files/models"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	result *models.SmartChatResult
}

func (c *fakeChat) ProcessSmartChat(ctx context.Context, conversationID string, projectPath string, query string) *models.SmartChatResult {
	return c.result
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func newTestServer(t *testing.T, chat *fakeChat) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app", "core"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# demo"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "core", "ai.py"), []byte("class AI: pass"), 0644))
	return NewServer("test", chat, project_files.NewProjectFiles(nil, nil), nil), root
}

func TestHandleReadProjectFile(t *testing.T) {
	s, root := newTestServer(t, &fakeChat{})

	result, err := s.HandleReadProjectFile(context.Background(), callRequest(map[string]any{"project_path": root, "file_path": "README.md"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "# demo", resultText(t, result))

	result, err = s.HandleReadProjectFile(context.Background(), callRequest(map[string]any{"project_path": root, "file_path": "missing.md"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.HandleReadProjectFile(context.Background(), callRequest(map[string]any{"project_path": root}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "file_path parameter is required", resultText(t, result))
}

func TestHandleListProjectFiles(t *testing.T) {
	s, root := newTestServer(t, &fakeChat{})

	result, err := s.HandleListProjectFiles(context.Background(), callRequest(map[string]any{"project_path": root}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var tree file_models.FileTreeNode
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &tree))
	assert.Equal(t, []string{"app/core/ai.py", "README.md"}, tree.Files())

	result, err = s.HandleListProjectFiles(context.Background(), callRequest(map[string]any{"project_path": root, "max_depth": float64(1)}))
	require.NoError(t, err)
	var shallow file_models.FileTreeNode
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &shallow))
	assert.Equal(t, []string{"README.md"}, shallow.Files())
}

func TestListDepth(t *testing.T) {
	assert.Equal(t, defaultListDepth, listDepth(map[string]any{}))
	assert.Equal(t, defaultListDepth, listDepth(map[string]any{"max_depth": float64(-3)}))
	assert.Equal(t, defaultListDepth, listDepth(map[string]any{"max_depth": "deep"}))
	assert.Equal(t, defaultListDepth, listDepth(map[string]any{"max_depth": math.NaN()}))
	assert.Equal(t, 5, listDepth(map[string]any{"max_depth": float64(5)}))
	assert.Equal(t, maxListDepth, listDepth(map[string]any{"max_depth": 1e300}))
	assert.Equal(t, maxListDepth, listDepth(map[string]any{"max_depth": math.Inf(1)}))
}

func TestHandleListProjectFiles_HugeDepth(t *testing.T) {
	s, root := newTestServer(t, &fakeChat{})

	result, err := s.HandleListProjectFiles(context.Background(), callRequest(map[string]any{"project_path": root, "max_depth": 1e300}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var tree file_models.FileTreeNode
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &tree))
	assert.Equal(t, []string{"app/core/ai.py", "README.md"}, tree.Files())
}

func TestHandleSmartChat(t *testing.T) {
	chat := &fakeChat{result: &models.SmartChatResult{Response: "answer", ConversationID: "c1", State: models.StateDone, ToolCalls: []models.ToolCall{}}}
	s, root := newTestServer(t, chat)

	result, err := s.HandleSmartChat(context.Background(), callRequest(map[string]any{"project_path": root, "query": "what is this"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded models.SmartChatResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, "answer", decoded.Response)

	chat.result = &models.SmartChatResult{Response: "error processing request: boom", Error: "boom", State: models.StateFailed}
	result, err = s.HandleSmartChat(context.Background(), callRequest(map[string]any{"project_path": root, "query": "q"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "error processing request: boom", resultText(t, result))
}
