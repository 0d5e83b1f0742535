package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/meysamhadeli/gitai/project_files"
	file_models "github.com/meysamhadeli/gitai/project_files/models"
	"github.com/meysamhadeli/gitai/repository"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	mu    sync.Mutex
	calls []string
}

func (c *fakeChat) ProcessSmartChat(ctx context.Context, conversationID string, projectPath string, query string) *models.SmartChatResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, projectPath+"|"+query)
	return &models.SmartChatResult{
		Response:       "answer to " + query,
		ToolCalls:      []models.ToolCall{},
		ConversationID: conversationID,
		State:          models.StateDone,
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeChat, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("print('hi')"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "ai.py"), []byte("class AI: pass"), 0644))

	repos, err := repository.OpenRepositoryStore(filepath.Join(t.TempDir(), "gitai.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	_, err = repos.Add(context.Background(), root, "demo", "")
	require.NoError(t, err)

	chat := &fakeChat{}
	srv := NewServer(Options{
		Chat:         chat,
		FileAccess:   project_files.NewProjectFiles(nil, nil),
		Repositories: repos,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, chat, root
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestProviders(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/providers")
	require.NoError(t, err)

	var body struct {
		Providers []struct {
			ID string `json:"id"`
		} `json:"providers"`
	}
	decode(t, resp, &body)
	var ids []string
	for _, p := range body.Providers {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, "openai")
	assert.Contains(t, ids, "ollama")
}

func TestProjectTree(t *testing.T) {
	ts, _, root := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/projects/tree?path=" + root)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tree file_models.FileTreeNode
	decode(t, resp, &tree)
	assert.Equal(t, []string{"app/ai.py", "main.py"}, tree.Files())

	resp, err = http.Get(ts.URL + "/api/projects/tree?repo=demo&max_depth=0")
	require.NoError(t, err)
	var shallow file_models.FileTreeNode
	decode(t, resp, &shallow)
	assert.Equal(t, []string{"main.py"}, shallow.Files())
}

func TestProjectTree_Errors(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/projects/tree?path=/definitely/not/here")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/projects/tree?repo=unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/projects/tree")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProjectFile(t *testing.T) {
	ts, _, root := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/projects/file?path=" + root + "&file=app/ai.py")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Content string `json:"content"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "class AI: pass", body.Content)

	resp, err = http.Get(ts.URL + "/api/projects/file?path=" + root + "&file=../../etc/passwd")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/projects/file?path=" + root + "&file=nope.py")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSmartChat(t *testing.T) {
	ts, chat, root := newTestServer(t)

	body := `{"conversation_id": "c1", "repo": "demo", "query": "explain the ai.py module"}`
	resp, err := http.Post(ts.URL+"/api/smart-chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.SmartChatResult
	decode(t, resp, &result)
	assert.Equal(t, "answer to explain the ai.py module", result.Response)
	assert.Equal(t, "c1", result.ConversationID)
	assert.Equal(t, models.StateDone, result.State)

	normalized, err := repository.NormalizePath(root)
	require.NoError(t, err)
	assert.Equal(t, []string{normalized + "|explain the ai.py module"}, chat.calls)
}

func TestSmartChat_BadRequests(t *testing.T) {
	ts, chat, root := newTestServer(t)

	for _, body := range []string{
		`not json`,
		`{"project_path": "` + root + `"}`,
		`{"project_path": "` + root + `", "query": "q", "unexpected": true}`,
	} {
		resp, err := http.Post(ts.URL+"/api/smart-chat", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Empty(t, chat.calls)
}

func TestRepositories(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/repositories")
	require.NoError(t, err)

	var body struct {
		Repositories []struct {
			Name string `json:"name"`
		} `json:"repositories"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Repositories, 1)
	assert.Equal(t, "demo", body.Repositories[0].Name)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_StopsOnCancel(t *testing.T) {
	srv := NewServer(Options{Chat: &fakeChat{}, FileAccess: project_files.NewProjectFiles(nil, nil)})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}
