package smart_conversation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/meysamhadeli/gitai/project_files"
	file_contracts "github.com/meysamhadeli/gitai/project_files/contracts"
	file_models "github.com/meysamhadeli/gitai/project_files/models"
	provider_models "github.com/meysamhadeli/gitai/providers/models"
	"github.com/stretchr/testify/require"
)

// buildTree turns relative file paths into a tree the way ListProjectFiles shapes it.
func buildTree(paths ...string) *file_models.FileTreeNode {
	root := &file_models.FileTreeNode{Name: "project", Kind: file_models.KindDirectory}
	for _, p := range paths {
		parts := strings.Split(p, "/")
		current := root
		for i, part := range parts {
			relative := strings.Join(parts[:i+1], "/")
			if i == len(parts)-1 {
				current.Children = append(current.Children, &file_models.FileTreeNode{Name: part, Kind: file_models.KindFile, Path: relative})
				break
			}
			var next *file_models.FileTreeNode
			for _, child := range current.Children {
				if child.Name == part && !child.IsFile() {
					next = child
					break
				}
			}
			if next == nil {
				next = &file_models.FileTreeNode{Name: part, Kind: file_models.KindDirectory, Path: relative}
				current.Children = append(current.Children, next)
			}
			current = next
		}
	}
	return root
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func newFileAccess() file_contracts.IFileAccess {
	return project_files.NewProjectFiles(nil, nil)
}

// fakeProvider answers every request with the queued replies, then with answer.
type fakeProvider struct {
	mu          sync.Mutex
	answer      string
	replies     []string
	err         error
	validateErr error
	requests    []provider_models.ChatRequest
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Validate() error { return p.validateErr }

func (p *fakeProvider) TestConnection(ctx context.Context) error { return p.err }

func (p *fakeProvider) ChatCompletionRequest(ctx context.Context, request provider_models.ChatRequest) (*provider_models.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, request)
	if p.err != nil {
		return nil, p.err
	}
	content := p.answer
	if len(p.replies) > 0 {
		content, p.replies = p.replies[0], p.replies[1:]
	}
	return &provider_models.ChatResponse{Content: content}, nil
}

func (p *fakeProvider) Requests() []provider_models.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]provider_models.ChatRequest(nil), p.requests...)
}
