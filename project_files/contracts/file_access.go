package contracts

import (
	"context"

	"github.com/meysamhadeli/gitai/project_files/models"
)

// IFileAccess lists and reads files inside a project root.
type IFileAccess interface {
	ListProjectFiles(ctx context.Context, projectRoot string, maxDepth int) (*models.FileTreeNode, error)
	ReadProjectFile(ctx context.Context, projectRoot string, relativePath string) (string, error)
	GetFileMetadata(ctx context.Context, projectRoot string, relativePath string) (*models.FileMetadata, error)
}

// IContentCache is the subset of the read cache used by file access.
type IContentCache interface {
	GetFileContentCache(filePath string) ([]byte, bool)
	SetFileContentCache(filePath string, content []byte) error
}
