package contracts

import (
	"context"

	"github.com/meysamhadeli/gitai/code_analyzer/models"
)

type ICodeAnalyzer interface {
	ProcessFile(filePath string, sourceCode []byte) []string
	Outline(ctx context.Context, rootDir string, relativePath string) (*models.FileOutline, error)
	RepositoryMap(ctx context.Context, rootDir string, relativePaths []string) string
}
