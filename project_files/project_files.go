package project_files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/meysamhadeli/gitai/project_files/contracts"
	"github.com/meysamhadeli/gitai/project_files/models"
	"github.com/meysamhadeli/gitai/utils"
	"go.uber.org/zap"
)

var (
	ErrFileNotFound        = errors.New("file not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrOutsideProject      = errors.New("path is outside the project directory")
	ErrNotAFile            = errors.New("path is not a file")
	ErrInvalidProjectPath  = errors.New("invalid project path")
	ErrFileTooLarge        = errors.New("file too large")
)

// MaxReadSize caps the size of a single file read.
const MaxReadSize = 1 << 20

var supportedExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {}, ".java": {}, ".cpp": {}, ".c": {}, ".h": {}, ".hpp": {},
	".go": {}, ".rs": {}, ".php": {}, ".rb": {}, ".sh": {}, ".bash": {}, ".sql": {}, ".html": {}, ".htm": {},
	".css": {}, ".scss": {}, ".sass": {}, ".json": {}, ".yml": {}, ".yaml": {}, ".xml": {}, ".md": {}, ".txt": {},
	".config": {}, ".conf": {}, ".ini": {}, ".toml": {}, ".lock": {}, ".gitignore": {}, ".dockerfile": {},
	".env": {}, ".example": {},
}

// Extension-less files that are still worth reading.
var supportedFileNames = map[string]struct{}{
	"dockerfile": {}, "makefile": {}, "readme": {}, "license": {}, "changelog": {},
}

// SupportedExtensions returns the readable extensions in sorted order.
func SupportedExtensions() []string {
	list := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		list = append(list, ext)
	}
	sort.Strings(list)
	return list
}

// IsSupportedFile reports whether name has a readable extension or is a well-known build/doc file.
func IsSupportedFile(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	if _, ok := supportedFileNames[base]; ok {
		return true
	}
	_, ok := supportedExtensions[filepath.Ext(base)]
	return ok
}

// ProjectFiles implements file access rooted at a project directory.
type ProjectFiles struct {
	cache  contracts.IContentCache
	logger *zap.Logger
}

// NewProjectFiles creates file access. cache may be nil to read from disk every time.
func NewProjectFiles(cache contracts.IContentCache, logger *zap.Logger) contracts.IFileAccess {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectFiles{
		cache:  cache,
		logger: logger.Named("project_files"),
	}
}

// ValidateProjectPath returns the absolute, symlink-resolved project directory.
func ValidateProjectPath(projectRoot string) (string, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidProjectPath)
	}

	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidProjectPath, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s does not exist", ErrInvalidProjectPath, projectRoot)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidProjectPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidProjectPath, projectRoot)
	}

	return resolved, nil
}

// resolveFilePath joins relativePath onto root and rejects anything escaping it.
func resolveFilePath(root string, relativePath string) (string, error) {
	candidate := filepath.FromSlash(relativePath)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	candidate = filepath.Clean(candidate)

	if !isWithin(root, candidate) {
		return "", fmt.Errorf("%w: %s", ErrOutsideProject, relativePath)
	}

	// symlinks inside the tree may still point elsewhere
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		if !isWithin(root, resolved) {
			return "", fmt.Errorf("%w: %s", ErrOutsideProject, relativePath)
		}
		candidate = resolved
	}

	return candidate, nil
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func classifyStatError(err error, relativePath string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, relativePath)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, relativePath)
	default:
		return fmt.Errorf("failed to access %s: %w", relativePath, err)
	}
}

func (pf *ProjectFiles) ReadProjectFile(ctx context.Context, projectRoot string, relativePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	root, err := ValidateProjectPath(projectRoot)
	if err != nil {
		return "", err
	}

	path, err := resolveFilePath(root, relativePath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", classifyStatError(err, relativePath)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotAFile, relativePath)
	}
	if !IsSupportedFile(path) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, relativePath)
	}
	if info.Size() > MaxReadSize {
		return "", fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, relativePath, info.Size())
	}

	if pf.cache != nil {
		if content, ok := pf.cache.GetFileContentCache(path); ok {
			return string(content), nil
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", classifyStatError(err, relativePath)
	}

	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), "�"))
	}

	if pf.cache != nil {
		if err := pf.cache.SetFileContentCache(path, content); err != nil {
			pf.logger.Debug("failed to cache file", zap.String("file", relativePath), zap.Error(err))
		}
	}

	return string(content), nil
}

func (pf *ProjectFiles) GetFileMetadata(ctx context.Context, projectRoot string, relativePath string) (*models.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := ValidateProjectPath(projectRoot)
	if err != nil {
		return nil, err
	}

	path, err := resolveFilePath(root, relativePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, classifyStatError(err, relativePath)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, relativePath)
	}

	readable := true
	if f, err := os.Open(path); err != nil {
		readable = false
	} else {
		_ = f.Close()
	}

	return &models.FileMetadata{
		Path:       filepath.ToSlash(relativePath),
		Name:       filepath.Base(path),
		Extension:  strings.ToLower(filepath.Ext(path)),
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		IsReadable: readable,
		Supported:  IsSupportedFile(path),
	}, nil
}

// ListProjectFiles builds the project tree down to maxDepth levels below the root.
// Ignored directories and unsupported files are left out; unreadable
// directories are skipped and logged.
func (pf *ProjectFiles) ListProjectFiles(ctx context.Context, projectRoot string, maxDepth int) (*models.FileTreeNode, error) {
	root, err := ValidateProjectPath(projectRoot)
	if err != nil {
		return nil, err
	}

	ignorePatterns, err := utils.GetGitignorePatterns(root)
	if err != nil {
		pf.logger.Warn("ignore file unreadable", zap.String("root", root), zap.Error(err))
		ignorePatterns = nil
	}

	node := &models.FileTreeNode{
		Name: filepath.Base(root),
		Kind: models.KindDirectory,
		Path: "",
	}

	if err := pf.scanDirectory(ctx, root, "", 0, maxDepth, ignorePatterns, node); err != nil {
		return nil, err
	}

	return node, nil
}

func (pf *ProjectFiles) scanDirectory(ctx context.Context, dir string, relative string, depth int, maxDepth int, ignorePatterns []string, parent *models.FileTreeNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth > maxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		pf.logger.Debug("skipping unreadable directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	// directories first, then files, each alphabetically
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		name := entry.Name()
		relativePath := name
		if relative != "" {
			relativePath = relative + "/" + name
		}

		if utils.IsDefaultIgnored(relativePath) || utils.IsGitIgnored(relativePath, ignorePatterns) {
			continue
		}

		if entry.IsDir() {
			child := &models.FileTreeNode{
				Name: name,
				Kind: models.KindDirectory,
				Path: relativePath,
			}
			if err := pf.scanDirectory(ctx, filepath.Join(dir, name), relativePath, depth+1, maxDepth, ignorePatterns, child); err != nil {
				return err
			}
			parent.Children = append(parent.Children, child)
			continue
		}

		if !entry.Type().IsRegular() || !IsSupportedFile(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		parent.Children = append(parent.Children, &models.FileTreeNode{
			Name: name,
			Kind: models.KindFile,
			Path: relativePath,
			Size: info.Size(),
		})
	}

	return nil
}
