package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// IgnoreFileName holds extra ignore patterns for a project, one per line.
const IgnoreFileName = ".gitai-ignore"

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// Directory and file names skipped everywhere, compared case-insensitively.
var defaultIgnoredNames = map[string]struct{}{
	".git":              {},
	".svn":              {},
	".hg":               {},
	".idea":             {},
	".vscode":           {},
	".cache":            {},
	".venv":             {},
	"venv":              {},
	"env":               {},
	"__pycache__":       {},
	"node_modules":      {},
	"dist":              {},
	"build":             {},
	"bin":               {},
	"obj":               {},
	"out":               {},
	"gitai-config.yml":  {},
	"gitai-config.yaml": {},
	"gitai-config.json": {},
}

// File suffixes skipped everywhere.
var defaultIgnoredSuffixes = []string{
	".exe", ".dll", ".so", ".dylib", ".log", ".bak", ".bkp", ".tmp", ".pyc",
	".mp3", ".wav", ".aac", ".flac", ".ogg",
	".jpg", ".jpeg", ".png", ".gif", ".ico",
	".mkv", ".mp4", ".avi", ".mov", ".wmv",
	".drawio", ".excalidraw", ".zip", ".tar", ".gz",
}

// GetGitignorePatterns reads the patterns from the project's ignore file.
// If the file does not exist, it returns an empty pattern list. Results are
// cached until the file's modification time changes.
func GetGitignorePatterns(cwd string) ([]string, error) {
	ignorePath := filepath.Join(cwd, IgnoreFileName)

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists && fileInfo.ModTime().Equal(cached.modTime) {
		cacheMutex.RUnlock()
		return cached.patterns, nil
	}
	cacheMutex.RUnlock()

	ignorePatterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: ignorePatterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return ignorePatterns, nil
}

// IsDefaultIgnored reports whether any segment of a slash separated relative path is ignored by default.
func IsDefaultIgnored(relativePath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relativePath), "/") {
		part = strings.ToLower(part)
		if part == "" || part == "." {
			continue
		}
		if _, ok := defaultIgnoredNames[part]; ok {
			return true
		}
		for _, suffix := range defaultIgnoredSuffixes {
			if strings.HasSuffix(part, suffix) {
				return true
			}
		}
	}
	return false
}

// readIgnoreFile returns the non-empty, non-comment lines of an ignore file.
func readIgnoreFile(ignorePath string) ([]string, error) {
	content, err := os.ReadFile(ignorePath)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// IsGitIgnored checks if a slash separated relative path matches any ignore pattern.
// Patterns without a slash also match the base name; patterns ending in "/" match a directory prefix.
func IsGitIgnored(relativePath string, patterns []string) bool {
	relativePath = filepath.ToSlash(relativePath)
	base := path.Base(relativePath)

	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") {
			dir := strings.TrimPrefix(pattern, "/")
			if relativePath+"/" == dir || strings.HasPrefix(relativePath, dir) {
				return true
			}
			continue
		}
		pattern = strings.TrimPrefix(pattern, "/")
		if match, _ := path.Match(pattern, relativePath); match {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if match, _ := path.Match(pattern, base); match {
				return true
			}
		}
	}
	return false
}

// ClearGitignoreCache clears all cached ignore patterns
func ClearGitignoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
