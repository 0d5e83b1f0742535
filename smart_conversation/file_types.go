package smart_conversation

import "strings"

type fileCategory struct {
	name     string
	patterns []string
}

// fileCategories is ordered so the classifier output is deterministic.
var fileCategories = []fileCategory{
	{name: "python", patterns: []string{".py", "requirements.txt", "setup.py", "pyproject.toml"}},
	{name: "javascript", patterns: []string{".js", ".ts", ".jsx", ".tsx", "package.json"}},
	{name: "config", patterns: []string{".json", ".yaml", ".yml", ".toml", ".ini", ".env"}},
	{name: "documentation", patterns: []string{".md", ".txt", "README", "LICENSE", "CHANGELOG"}},
	{name: "build", patterns: []string{"Dockerfile", "Makefile", "docker-compose.yml", ".gitignore"}},
}

var categoryAliases = map[string]string{
	"python":        "python",
	"py":            "python",
	"javascript":    "javascript",
	"js":            "javascript",
	"typescript":    "javascript",
	"ts":            "javascript",
	"node":          "javascript",
	"config":        "config",
	"configuration": "config",
	"settings":      "config",
	"doc":           "documentation",
	"docs":          "documentation",
	"documentation": "documentation",
	"readme":        "documentation",
	"build":         "build",
	"docker":        "build",
	"makefile":      "build",
}

// DefaultFileTypes is used when no keyword points at a category.
var DefaultFileTypes = []string{"python", "javascript", "config"}

// CategoryPatterns returns the filename patterns of a category, or nil when it is unknown.
func CategoryPatterns(category string) []string {
	for _, c := range fileCategories {
		if c.name == category {
			return c.patterns
		}
	}
	return nil
}

func (c fileCategory) matches(keyword string) bool {
	if categoryAliases[keyword] == c.name {
		return true
	}
	for _, pattern := range c.patterns {
		if strings.Contains(keyword, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// IdentifyFileTypes maps keywords to file categories. The result is never empty.
func IdentifyFileTypes(keywords []string) []string {
	var fileTypes []string
	for _, category := range fileCategories {
		for _, keyword := range keywords {
			if category.matches(strings.ToLower(keyword)) {
				fileTypes = append(fileTypes, category.name)
				break
			}
		}
	}

	if len(fileTypes) == 0 {
		return append([]string(nil), DefaultFileTypes...)
	}
	return fileTypes
}
