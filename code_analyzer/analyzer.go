package code_analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/meysamhadeli/gitai/code_analyzer/contracts"
	"github.com/meysamhadeli/gitai/code_analyzer/models"
	"github.com/meysamhadeli/gitai/embed_data"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"
)

const (
	// maxOutlineFileSize skips outlining files over 100 KB.
	maxOutlineFileSize = 100 * 1024
	// maxOutlinedFiles bounds how many files of a repository map get outlines.
	maxOutlinedFiles = 200
	// maxElementsPerFile bounds the outline lines shown per file in a repository map.
	maxElementsPerFile = 12
)

// CodeAnalyzer extracts declaration outlines from source files.
type CodeAnalyzer struct {
	cacheManager *CacheManager
	logger       *zap.Logger

	queriesMu sync.Mutex
	queries   map[string][]taggedQuery
}

type taggedQuery struct {
	tag   string
	query *sitter.Query
}

type grammar struct {
	language *sitter.Language
	queries  []byte
}

var grammars = map[string]func() grammar{
	"go":         func() grammar { return grammar{golang.GetLanguage(), embed_data.GoQuery} },
	"python":     func() grammar { return grammar{python.GetLanguage(), embed_data.PythonQuery} },
	"javascript": func() grammar { return grammar{javascript.GetLanguage(), embed_data.JavascriptQuery} },
	"typescript": func() grammar { return grammar{typescript.GetLanguage(), embed_data.TypescriptQuery} },
	"tsx":        func() grammar { return grammar{tsx.GetLanguage(), embed_data.TypescriptQuery} },
	"java":       func() grammar { return grammar{java.GetLanguage(), embed_data.JavaQuery} },
	"csharp":     func() grammar { return grammar{csharp.GetLanguage(), embed_data.CSharpQuery} },
}

// NewCodeAnalyzer initializes a new CodeAnalyzer. cacheManager may be nil.
func NewCodeAnalyzer(cacheManager *CacheManager, logger *zap.Logger) contracts.ICodeAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeAnalyzer{
		cacheManager: cacheManager,
		logger:       logger.Named("code_analyzer"),
		queries:      make(map[string][]taggedQuery),
	}
}

// GetSupportedLanguage maps a file name to the outline language, or "" when unsupported.
func GetSupportedLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".java":
		return "java"
	case ".cs":
		return "csharp"
	case ".rs":
		return "rust"
	case ".zig":
		return "zig"
	default:
		return ""
	}
}

// ProcessFile returns tagged declarations such as "function: main" in source order.
func (analyzer *CodeAnalyzer) ProcessFile(filePath string, sourceCode []byte) []string {
	language := GetSupportedLanguage(filePath)

	switch language {
	case "":
		return nil
	case "rust":
		return extractRustStructure(string(sourceCode))
	case "zig":
		return extractZigStructure(string(sourceCode))
	}

	g := grammars[language]()
	queries := analyzer.compiledQueries(language, g)
	if len(queries) == 0 {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(g.language)

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		analyzer.logger.Debug("parse failed", zap.String("file", filePath), zap.Error(err))
		return nil
	}
	defer tree.Close()

	type found struct {
		start   uint32
		element string
	}
	var matches []found

	for _, q := range queries {
		cursor := sitter.NewQueryCursor()
		cursor.Exec(q.query, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				matches = append(matches, found{
					start:   capture.Node.StartByte(),
					element: fmt.Sprintf("%s: %s", q.tag, capture.Node.Content(sourceCode)),
				})
			}
		}
		cursor.Close()
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	elements := make([]string, 0, len(matches))
	for _, m := range matches {
		elements = append(elements, m.element)
	}
	return elements
}

func (analyzer *CodeAnalyzer) compiledQueries(language string, g grammar) []taggedQuery {
	analyzer.queriesMu.Lock()
	defer analyzer.queriesMu.Unlock()

	if q, ok := analyzer.queries[language]; ok {
		return q
	}

	raw := make(map[string]string)
	if err := json.Unmarshal(g.queries, &raw); err != nil {
		analyzer.logger.Error("invalid query set", zap.String("language", language), zap.Error(err))
		analyzer.queries[language] = nil
		return nil
	}

	tags := make([]string, 0, len(raw))
	for tag := range raw {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var compiled []taggedQuery
	for _, tag := range tags {
		query, err := sitter.NewQuery([]byte(raw[tag]), g.language)
		if err != nil {
			analyzer.logger.Error("failed to compile query", zap.String("language", language), zap.String("tag", tag), zap.Error(err))
			continue
		}
		compiled = append(compiled, taggedQuery{tag: tag, query: query})
	}

	analyzer.queries[language] = compiled
	return compiled
}

// Outline reads relativePath under rootDir and returns its declarations, using the cache when enabled.
func (analyzer *CodeAnalyzer) Outline(ctx context.Context, rootDir string, relativePath string) (*models.FileOutline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outline := &models.FileOutline{
		RelativePath: relativePath,
		Language:     GetSupportedLanguage(relativePath),
	}
	if outline.Language == "" {
		return outline, nil
	}

	path := filepath.Join(rootDir, filepath.FromSlash(relativePath))

	if analyzer.cacheManager != nil {
		if elements, ok := analyzer.cacheManager.GetOutlineCache(path); ok {
			outline.Elements = elements
			return outline, nil
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %s, error: %w", relativePath, err)
	}
	if info.Size() > maxOutlineFileSize {
		return outline, nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s, error: %w", relativePath, err)
	}

	outline.Elements = analyzer.ProcessFile(relativePath, source)

	if analyzer.cacheManager != nil {
		if err := analyzer.cacheManager.SetOutlineCache(path, outline.Elements); err != nil {
			analyzer.logger.Debug("failed to cache outline", zap.String("file", relativePath), zap.Error(err))
		}
	}

	return outline, nil
}

// RepositoryMap renders one line per file, followed by indented outline elements for source files.
func (analyzer *CodeAnalyzer) RepositoryMap(ctx context.Context, rootDir string, relativePaths []string) string {
	var builder strings.Builder
	outlined := 0

	for _, relativePath := range relativePaths {
		if ctx.Err() != nil {
			break
		}

		builder.WriteString(relativePath)
		builder.WriteString("\n")

		if outlined >= maxOutlinedFiles || GetSupportedLanguage(relativePath) == "" {
			continue
		}

		outline, err := analyzer.Outline(ctx, rootDir, relativePath)
		if err != nil {
			analyzer.logger.Debug("outline skipped", zap.String("file", relativePath), zap.Error(err))
			continue
		}
		outlined++

		for i, element := range outline.Elements {
			if i == maxElementsPerFile {
				fmt.Fprintf(&builder, "  ... %d more\n", len(outline.Elements)-maxElementsPerFile)
				break
			}
			fmt.Fprintf(&builder, "  - %s\n", element)
		}
	}

	return builder.String()
}

var (
	rustPatterns = []struct {
		tag string
		re  *regexp.Regexp
	}{
		{"function", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+(\w+)`)},
		{"struct", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+(\w+)`)},
		{"enum", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+(\w+)`)},
		{"trait", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+(\w+)`)},
		{"impl", regexp.MustCompile(`^\s*impl(?:\s*<[^>]*>)?\s+(?:\w+\s+for\s+)?(\w+)`)},
		{"mod", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?mod\s+(\w+)`)},
	}
	zigPatterns = []struct {
		tag string
		re  *regexp.Regexp
	}{
		{"test", regexp.MustCompile(`^\s*test\s+"([^"]+)"`)},
		{"struct", regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*=\s*(?:extern\s+|packed\s+)?struct`)},
		{"enum", regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*=\s*enum`)},
		{"union", regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*=\s*union`)},
		{"function", regexp.MustCompile(`^\s*(?:pub\s+)?fn\s+(\w+)`)},
	}
)

// extractRustStructure extracts basic Rust code structure using regex patterns
func extractRustStructure(sourceCode string) []string {
	var elements []string
	for _, line := range strings.Split(sourceCode, "\n") {
		for _, p := range rustPatterns {
			if matches := p.re.FindStringSubmatch(line); matches != nil {
				elements = append(elements, fmt.Sprintf("%s: %s", p.tag, matches[1]))
				break
			}
		}
	}
	return elements
}

// extractZigStructure extracts basic Zig code structure using regex patterns
func extractZigStructure(sourceCode string) []string {
	var elements []string
	for _, line := range strings.Split(sourceCode, "\n") {
		for _, p := range zigPatterns {
			if matches := p.re.FindStringSubmatch(line); matches != nil {
				elements = append(elements, fmt.Sprintf("%s: %s", p.tag, matches[1]))
				break
			}
		}
	}
	return elements
}
